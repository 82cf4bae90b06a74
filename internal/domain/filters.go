package domain

import (
	"slices"
	"strings"
)

// Ordering is a validated sort key taken from an "ordering" query parameter
// such as "-created_at".
type Ordering struct {
	Field string
	Desc  bool
}

// ParseOrdering accepts raw only when its field is in allowed and falls back
// to def otherwise.
func ParseOrdering(raw string, allowed []string, def Ordering) Ordering {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	o := Ordering{Field: raw}
	if strings.HasPrefix(raw, "-") {
		o = Ordering{Field: raw[1:], Desc: true}
	}
	if !slices.Contains(allowed, o.Field) {
		return def
	}
	return o
}

var (
	ProjectOrderingFields = []string{"created_at", "updated_at", "project_name"}
	BugOrderingFields     = []string{"created_at", "updated_at", "bug_priority"}
	CommentOrderingFields = []string{"created_at"}
	ActivityOrderFields   = []string{"created_at"}

	DefaultProjectOrdering  = Ordering{Field: "created_at", Desc: true}
	DefaultBugOrdering      = Ordering{Field: "created_at", Desc: true}
	DefaultCommentOrdering  = Ordering{Field: "created_at"}
	DefaultActivityOrdering = Ordering{Field: "created_at", Desc: true}
)

type ProjectFilter struct {
	AccessibleTo int64
	Search       string
	Ordering     Ordering
}

type BugFilter struct {
	AccessibleTo int64
	Status       BugStatus
	Priority     BugPriority
	ProjectID    *int64
	AssignedTo   *int64
	CreatedBy    *int64
	Search       string
	Ordering     Ordering
}

type CommentFilter struct {
	AccessibleTo int64
	BugID        *int64
	Ordering     Ordering
}

type ActivityFilter struct {
	AccessibleTo int64
	ProjectID    *int64
	BugID        *int64
	Type         ActivityType
	Ordering     Ordering
}
