package domain

import "slices"

type BugStatus string

const (
	StatusOpen       BugStatus = "open"
	StatusInProgress BugStatus = "in_progress"
	StatusResolved   BugStatus = "resolved"
)

func (s BugStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

var statusTransitions = map[BugStatus][]BugStatus{
	StatusOpen:       {StatusInProgress, StatusResolved},
	StatusInProgress: {StatusOpen, StatusResolved},
	StatusResolved:   {StatusOpen, StatusInProgress},
}

// CanTransition reports whether a bug may move from one status to another.
// Staying in the same status is not a transition.
func CanTransition(from, to BugStatus) bool {
	return slices.Contains(statusTransitions[from], to)
}

type BugPriority string

const (
	PriorityLow      BugPriority = "low"
	PriorityMedium   BugPriority = "medium"
	PriorityHigh     BugPriority = "high"
	PriorityCritical BugPriority = "critical"
)

func (p BugPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

func (p BugPriority) IsHigh() bool {
	return p == PriorityHigh || p == PriorityCritical
}

type ActivityType string

const (
	ActivityBugCreated       ActivityType = "bug_created"
	ActivityBugUpdated       ActivityType = "bug_updated"
	ActivityBugStatusChanged ActivityType = "bug_status_changed"
	ActivityCommentAdded     ActivityType = "comment_added"
	ActivityProjectCreated   ActivityType = "project_created"
	ActivityProjectUpdated   ActivityType = "project_updated"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityBugCreated, ActivityBugUpdated, ActivityBugStatusChanged,
		ActivityCommentAdded, ActivityProjectCreated, ActivityProjectUpdated:
		return true
	}
	return false
}

// Notification kinds pushed to project rooms. All activity types double as
// notification kinds; bug_assigned has no activity counterpart.
const (
	NotifyBugCreated       = string(ActivityBugCreated)
	NotifyBugUpdated       = string(ActivityBugUpdated)
	NotifyBugStatusChanged = string(ActivityBugStatusChanged)
	NotifyCommentAdded     = string(ActivityCommentAdded)
	NotifyBugAssigned      = "bug_assigned"
)
