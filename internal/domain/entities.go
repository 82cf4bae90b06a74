package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsStaff      bool      `json:"is_staff"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Project struct {
	ID             int64     `json:"id"`
	Name           string    `json:"project_name"`
	Description    string    `json:"project_description"`
	Owner          User      `json:"project_owner"`
	TotalBugsCount int       `json:"total_bugs_count"`
	OpenBugsCount  int       `json:"open_bugs_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ProjectRef is the compact project view embedded in bugs and activities.
type ProjectRef struct {
	ID      int64  `json:"id"`
	Name    string `json:"project_name"`
	OwnerID int64  `json:"project_owner_id"`
}

func (p Project) Ref() ProjectRef {
	return ProjectRef{ID: p.ID, Name: p.Name, OwnerID: p.Owner.ID}
}

type ProjectMember struct {
	ProjectID int64     `json:"project_id"`
	User      User      `json:"user"`
	AddedAt   time.Time `json:"added_at"`
}

type ProjectStatistics struct {
	ProjectID        int64 `json:"project_id"`
	TotalBugs        int   `json:"total_bugs"`
	OpenBugs         int   `json:"open_bugs"`
	InProgressBugs   int   `json:"in_progress_bugs"`
	ResolvedBugs     int   `json:"resolved_bugs"`
	HighPriorityBugs int   `json:"high_priority_bugs"`
}

type Bug struct {
	ID            int64       `json:"id"`
	Title         string      `json:"bug_title"`
	Description   string      `json:"bug_description"`
	Status        BugStatus   `json:"bug_status"`
	Priority      BugPriority `json:"bug_priority"`
	AssignedTo    *User       `json:"assigned_to_user"`
	Project       ProjectRef  `json:"related_project"`
	CreatedBy     User        `json:"created_by_user"`
	CommentsCount int         `json:"comments_count"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (b Bug) AssigneeID() int64 {
	if b.AssignedTo == nil {
		return 0
	}
	return b.AssignedTo.ID
}

// CanEdit reports whether the user is the reporter, the assignee or the
// project owner.
func (b Bug) CanEdit(userID int64) bool {
	return userID == b.CreatedBy.ID || userID == b.AssigneeID() || userID == b.Project.OwnerID
}

func (b Bug) CanDelete(userID int64) bool {
	return userID == b.CreatedBy.ID || userID == b.Project.OwnerID
}

// NotificationRecipients lists reporter, assignee and project owner without
// duplicates, in that order.
func (b Bug) NotificationRecipients() []int64 {
	candidates := []int64{b.CreatedBy.ID, b.AssigneeID(), b.Project.OwnerID}
	recipients := make([]int64, 0, len(candidates))
	seen := make(map[int64]bool, len(candidates))
	for _, id := range candidates {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		recipients = append(recipients, id)
	}
	return recipients
}

type Comment struct {
	ID        int64     `json:"id"`
	BugID     int64     `json:"related_bug_id"`
	BugTitle  string    `json:"related_bug_title"`
	ProjectID int64     `json:"related_project_id"`
	Commenter User      `json:"commenter_user"`
	Message   string    `json:"comment_message"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c Comment) CanEdit(userID int64) bool {
	return c.Commenter.ID == userID
}

type Activity struct {
	ID          int64        `json:"id"`
	Type        ActivityType `json:"activity_type"`
	Description string       `json:"activity_description"`
	User        User         `json:"activity_user"`
	Project     ProjectRef   `json:"related_project"`
	BugID       *int64       `json:"related_bug_id"`
	CreatedAt   time.Time    `json:"created_at"`
}
