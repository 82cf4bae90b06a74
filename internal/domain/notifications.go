package domain

// BugNotification is the data of bug_created, bug_updated,
// bug_status_changed and bug_assigned notifications.
type BugNotification struct {
	BugID       int64     `json:"bug_id"`
	BugTitle    string    `json:"bug_title"`
	ProjectName string    `json:"project_name"`
	CreatedBy   string    `json:"created_by,omitempty"`
	UpdatedBy   string    `json:"updated_by,omitempty"`
	OldStatus   BugStatus `json:"old_status,omitempty"`
	NewStatus   BugStatus `json:"new_status,omitempty"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
	AssignedBy  string    `json:"assigned_by,omitempty"`
}

type CommentNotification struct {
	CommentID      int64   `json:"comment_id"`
	BugID          int64   `json:"bug_id"`
	BugTitle       string  `json:"bug_title"`
	CommentMessage string  `json:"comment_message"`
	Commenter      string  `json:"commenter"`
	ProjectName    string  `json:"project_name"`
	Recipients     []int64 `json:"recipients"`
}
