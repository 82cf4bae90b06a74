package domain

import (
	"bytes"
	"encoding/json"
)

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type CreateProjectRequest struct {
	Name        string `json:"project_name"`
	Description string `json:"project_description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"project_name"`
	Description *string `json:"project_description"`
}

type AddMemberRequest struct {
	UserID int64 `json:"user_id"`
}

type CreateBugRequest struct {
	Title        string      `json:"bug_title"`
	Description  string      `json:"bug_description"`
	Status       BugStatus   `json:"bug_status"`
	Priority     BugPriority `json:"bug_priority"`
	ProjectID    int64       `json:"related_project_id"`
	AssignedToID *int64      `json:"assigned_to_user_id"`
}

type UpdateBugRequest struct {
	Title        *string      `json:"bug_title"`
	Description  *string      `json:"bug_description"`
	Status       *BugStatus   `json:"bug_status"`
	Priority     *BugPriority `json:"bug_priority"`
	AssignedToID OptionalID   `json:"assigned_to_user_id"`
	ProjectID    *int64       `json:"related_project_id"`
}

type CreateCommentRequest struct {
	BugID   int64  `json:"related_bug_id"`
	Message string `json:"comment_message"`
}

type UpdateCommentRequest struct {
	Message *string `json:"comment_message"`
}

// OptionalID distinguishes an absent field from an explicit null, so a
// partial update can clear a nullable foreign key.
type OptionalID struct {
	Set   bool
	Value *int64
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

func SomeID(id int64) OptionalID {
	return OptionalID{Set: true, Value: &id}
}
