package api

import (
	"context"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type AuthService interface {
	Login(ctx context.Context, req domain.TokenRequest) (domain.TokenPair, error)
	Refresh(ctx context.Context, req domain.RefreshRequest) (domain.AccessToken, error)
	Verify(ctx context.Context, req domain.VerifyRequest) error
	Register(ctx context.Context, req domain.RegisterRequest) (domain.User, error)
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

type ProjectService interface {
	List(ctx context.Context, user domain.User, filter domain.ProjectFilter) ([]domain.Project, error)
	Create(ctx context.Context, user domain.User, req domain.CreateProjectRequest) (domain.Project, error)
	Get(ctx context.Context, user domain.User, id int64) (domain.Project, error)
	Update(ctx context.Context, user domain.User, id int64, req domain.UpdateProjectRequest, partial bool) (domain.Project, error)
	Delete(ctx context.Context, user domain.User, id int64) error
	Bugs(ctx context.Context, user domain.User, id int64) ([]domain.Bug, error)
	Statistics(ctx context.Context, user domain.User, id int64) (domain.ProjectStatistics, error)
	Members(ctx context.Context, user domain.User, id int64) ([]domain.ProjectMember, error)
	AddMember(ctx context.Context, user domain.User, id int64, req domain.AddMemberRequest) ([]domain.ProjectMember, error)
	RemoveMember(ctx context.Context, user domain.User, id, memberID int64) error
}

type BugService interface {
	List(ctx context.Context, user domain.User, filter domain.BugFilter) ([]domain.Bug, error)
	AssignedTo(ctx context.Context, user domain.User) ([]domain.Bug, error)
	CreatedBy(ctx context.Context, user domain.User) ([]domain.Bug, error)
	Create(ctx context.Context, user domain.User, req domain.CreateBugRequest) (domain.Bug, error)
	Get(ctx context.Context, user domain.User, id int64) (domain.Bug, error)
	Update(ctx context.Context, user domain.User, id int64, req domain.UpdateBugRequest, partial bool) (domain.Bug, error)
	Delete(ctx context.Context, user domain.User, id int64) error
}

type CommentService interface {
	List(ctx context.Context, user domain.User, filter domain.CommentFilter) ([]domain.Comment, error)
	Create(ctx context.Context, user domain.User, req domain.CreateCommentRequest) (domain.Comment, error)
	Get(ctx context.Context, user domain.User, id int64) (domain.Comment, error)
	Update(ctx context.Context, user domain.User, id int64, req domain.UpdateCommentRequest, partial bool) (domain.Comment, error)
	Delete(ctx context.Context, user domain.User, id int64) error
}

type ActivityService interface {
	List(ctx context.Context, user domain.User, filter domain.ActivityFilter) ([]domain.Activity, error)
	Get(ctx context.Context, user domain.User, id int64) (domain.Activity, error)
}

// Services is the set of services the REST API is built on.
type Services struct {
	Auth       AuthService
	Projects   ProjectService
	Bugs       BugService
	Comments   CommentService
	Activities ActivityService
}
