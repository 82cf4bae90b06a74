// Package repository persists tracker entities. Postgres is the production
// backend; the in-memory store serves local runs and tests.
package repository

import (
	"context"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

type UserRepository interface {
	// Create inserts the user and fills in ID and CreatedAt. A taken
	// username yields domain.ErrConflict.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Get(ctx context.Context, id int64) (domain.Project, error)
	List(ctx context.Context, filter domain.ProjectFilter) ([]domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id int64) error

	// HasAccess reports whether the user owns the project, is a member, or
	// created or is assigned to one of its bugs.
	HasAccess(ctx context.Context, projectID, userID int64) (bool, error)
	Statistics(ctx context.Context, projectID int64) (domain.ProjectStatistics, error)

	AddMember(ctx context.Context, projectID, userID int64) error
	RemoveMember(ctx context.Context, projectID, userID int64) error
	ListMembers(ctx context.Context, projectID int64) ([]domain.ProjectMember, error)
}

type BugRepository interface {
	Create(ctx context.Context, bug *domain.Bug) error
	Get(ctx context.Context, id int64) (domain.Bug, error)
	List(ctx context.Context, filter domain.BugFilter) ([]domain.Bug, error)
	Update(ctx context.Context, bug *domain.Bug) error
	Delete(ctx context.Context, id int64) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	Get(ctx context.Context, id int64) (domain.Comment, error)
	List(ctx context.Context, filter domain.CommentFilter) ([]domain.Comment, error)
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id int64) error
}

type ActivityRepository interface {
	Create(ctx context.Context, activity *domain.Activity) error
	Get(ctx context.Context, id int64) (domain.Activity, error)
	List(ctx context.Context, filter domain.ActivityFilter) ([]domain.Activity, error)
}

// Repositories groups every repository of one backend.
type Repositories struct {
	Users      UserRepository
	Projects   ProjectRepository
	Bugs       BugRepository
	Comments   CommentRepository
	Activities ActivityRepository
}
