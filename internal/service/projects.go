package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tyrowin/bugtracker/internal/domain"
	"github.com/Tyrowin/bugtracker/internal/repository"
)

type Projects struct {
	projects repository.ProjectRepository
	users    repository.UserRepository
	bugs     repository.BugRepository
	log      *ActivityLog
}

func NewProjects(repos repository.Repositories, log *ActivityLog) *Projects {
	return &Projects{
		projects: repos.Projects,
		users:    repos.Users,
		bugs:     repos.Bugs,
		log:      log,
	}
}

func (s *Projects) List(ctx context.Context, user domain.User, filter domain.ProjectFilter) ([]domain.Project, error) {
	filter.AccessibleTo = user.ID
	projects, err := s.projects.List(ctx, filter)
	if err != nil {
		slog.Error("failed to list projects", "user_id", user.ID, "error", err)
		return nil, err
	}
	return projects, nil
}

func (s *Projects) Create(ctx context.Context, user domain.User, req domain.CreateProjectRequest) (domain.Project, error) {
	name, err := validateTitle("project_name", req.Name)
	if err != nil {
		return domain.Project{}, err
	}

	project := domain.Project{Name: name, Description: req.Description, Owner: user}
	if err := s.projects.Create(ctx, &project); err != nil {
		slog.Error("failed to create project", "owner_id", user.ID, "error", err)
		return domain.Project{}, err
	}

	slog.Info("project created",
		"project_id", project.ID,
		"project_name", project.Name,
		"owner", user.Username)

	s.log.Record(ctx, domain.ActivityProjectCreated,
		fmt.Sprintf("Project '%s' was created", project.Name), user, project.Ref(), nil)

	return s.projects.Get(ctx, project.ID)
}

// Get returns the project when the user can access it.
func (s *Projects) Get(ctx context.Context, user domain.User, id int64) (domain.Project, error) {
	if err := requireAccess(ctx, s.projects, id, user.ID); err != nil {
		return domain.Project{}, err
	}
	return s.projects.Get(ctx, id)
}

// owned returns the project when the user owns it.
func (s *Projects) owned(ctx context.Context, user domain.User, id int64) (domain.Project, error) {
	project, err := s.Get(ctx, user, id)
	if err != nil {
		return domain.Project{}, err
	}
	if project.Owner.ID != user.ID {
		return domain.Project{}, domain.ErrForbidden.WithMessage("only the project owner can perform this action")
	}
	return project, nil
}

// Update applies req to the project. With partial unset every writable
// field is required.
func (s *Projects) Update(ctx context.Context, user domain.User, id int64, req domain.UpdateProjectRequest, partial bool) (domain.Project, error) {
	project, err := s.owned(ctx, user, id)
	if err != nil {
		return domain.Project{}, err
	}

	if req.Name == nil && !partial {
		return domain.Project{}, domain.ErrBadRequest.WithMessage("project_name: this field is required")
	}
	if req.Name != nil {
		if project.Name, err = validateTitle("project_name", *req.Name); err != nil {
			return domain.Project{}, err
		}
	}
	if req.Description != nil {
		project.Description = *req.Description
	}

	if err := s.projects.Update(ctx, &project); err != nil {
		slog.Error("failed to update project", "project_id", id, "error", err)
		return domain.Project{}, err
	}

	slog.Info("project updated", "project_id", id, "updated_by", user.Username)

	s.log.Record(ctx, domain.ActivityProjectUpdated,
		fmt.Sprintf("Project '%s' was updated", project.Name), user, project.Ref(), nil)

	return s.projects.Get(ctx, id)
}

func (s *Projects) Delete(ctx context.Context, user domain.User, id int64) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		slog.Error("failed to delete project", "project_id", id, "error", err)
		return err
	}
	slog.Info("project deleted", "project_id", id, "deleted_by", user.Username)
	return nil
}

// Bugs lists the bugs of one project, newest first.
func (s *Projects) Bugs(ctx context.Context, user domain.User, id int64) ([]domain.Bug, error) {
	if err := requireAccess(ctx, s.projects, id, user.ID); err != nil {
		return nil, err
	}
	return s.bugs.List(ctx, domain.BugFilter{ProjectID: &id, Ordering: domain.DefaultBugOrdering})
}

func (s *Projects) Statistics(ctx context.Context, user domain.User, id int64) (domain.ProjectStatistics, error) {
	if err := requireAccess(ctx, s.projects, id, user.ID); err != nil {
		return domain.ProjectStatistics{}, err
	}
	return s.projects.Statistics(ctx, id)
}

func (s *Projects) Members(ctx context.Context, user domain.User, id int64) ([]domain.ProjectMember, error) {
	if err := requireAccess(ctx, s.projects, id, user.ID); err != nil {
		return nil, err
	}
	return s.projects.ListMembers(ctx, id)
}

func (s *Projects) AddMember(ctx context.Context, user domain.User, id int64, req domain.AddMemberRequest) ([]domain.ProjectMember, error) {
	project, err := s.owned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if req.UserID == project.Owner.ID {
		return nil, domain.ErrBadRequest.WithMessage("user_id: the owner is already part of the project")
	}
	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrBadRequest.WithMessage("user_id: user does not exist")
		}
		return nil, err
	}

	if err := s.projects.AddMember(ctx, id, req.UserID); err != nil {
		slog.Error("failed to add project member", "project_id", id, "user_id", req.UserID, "error", err)
		return nil, err
	}

	slog.Info("project member added", "project_id", id, "user_id", req.UserID)
	return s.projects.ListMembers(ctx, id)
}

func (s *Projects) RemoveMember(ctx context.Context, user domain.User, id, memberID int64) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	if err := s.projects.RemoveMember(ctx, id, memberID); err != nil {
		return err
	}
	slog.Info("project member removed", "project_id", id, "user_id", memberID)
	return nil
}
