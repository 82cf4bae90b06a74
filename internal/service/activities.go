package service

import (
	"context"

	"github.com/Tyrowin/bugtracker/internal/domain"
	"github.com/Tyrowin/bugtracker/internal/repository"
)

// Activities is the read side of the activity log.
type Activities struct {
	activities repository.ActivityRepository
	projects   repository.ProjectRepository
}

func NewActivities(repos repository.Repositories) *Activities {
	return &Activities{activities: repos.Activities, projects: repos.Projects}
}

func (s *Activities) List(ctx context.Context, user domain.User, filter domain.ActivityFilter) ([]domain.Activity, error) {
	filter.AccessibleTo = user.ID
	return s.activities.List(ctx, filter)
}

func (s *Activities) Get(ctx context.Context, user domain.User, id int64) (domain.Activity, error) {
	activity, err := s.activities.Get(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	if err := requireAccess(ctx, s.projects, activity.Project.ID, user.ID); err != nil {
		return domain.Activity{}, err
	}
	return activity, nil
}
