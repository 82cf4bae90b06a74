package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Tyrowin/bugtracker/internal/domain"
	"github.com/Tyrowin/bugtracker/internal/repository"
)

var errNotProjectMember = domain.ErrForbidden.WithMessage("you are not a member of this project")

type Bugs struct {
	bugs     repository.BugRepository
	projects repository.ProjectRepository
	users    repository.UserRepository
	log      *ActivityLog
	notifier Notifier
}

func NewBugs(repos repository.Repositories, log *ActivityLog, notifier Notifier) *Bugs {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Bugs{
		bugs:     repos.Bugs,
		projects: repos.Projects,
		users:    repos.Users,
		log:      log,
		notifier: notifier,
	}
}

// List returns bugs from projects the user can access.
func (s *Bugs) List(ctx context.Context, user domain.User, filter domain.BugFilter) ([]domain.Bug, error) {
	filter.AccessibleTo = user.ID
	bugs, err := s.bugs.List(ctx, filter)
	if err != nil {
		slog.Error("failed to list bugs", "user_id", user.ID, "error", err)
		return nil, err
	}
	return bugs, nil
}

func (s *Bugs) AssignedTo(ctx context.Context, user domain.User) ([]domain.Bug, error) {
	return s.List(ctx, user, domain.BugFilter{AssignedTo: &user.ID, Ordering: domain.DefaultBugOrdering})
}

func (s *Bugs) CreatedBy(ctx context.Context, user domain.User) ([]domain.Bug, error) {
	return s.List(ctx, user, domain.BugFilter{CreatedBy: &user.ID, Ordering: domain.DefaultBugOrdering})
}

func (s *Bugs) Get(ctx context.Context, user domain.User, id int64) (domain.Bug, error) {
	bug, err := s.bugs.Get(ctx, id)
	if err != nil {
		return domain.Bug{}, err
	}
	if err := requireAccess(ctx, s.projects, bug.Project.ID, user.ID); err != nil {
		return domain.Bug{}, err
	}
	return bug, nil
}

// resolveAssignee loads the assignee and checks that they can see the
// project.
func (s *Bugs) resolveAssignee(ctx context.Context, projectID, assigneeID int64) (*domain.User, error) {
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrBadRequest.WithMessage("assigned_to_user_id: user does not exist")
		}
		return nil, err
	}
	ok, err := s.projects.HasAccess(ctx, projectID, assignee.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrBadRequest.WithMessage("assigned_to_user_id: user is not a member of this project")
	}
	return &assignee, nil
}

func (s *Bugs) Create(ctx context.Context, user domain.User, req domain.CreateBugRequest) (domain.Bug, error) {
	title, err := validateTitle("bug_title", req.Title)
	if err != nil {
		return domain.Bug{}, err
	}
	if req.Status == "" {
		req.Status = domain.StatusOpen
	}
	if !req.Status.Valid() {
		return domain.Bug{}, domain.ErrBadRequest.WithMessage(fmt.Sprintf("bug_status: %q is not a valid choice", req.Status))
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	if !req.Priority.Valid() {
		return domain.Bug{}, domain.ErrBadRequest.WithMessage(fmt.Sprintf("bug_priority: %q is not a valid choice", req.Priority))
	}

	project, err := s.projects.Get(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Bug{}, domain.ErrBadRequest.WithMessage("related_project_id: project does not exist")
		}
		return domain.Bug{}, err
	}

	ok, err := s.projects.HasAccess(ctx, project.ID, user.ID)
	if err != nil {
		return domain.Bug{}, err
	}
	if !ok {
		slog.Warn("bug creation denied",
			"project_id", project.ID,
			"user_id", user.ID)
		return domain.Bug{}, errNotProjectMember
	}

	bug := domain.Bug{
		Title:       title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Project:     project.Ref(),
		CreatedBy:   user,
	}
	if req.AssignedToID != nil {
		if bug.AssignedTo, err = s.resolveAssignee(ctx, project.ID, *req.AssignedToID); err != nil {
			return domain.Bug{}, err
		}
	}

	if err := s.bugs.Create(ctx, &bug); err != nil {
		slog.Error("failed to create bug", "project_id", project.ID, "error", err)
		return domain.Bug{}, err
	}

	slog.Info("bug created",
		"bug_id", bug.ID,
		"bug_title", bug.Title,
		"created_by", user.Username)

	s.log.Record(ctx, domain.ActivityBugCreated,
		fmt.Sprintf("Bug '%s' was created", bug.Title), user, bug.Project, &bug.ID)

	s.notifier.Notify(ctx, project.ID, domain.NotifyBugCreated, domain.BugNotification{
		BugID:       bug.ID,
		BugTitle:    bug.Title,
		CreatedBy:   user.Username,
		ProjectName: project.Name,
	})
	if bug.AssignedTo != nil {
		s.notifyAssigned(ctx, bug, user)
	}

	return s.bugs.Get(ctx, bug.ID)
}

// Update applies req to the bug. With partial unset bug_title and
// related_project_id are required.
func (s *Bugs) Update(ctx context.Context, user domain.User, id int64, req domain.UpdateBugRequest, partial bool) (domain.Bug, error) {
	bug, err := s.Get(ctx, user, id)
	if err != nil {
		return domain.Bug{}, err
	}
	if !bug.CanEdit(user.ID) {
		return domain.Bug{}, domain.ErrForbidden.WithMessage("only the reporter, the assignee or the project owner can edit this bug")
	}

	if req.Title == nil && !partial {
		return domain.Bug{}, domain.ErrBadRequest.WithMessage("bug_title: this field is required")
	}
	if req.ProjectID == nil && !partial {
		return domain.Bug{}, domain.ErrBadRequest.WithMessage("related_project_id: this field is required")
	}

	oldStatus := bug.Status
	oldAssignee := bug.AssigneeID()

	if req.Title != nil {
		if bug.Title, err = validateTitle("bug_title", *req.Title); err != nil {
			return domain.Bug{}, err
		}
	}
	if req.Description != nil {
		bug.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			return domain.Bug{}, domain.ErrBadRequest.WithMessage(fmt.Sprintf("bug_priority: %q is not a valid choice", *req.Priority))
		}
		bug.Priority = *req.Priority
	}
	if req.Status != nil && *req.Status != oldStatus {
		if !req.Status.Valid() {
			return domain.Bug{}, domain.ErrBadRequest.WithMessage(fmt.Sprintf("bug_status: %q is not a valid choice", *req.Status))
		}
		if !domain.CanTransition(oldStatus, *req.Status) {
			return domain.Bug{}, domain.ErrInvalidTransition.WithMessage(
				fmt.Sprintf("cannot change status from %s to %s", oldStatus, *req.Status))
		}
		bug.Status = *req.Status
	}
	if req.ProjectID != nil && *req.ProjectID != bug.Project.ID {
		if bug.Project, err = s.moveTarget(ctx, user, *req.ProjectID); err != nil {
			return domain.Bug{}, err
		}
		if !req.AssignedToID.Set && bug.AssignedTo != nil {
			// The current assignee must follow the bug.
			if _, err := s.resolveAssignee(ctx, bug.Project.ID, bug.AssignedTo.ID); err != nil {
				return domain.Bug{}, err
			}
		}
	}
	if req.AssignedToID.Set {
		bug.AssignedTo = nil
		if req.AssignedToID.Value != nil {
			if bug.AssignedTo, err = s.resolveAssignee(ctx, bug.Project.ID, *req.AssignedToID.Value); err != nil {
				return domain.Bug{}, err
			}
		}
	}

	if err := s.bugs.Update(ctx, &bug); err != nil {
		slog.Error("failed to update bug", "bug_id", id, "error", err)
		return domain.Bug{}, err
	}

	if bug.Status != oldStatus {
		slog.Info("bug status changed",
			"bug_id", bug.ID,
			"old_status", oldStatus,
			"new_status", bug.Status,
			"updated_by", user.Username)

		s.log.Record(ctx, domain.ActivityBugStatusChanged,
			fmt.Sprintf("Bug '%s' status changed from %s to %s", bug.Title, oldStatus, bug.Status),
			user, bug.Project, &bug.ID)

		s.notifier.Notify(ctx, bug.Project.ID, domain.NotifyBugStatusChanged, domain.BugNotification{
			BugID:       bug.ID,
			BugTitle:    bug.Title,
			OldStatus:   oldStatus,
			NewStatus:   bug.Status,
			UpdatedBy:   user.Username,
			ProjectName: bug.Project.Name,
		})
	} else {
		slog.Info("bug updated", "bug_id", bug.ID, "updated_by", user.Username)

		s.log.Record(ctx, domain.ActivityBugUpdated,
			fmt.Sprintf("Bug '%s' was updated", bug.Title), user, bug.Project, &bug.ID)

		s.notifier.Notify(ctx, bug.Project.ID, domain.NotifyBugUpdated, domain.BugNotification{
			BugID:       bug.ID,
			BugTitle:    bug.Title,
			UpdatedBy:   user.Username,
			ProjectName: bug.Project.Name,
		})
	}

	if bug.AssignedTo != nil && bug.AssigneeID() != oldAssignee {
		s.notifyAssigned(ctx, bug, user)
	}

	return s.bugs.Get(ctx, bug.ID)
}

// moveTarget loads the project a bug is being moved to. The editor must have
// access to it.
func (s *Bugs) moveTarget(ctx context.Context, user domain.User, projectID int64) (domain.ProjectRef, error) {
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ProjectRef{}, domain.ErrBadRequest.WithMessage("related_project_id: project does not exist")
		}
		return domain.ProjectRef{}, err
	}
	ok, err := s.projects.HasAccess(ctx, project.ID, user.ID)
	if err != nil {
		return domain.ProjectRef{}, err
	}
	if !ok {
		return domain.ProjectRef{}, errNotProjectMember
	}
	return project.Ref(), nil
}

func (s *Bugs) notifyAssigned(ctx context.Context, bug domain.Bug, by domain.User) {
	s.notifier.Notify(ctx, bug.Project.ID, domain.NotifyBugAssigned, domain.BugNotification{
		BugID:       bug.ID,
		BugTitle:    bug.Title,
		AssignedTo:  bug.AssignedTo.Username,
		AssignedBy:  by.Username,
		ProjectName: bug.Project.Name,
	})
}

func (s *Bugs) Delete(ctx context.Context, user domain.User, id int64) error {
	bug, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if !bug.CanDelete(user.ID) {
		return domain.ErrForbidden.WithMessage("only the reporter or the project owner can delete this bug")
	}
	if err := s.bugs.Delete(ctx, id); err != nil {
		slog.Error("failed to delete bug", "bug_id", id, "error", err)
		return err
	}
	slog.Info("bug deleted", "bug_id", id, "deleted_by", user.Username)
	return nil
}
