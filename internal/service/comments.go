package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Tyrowin/bugtracker/internal/domain"
	"github.com/Tyrowin/bugtracker/internal/repository"
)

type Comments struct {
	comments repository.CommentRepository
	bugs     repository.BugRepository
	projects repository.ProjectRepository
	log      *ActivityLog
	notifier Notifier
}

func NewComments(repos repository.Repositories, log *ActivityLog, notifier Notifier) *Comments {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Comments{
		comments: repos.Comments,
		bugs:     repos.Bugs,
		projects: repos.Projects,
		log:      log,
		notifier: notifier,
	}
}

func (s *Comments) List(ctx context.Context, user domain.User, filter domain.CommentFilter) ([]domain.Comment, error) {
	filter.AccessibleTo = user.ID
	comments, err := s.comments.List(ctx, filter)
	if err != nil {
		slog.Error("failed to list comments", "user_id", user.ID, "error", err)
		return nil, err
	}
	return comments, nil
}

func (s *Comments) Get(ctx context.Context, user domain.User, id int64) (domain.Comment, error) {
	comment, err := s.comments.Get(ctx, id)
	if err != nil {
		return domain.Comment{}, err
	}
	if err := requireAccess(ctx, s.projects, comment.ProjectID, user.ID); err != nil {
		return domain.Comment{}, err
	}
	return comment, nil
}

func validateMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domain.ErrBadRequest.WithMessage("comment_message: this field may not be blank")
	}
	return message, nil
}

func (s *Comments) Create(ctx context.Context, user domain.User, req domain.CreateCommentRequest) (domain.Comment, error) {
	message, err := validateMessage(req.Message)
	if err != nil {
		return domain.Comment{}, err
	}

	bug, err := s.bugs.Get(ctx, req.BugID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Comment{}, domain.ErrBadRequest.WithMessage("related_bug_id: bug does not exist")
		}
		return domain.Comment{}, err
	}

	ok, err := s.projects.HasAccess(ctx, bug.Project.ID, user.ID)
	if err != nil {
		return domain.Comment{}, err
	}
	if !ok {
		return domain.Comment{}, errNotProjectMember
	}

	comment := domain.Comment{BugID: bug.ID, Commenter: user, Message: message}
	if err := s.comments.Create(ctx, &comment); err != nil {
		slog.Error("failed to create comment", "bug_id", bug.ID, "error", err)
		return domain.Comment{}, err
	}

	slog.Info("comment created",
		"comment_id", comment.ID,
		"bug_id", bug.ID,
		"commenter", user.Username)

	s.log.Record(ctx, domain.ActivityCommentAdded,
		fmt.Sprintf("Comment added to bug '%s'", bug.Title), user, bug.Project, &bug.ID)

	s.notifier.Notify(ctx, bug.Project.ID, domain.NotifyCommentAdded, domain.CommentNotification{
		CommentID:      comment.ID,
		BugID:          bug.ID,
		BugTitle:       bug.Title,
		CommentMessage: comment.Message,
		Commenter:      user.Username,
		ProjectName:    bug.Project.Name,
		Recipients:     bug.NotificationRecipients(),
	})

	return s.comments.Get(ctx, comment.ID)
}

// Update replaces the message. Only the commenter may edit.
func (s *Comments) Update(ctx context.Context, user domain.User, id int64, req domain.UpdateCommentRequest, partial bool) (domain.Comment, error) {
	comment, err := s.Get(ctx, user, id)
	if err != nil {
		return domain.Comment{}, err
	}
	if !comment.CanEdit(user.ID) {
		return domain.Comment{}, domain.ErrForbidden.WithMessage("only the commenter can edit this comment")
	}

	if req.Message == nil {
		if partial {
			return comment, nil
		}
		return domain.Comment{}, domain.ErrBadRequest.WithMessage("comment_message: this field is required")
	}
	if comment.Message, err = validateMessage(*req.Message); err != nil {
		return domain.Comment{}, err
	}

	if err := s.comments.Update(ctx, &comment); err != nil {
		slog.Error("failed to update comment", "comment_id", id, "error", err)
		return domain.Comment{}, err
	}
	return s.comments.Get(ctx, id)
}

// Delete removes the comment when the user wrote it or owns the project.
func (s *Comments) Delete(ctx context.Context, user domain.User, id int64) error {
	comment, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if !comment.CanEdit(user.ID) {
		project, err := s.projects.Get(ctx, comment.ProjectID)
		if err != nil {
			return err
		}
		if project.Owner.ID != user.ID {
			return domain.ErrForbidden.WithMessage("only the commenter or the project owner can delete this comment")
		}
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		slog.Error("failed to delete comment", "comment_id", id, "error", err)
		return err
	}
	slog.Info("comment deleted", "comment_id", id, "deleted_by", user.Username)
	return nil
}
