// Package service holds the tracker's business rules: who may see and
// change what, input validation, the activity log and real-time
// notifications.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Tyrowin/bugtracker/internal/domain"
	"github.com/Tyrowin/bugtracker/internal/repository"
)

const maxTitleLength = 200

// Notifier pushes events to the members of a project room.
type Notifier interface {
	Notify(ctx context.Context, projectID int64, notificationType string, data any)
	StreamActivity(ctx context.Context, activity domain.Activity)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, int64, string, any) {}

func (NopNotifier) StreamActivity(context.Context, domain.Activity) {}

// ActivityLog records activities and streams them to the project room.
// Recording is best-effort: a failure is logged and never fails the
// operation that triggered it.
type ActivityLog struct {
	repo     repository.ActivityRepository
	notifier Notifier
}

func NewActivityLog(repo repository.ActivityRepository, notifier Notifier) *ActivityLog {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ActivityLog{repo: repo, notifier: notifier}
}

func (l *ActivityLog) Record(ctx context.Context, typ domain.ActivityType, description string,
	user domain.User, project domain.ProjectRef, bugID *int64) {
	activity := domain.Activity{
		Type:        typ,
		Description: description,
		User:        user,
		Project:     project,
		BugID:       bugID,
	}
	if err := l.repo.Create(ctx, &activity); err != nil {
		slog.Error("failed to create activity log",
			"activity_type", typ,
			"project_id", project.ID,
			"error", err)
		return
	}

	slog.Debug("activity recorded",
		"activity_id", activity.ID,
		"activity_type", typ,
		"project_id", project.ID)

	l.notifier.StreamActivity(ctx, activity)
}

func validateTitle(field, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.ErrBadRequest.WithMessage(field + ": this field may not be blank")
	}
	if len([]rune(title)) > maxTitleLength {
		return "", domain.ErrBadRequest.WithMessage(field + ": ensure this field has no more than 200 characters")
	}
	return title, nil
}

// requireAccess returns ErrNotFound when the project does not exist or is
// invisible to the user.
func requireAccess(ctx context.Context, projects repository.ProjectRepository, projectID, userID int64) error {
	ok, err := projects.HasAccess(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}
