package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

// Notifier publishes service events to project rooms. Failures are logged
// and swallowed; a notification never fails the request that caused it.
type Notifier struct {
	layer ChannelLayer
}

func NewNotifier(layer ChannelLayer) *Notifier {
	return &Notifier{layer: layer}
}

func (n *Notifier) Notify(ctx context.Context, projectID int64, notificationType string, data any) {
	n.send(ctx, projectID, notificationEvent{
		Type:             TypeNotification,
		NotificationType: notificationType,
		Data:             data,
	})
}

func (n *Notifier) StreamActivity(ctx context.Context, activity domain.Activity) {
	n.send(ctx, activity.Project.ID, activityEvent{
		Type:         TypeActivityUpdate,
		ActivityData: activity,
	})
}

func (n *Notifier) send(ctx context.Context, projectID int64, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to encode project event", "project_id", projectID, "error", err)
		return
	}

	// The event outlives the request that caused it.
	ctx = context.WithoutCancel(ctx)
	if err := n.layer.GroupSend(ctx, GroupMessage{Group: ProjectGroup(projectID), Payload: payload}); err != nil {
		slog.Error("failed to send project event", "project_id", projectID, "error", err)
		return
	}
	slog.Debug("project event sent", "project_id", projectID)
}
