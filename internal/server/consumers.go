package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

// Consumer implements the protocol of one kind of room.
type Consumer interface {
	// Group is the group clients of this room join; "" joins none.
	Group() string
	// Welcome is the first frame sent after the connection is accepted.
	Welcome(user domain.User) any
	// Accepts reports whether the room handles the inbound type.
	Accepts(msgType string) bool
	Handle(ctx context.Context, c *Client, msg InboundMessage) error
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// TrackerConsumer serves the general room. It answers pings and test
// messages and joins no group.
type TrackerConsumer struct{}

func (TrackerConsumer) Group() string { return "" }

func (TrackerConsumer) Welcome(user domain.User) any {
	return connectionEstablished{
		Type:    TypeConnectionEstablished,
		Message: "Connected to tracker WebSocket",
		User:    user.Username,
	}
}

func (TrackerConsumer) Accepts(msgType string) bool {
	return msgType == TypePing || msgType == TypeTestMessage
}

func (TrackerConsumer) Handle(_ context.Context, c *Client, msg InboundMessage) error {
	switch msg.Type {
	case TypePing:
		c.Reply(pongEvent{Type: TypePong, Timestamp: timestamp()})
	case TypeTestMessage:
		c.Reply(testResponse{
			Type:      TypeTestResponse,
			Message:   "Received test message: " + msg.Message,
			User:      c.user.Username,
			Timestamp: timestamp(),
		})
	}
	return nil
}

// ProjectConsumer serves a project room: typing indicators are fanned out
// to the project's group through the channel layer.
type ProjectConsumer struct {
	projectID int64
	layer     ChannelLayer
}

func NewProjectConsumer(projectID int64, layer ChannelLayer) *ProjectConsumer {
	return &ProjectConsumer{projectID: projectID, layer: layer}
}

func (p *ProjectConsumer) Group() string { return ProjectGroup(p.projectID) }

func (p *ProjectConsumer) Welcome(user domain.User) any {
	return connectionEstablished{
		Type:      TypeConnectionEstablished,
		Message:   fmt.Sprintf("Connected to project %d", p.projectID),
		ProjectID: p.projectID,
		User:      user.Username,
	}
}

func (p *ProjectConsumer) Accepts(msgType string) bool {
	switch msgType {
	case TypeTypingStart, TypeTypingStop, TypePing, TypeTestProjectMessage:
		return true
	}
	return false
}

func (p *ProjectConsumer) Handle(ctx context.Context, c *Client, msg InboundMessage) error {
	switch msg.Type {
	case TypeTypingStart:
		return p.typing(ctx, c.user, true)
	case TypeTypingStop:
		return p.typing(ctx, c.user, false)
	case TypePing:
		c.Reply(pongEvent{Type: TypePong, Timestamp: timestamp()})
	case TypeTestProjectMessage:
		c.Reply(testResponse{
			Type:      TypeTestProjectResponse,
			Message:   fmt.Sprintf("Received test message in project %d: %s", p.projectID, msg.Message),
			ProjectID: p.projectID,
			User:      c.user.Username,
			Timestamp: timestamp(),
		})
	}
	return nil
}

// typing tells everyone else in the room that the user started or stopped
// typing. The typing user never receives their own indicator.
func (p *ProjectConsumer) typing(ctx context.Context, user domain.User, isTyping bool) error {
	payload, err := json.Marshal(typingIndicator{
		Type:     TypeTypingIndicator,
		UserID:   user.ID,
		Username: user.Username,
		IsTyping: isTyping,
	})
	if err != nil {
		return err
	}

	if err := p.layer.GroupSend(ctx, GroupMessage{
		Group:         p.Group(),
		Payload:       payload,
		ExcludeUserID: user.ID,
	}); err != nil {
		return fmt.Errorf("failed to send typing indicator: %w", err)
	}

	slog.Debug("typing indicator sent", "project_id", p.projectID, "user", user.Username, "is_typing", isTyping)
	return nil
}
