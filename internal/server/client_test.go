package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/bugtracker/internal/config"
	"github.com/Tyrowin/bugtracker/internal/domain"
)

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    InboundMessage
		problem string
	}{
		{name: "ping", raw: `{"type":"ping"}`, want: InboundMessage{Type: "ping"}},
		{name: "with message", raw: `{"type":"test_message","message":"hi"}`, want: InboundMessage{Type: "test_message", Message: "hi"}},
		{name: "non-string message", raw: `{"type":"test_message","message":42}`, want: InboundMessage{Type: "test_message", Message: "42"}},
		{name: "broken json", raw: `{"type":`, problem: "Invalid JSON format"},
		{name: "array", raw: `["ping"]`, problem: "Message data must be a dictionary"},
		{name: "null", raw: `null`, problem: "Message data must be a dictionary"},
		{name: "missing type", raw: `{"message":"hi"}`, problem: "Missing required field: type"},
		{name: "non-string type", raw: `{"type":5}`, problem: "Invalid message type: 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, problem := parseInbound([]byte(tt.raw))
			assert.Equal(t, tt.problem, problem)
			if tt.problem == "" {
				assert.Equal(t, tt.want, msg)
			}
		})
	}
}

func TestConsumersAcceptTheirOwnTypes(t *testing.T) {
	tracker := TrackerConsumer{}
	project := NewProjectConsumer(1, NewHub())

	for _, typ := range []string{TypePing, TypeTestMessage} {
		assert.True(t, tracker.Accepts(typ), typ)
	}
	for _, typ := range []string{TypeTypingStart, TypeTypingStop, TypeTestProjectMessage, "join_project_room"} {
		assert.False(t, tracker.Accepts(typ), typ)
	}

	for _, typ := range []string{TypeTypingStart, TypeTypingStop, TypePing, TypeTestProjectMessage} {
		assert.True(t, project.Accepts(typ), typ)
	}
	assert.False(t, project.Accepts(TypeTestMessage))
}

func TestProcessMessageReportsProblems(t *testing.T) {
	hub := startHub(t)
	client := detachedClient(t, hub, TrackerConsumer{}, domain.User{ID: 1, Username: "alice"})
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.False(t, client.processMessage([]byte(`not json`)))
	frame := receive(t, client)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "Invalid JSON format", frame["message"])

	assert.False(t, client.processMessage([]byte(`{"type":"typing_start"}`)))
	assert.Equal(t, "Invalid message type: typing_start", receive(t, client)["message"])

	assert.True(t, client.processMessage([]byte(`{"type":"test_message","message":"hello"}`)))
	frame = receive(t, client)
	assert.Equal(t, "test_response", frame["type"])
	assert.Equal(t, "Received test message: hello", frame["message"])
	assert.Equal(t, "alice", frame["user"])
	assert.NotEmpty(t, frame["timestamp"])
}

type failingLayer struct{}

func (failingLayer) GroupSend(context.Context, GroupMessage) error {
	return errors.New("layer unavailable")
}

func TestProcessMessageInternalError(t *testing.T) {
	hub := startHub(t)
	client := detachedClient(t, hub, NewProjectConsumer(4, failingLayer{}), domain.User{ID: 1})
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	assert.False(t, client.processMessage([]byte(`{"type":"typing_start"}`)))
	frame := receive(t, client)
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "Internal server error", frame["message"])
}

func TestNewClientBindsConsumerGroup(t *testing.T) {
	hub := NewHub()
	user := domain.User{ID: 9, Username: "zoe"}

	client := NewClient(nil, hub, NewProjectConsumer(12, hub), user, "127.0.0.1:1", config.Default().Server)
	assert.Equal(t, "project_12", client.Group())
	assert.Equal(t, user, client.User())
	assert.NotEmpty(t, client.ID())
	assert.NotNil(t, client.GetSendChan())

	general := NewClient(nil, hub, TrackerConsumer{}, user, "127.0.0.1:1", config.Default().Server)
	assert.Empty(t, general.Group())
	assert.NotEqual(t, client.ID(), general.ID())
}

func TestRateLimiter(t *testing.T) {
	limiter := newRateLimiter(3, time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow(), "message %d", i)
	}
	assert.False(t, limiter.Allow())

	// Invalid settings fall back to one message per second.
	fallback := newRateLimiter(0, 0)
	assert.True(t, fallback.Allow())
	assert.False(t, fallback.Allow())
}

func TestOriginPolicy(t *testing.T) {
	policy := newOriginPolicy([]string{" http://Example.com ", "not a url", "", "https://app.example.com:8443"})

	tests := []struct {
		origin string
		want   bool
	}{
		{"http://example.com", true},
		{"HTTP://EXAMPLE.COM", true},
		{"https://app.example.com:8443", true},
		{"https://example.com", false},
		{"http://evil.com", false},
		{"", false},
		{"garbage", false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/ws/tracker", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, policy.allows(req), "origin %q", tt.origin)
	}

	all := newOriginPolicy([]string{"*"})
	req := httptest.NewRequest("GET", "/ws/tracker", nil)
	req.Header.Set("Origin", "http://anything.example")
	assert.True(t, all.checkOrigin(req))

	req.Header.Del("Origin")
	assert.False(t, all.checkOrigin(req))
}

func TestProjectGroup(t *testing.T) {
	require.Equal(t, "project_42", ProjectGroup(42))
}
