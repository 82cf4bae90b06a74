package server

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Outbound frame types.
const (
	TypeConnectionEstablished = "connection_established"
	TypePong                  = "pong"
	TypeError                 = "error"
	TypeTestResponse          = "test_response"
	TypeTestProjectResponse   = "test_project_response"
	TypeTypingIndicator       = "typing_indicator"
	TypeNotification          = "notification"
	TypeActivityUpdate        = "activity_update"
)

// Inbound frame types.
const (
	TypePing               = "ping"
	TypeTestMessage        = "test_message"
	TypeTypingStart        = "typing_start"
	TypeTypingStop         = "typing_stop"
	TypeTestProjectMessage = "test_project_message"
)

// Error texts sent back to a client in an error frame.
const (
	errInvalidJSON    = "Invalid JSON format"
	errNotAnObject    = "Message data must be a dictionary"
	errMissingType    = "Missing required field: type"
	errInternalServer = "Internal server error"
)

// GroupMessage is a payload addressed to every client in a group. Clients
// authenticated as ExcludeUserID are skipped; zero excludes nobody.
type GroupMessage struct {
	Group         string          `json:"group"`
	Payload       json.RawMessage `json:"payload"`
	ExcludeUserID int64           `json:"exclude_user_id,omitempty"`
}

// InboundMessage is a validated frame received from a client.
type InboundMessage struct {
	Type    string
	Message string
}

type connectionEstablished struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ProjectID int64  `json:"project_id,omitempty"`
	User      string `json:"user"`
}

type pongEvent struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type testResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	ProjectID int64  `json:"project_id,omitempty"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}

type typingIndicator struct {
	Type     string `json:"type"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

type notificationEvent struct {
	Type             string `json:"type"`
	NotificationType string `json:"notification_type"`
	Data             any    `json:"data"`
}

type activityEvent struct {
	Type         string `json:"type"`
	ActivityData any    `json:"activity_data"`
}

// ProjectGroup returns the group name shared by every client of a project room.
func ProjectGroup(projectID int64) string {
	return "project_" + strconv.FormatInt(projectID, 10)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
