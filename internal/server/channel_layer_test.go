package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/bugtracker/internal/domain"
)

func newRedisLayer(t *testing.T, hub *Hub) (*RedisLayer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	layer := NewRedisLayer(client, "tracker", hub)
	require.NoError(t, layer.Start(context.Background()))
	t.Cleanup(func() { _ = layer.Close() })
	return layer, mr
}

func TestRedisLayerDeliversThroughLocalHub(t *testing.T) {
	hub := startHub(t)
	layer, _ := newRedisLayer(t, hub)

	alice := domain.User{ID: 1, Username: "alice"}
	bob := domain.User{ID: 2, Username: "bob"}
	aliceClient := detachedClient(t, hub, NewProjectConsumer(5, layer), alice)
	bobClient := detachedClient(t, hub, NewProjectConsumer(5, layer), bob)

	require.NoError(t, layer.GroupSend(context.Background(), GroupMessage{
		Group:         ProjectGroup(5),
		Payload:       json.RawMessage(`{"type":"typing_indicator","user_id":1}`),
		ExcludeUserID: alice.ID,
	}))

	frame := receive(t, bobClient)
	assert.Equal(t, "typing_indicator", frame["type"])
	expectNothing(t, aliceClient)
}

func TestRedisLayerAcceptsForeignPublishers(t *testing.T) {
	hub := startHub(t)
	layer, mr := newRedisLayer(t, hub)
	client := detachedClient(t, hub, NewProjectConsumer(6, layer), domain.User{ID: 1})

	// Another instance publishing on the same prefix.
	mr.Publish("tracker:project_6", `{"payload":{"type":"notification"}}`)
	assert.Equal(t, "notification", receive(t, client)["type"])

	// Malformed payloads are skipped without stopping the subscription.
	mr.Publish("tracker:project_6", `{`)
	mr.Publish("tracker:project_6", `{"group":"project_6","payload":{"type":"activity_update"}}`)
	assert.Equal(t, "activity_update", receive(t, client)["type"])
}

func TestRedisLayerCloseIsIdempotent(t *testing.T) {
	hub := startHub(t)
	layer, _ := newRedisLayer(t, hub)

	require.NoError(t, layer.Close())
	assert.NoError(t, layer.Close())
}

func TestNewRedisClientErrors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url")
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisClient(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}
