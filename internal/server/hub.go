package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrHubClosed is returned when an operation reaches a hub that has shut down.
var ErrHubClosed = errors.New("hub is shut down")

// Hub owns every connected client and the group memberships derived from
// their rooms. A single event loop serializes registration, unregistration
// and group delivery; deliveries never block the loop, a client whose send
// buffer is full is dropped instead.
//
// Hub is also the in-process ChannelLayer.
type Hub struct {
	clients    map[*Client]struct{}
	groups     map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan GroupMessage
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a hub. Call Run in its own goroutine before registering clients.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]struct{}),
		groups:     make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan GroupMessage),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Register hands the client to the event loop, which joins it to its group
// and starts its pumps.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// Unregister removes the client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// GroupSend queues msg for delivery to the group's local members.
func (h *Hub) GroupSend(ctx context.Context, msg GroupMessage) error {
	select {
	case h.deliver <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// GroupSize returns the number of registered clients in the group.
func (h *Hub) GroupSize(group string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("recovered from panic in safeSend", "panic", r)
		}
	}()

	// The channel is only closed after the client leaves the map under the
	// write lock, so holding the read lock for the send keeps it open.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if _, exists := h.clients[client]; !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's event loop. It returns after Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				slog.Warn("received nil client registration; skipping")
				continue
			}
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClients([]*Client{client}, "client unregistered")

		case msg := <-h.deliver:
			h.handleGroupSend(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mutex.Lock()
	client.closed = false
	h.clients[client] = struct{}{}
	if client.group != "" {
		members, ok := h.groups[client.group]
		if !ok {
			members = make(map[*Client]struct{})
			h.groups[client.group] = members
		}
		members[client] = struct{}{}
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	slog.Info("client registered",
		"client_id", client.id,
		"user", client.user.Username,
		"group", client.group,
		"addr", client.addr,
		"clients", clientCount)

	if client.conn == nil {
		return
	}
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

func (h *Hub) handleGroupSend(msg GroupMessage) {
	members := h.groupSnapshot(msg.Group)
	if len(members) == 0 {
		return
	}

	var failed []*Client
	for _, client := range members {
		if msg.ExcludeUserID != 0 && client.user.ID == msg.ExcludeUserID {
			continue
		}
		if !h.safeSend(client, msg.Payload) {
			failed = append(failed, client)
		}
	}
	h.removeClients(failed, "client removed due to full send buffer")
}

func (h *Hub) groupSnapshot(group string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	members := make([]*Client, 0, len(h.groups[group]))
	for client := range h.groups[group] {
		members = append(members, client)
	}
	return members
}

// removeClients drops the clients from the hub and closes their send channels.
func (h *Hub) removeClients(clients []*Client, reason string) {
	if len(clients) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clients {
		if _, exists := h.clients[client]; !exists {
			continue
		}
		delete(h.clients, client)
		if members, ok := h.groups[client.group]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.groups, client.group)
			}
		}
		client.closed = true
		channelsToClose = append(channelsToClose, client.send)
		slog.Info(reason, "client_id", client.id, "user", client.user.Username, "group", client.group)
	}
	clientCount := len(h.clients)
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
	slog.Debug("hub clients", "clients", clientCount)
}

func (h *Hub) shutdownClients() {
	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			slog.Error("error closing client connection", "client_id", client.id, "error", err)
		}
	}

	slog.Info("closed client connections", "count", len(clients))
}

// Shutdown stops the event loop, closes every connection and waits for the
// client goroutines, giving up after timeout.
func (h *Hub) Shutdown(timeout time.Duration) error {
	slog.Info("initiating hub shutdown")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		slog.Warn("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
