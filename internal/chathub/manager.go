package chathub

import (
	"chachat/backend/internal/models"
	"log/slog"
	"sync"
)

// ManagerService tracks open connections and the room groups they joined.
// It implements Broadcaster, so it is built before the room manager.
type ManagerService struct {
	mu      sync.RWMutex
	clients map[models.ConnectionID]Client
	groups  map[models.RoomID]map[models.ConnectionID]struct{}
	logger  *slog.Logger
}

func NewManagerService(logger *slog.Logger) *ManagerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManagerService{
		clients: make(map[models.ConnectionID]Client),
		groups:  make(map[models.RoomID]map[models.ConnectionID]struct{}),
		logger:  logger,
	}
}

func (m *ManagerService) Register(c Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.GetConnectionID()] = c
	m.logger.Debug("client registered", "connection_id", c.GetConnectionID().String())
}

// Unregister forgets the connection and removes it from every room group.
func (m *ManagerService) Unregister(connID models.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.clients, connID)
	for roomID, members := range m.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(m.groups, roomID)
		}
	}
	m.logger.Debug("client unregistered", "connection_id", connID.String())
}

func (m *ManagerService) Client(connID models.ConnectionID) (Client, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[connID]
	return c, ok
}

// Join adds the connection to the room's broadcast group.
func (m *ManagerService) Join(roomID models.RoomID, connID models.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.groups[roomID]
	if !ok {
		members = make(map[models.ConnectionID]struct{})
		m.groups[roomID] = members
	}
	members[connID] = struct{}{}
}

// Leave removes the connection from the room's broadcast group.
func (m *ManagerService) Leave(roomID models.RoomID, connID models.ConnectionID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if members, ok := m.groups[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(m.groups, roomID)
		}
	}
}

// EmitTo sends an event to one connection.
func (m *ManagerService) EmitTo(connID models.ConnectionID, event models.Event) bool {
	c, ok := m.Client(connID)
	if !ok {
		return false
	}
	if !c.Send(event) {
		m.logger.Warn("dropped event for slow or closed client",
			"connection_id", connID.String(), "type", string(event.Type))
		return false
	}
	return true
}

// BroadcastToRoom sends the event to every connection in the room group.
// A roomClosed event also dissolves the group.
func (m *ManagerService) BroadcastToRoom(roomID models.RoomID, event models.Event) {
	m.mu.Lock()
	members := m.groups[roomID]
	targets := make([]Client, 0, len(members))
	for connID := range members {
		if c, ok := m.clients[connID]; ok {
			targets = append(targets, c)
		}
	}
	if event.Type == models.EventRoomClosed {
		delete(m.groups, roomID)
	}
	m.mu.Unlock()

	for _, c := range targets {
		if !c.Send(event) {
			m.logger.Warn("dropped room event",
				"room_id", roomID.String(), "connection_id", c.GetConnectionID().String(), "type", string(event.Type))
		}
	}
}

func (m *ManagerService) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// GroupSize returns how many connections are joined to the room.
func (m *ManagerService) GroupSize(roomID models.RoomID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.groups[roomID])
}

// CloseAll closes every registered client.
func (m *ManagerService) CloseAll() {
	m.mu.RLock()
	clients := make([]Client, 0, len(m.clients))
	for _, c := range m.clients {
		clients = append(clients, c)
	}
	m.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}
