package chathub_test

import (
	"chachat/backend/internal/models"
	"sync"
)

// MockClient records every event sent to it.
type MockClient struct {
	connID models.ConnectionID

	mu     sync.Mutex
	events []models.Event
	closed bool
	full   bool
}

func newMockClient(connID string) *MockClient {
	id, err := models.ParseConnectionID(connID)
	if err != nil {
		panic(err)
	}
	return &MockClient{connID: id}
}

func (c *MockClient) GetConnectionID() models.ConnectionID { return c.connID }
func (c *MockClient) GetLanguage() string                  { return "en" }

func (c *MockClient) Send(event models.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.full {
		return false
	}
	c.events = append(c.events, event)
	return true
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) Events() []models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Event(nil), c.events...)
}
