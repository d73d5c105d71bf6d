package servers

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt0x6f/rocketchat-desktop/internal/events"
	"github.com/matt0x6f/rocketchat-desktop/internal/storage"
)

type memoryStore struct {
	servers []storage.Server
	fail    error
}

func (m *memoryStore) UpsertServer(url string) (*storage.Server, bool, error) {
	if m.fail != nil {
		return nil, false, m.fail
	}
	now := time.Now()
	for i := range m.servers {
		if m.servers[i].URL == url {
			m.servers[i].LastActivatedAt = &now
			s := m.servers[i]
			return &s, false, nil
		}
	}
	s := storage.Server{ID: int64(len(m.servers) + 1), URL: url, CreatedAt: now, LastActivatedAt: &now}
	m.servers = append(m.servers, s)
	return &s, true, nil
}

func (m *memoryStore) GetServers() ([]storage.Server, error) {
	return m.servers, nil
}

func (m *memoryStore) DeleteServer(url string) error {
	for i := range m.servers {
		if m.servers[i].URL == url {
			m.servers = append(m.servers[:i], m.servers[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) OnEvent(e events.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) summary() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type + " " + e.Data["url"].(string)
	}
	return out
}

func newTestRegistry(t *testing.T) (*Registry, *memoryStore, *eventLog) {
	t.Helper()
	store := &memoryStore{}
	bus := events.NewEventBus()
	log := &eventLog{}
	bus.Subscribe("*", log)
	return NewRegistry(store, bus), store, log
}

func TestAddServerQueuesUntilReady(t *testing.T) {
	registry, store, log := newTestRegistry(t)

	registry.AddServer("https://b.example.com")
	registry.AddServer("http://a.example.com")

	assert.Empty(t, store.servers)
	assert.Empty(t, log.summary())
	assert.Equal(t, []string{"https://b.example.com", "http://a.example.com"}, registry.Pending())

	registry.Ready()

	assert.Empty(t, registry.Pending())
	assert.Equal(t, []string{
		"server.added https://b.example.com",
		"server.added http://a.example.com",
	}, log.summary())
}

func TestAddServerAfterReady(t *testing.T) {
	registry, store, log := newTestRegistry(t)
	registry.Ready()

	registry.AddServer("https://open.rocket.chat/")
	registry.AddServer("https://open.rocket.chat")

	require.Len(t, store.servers, 1)
	assert.Equal(t, "https://open.rocket.chat", store.servers[0].URL)
	assert.Equal(t, []string{
		"server.added https://open.rocket.chat",
		"server.activated https://open.rocket.chat",
	}, log.summary())
}

func TestAddServerDropsInvalidOrigins(t *testing.T) {
	registry, store, log := newTestRegistry(t)
	registry.Ready()

	registry.AddServer("https:///channel/general")
	registry.AddServer("")

	assert.Empty(t, store.servers)
	assert.Empty(t, log.summary())
}

func TestReadyIsIdempotent(t *testing.T) {
	registry, _, log := newTestRegistry(t)
	registry.AddServer("https://a.example.com")

	registry.Ready()
	registry.Ready()

	assert.Len(t, log.summary(), 1)
}

func TestRegisterReturnsErrors(t *testing.T) {
	registry, store, _ := newTestRegistry(t)

	_, err := registry.Register("ftp://files.example.com")
	assert.ErrorIs(t, err, ErrInvalidOrigin)

	store.fail = errors.New("disk full")
	_, err = registry.Register("https://a.example.com")
	assert.EqualError(t, err, "disk full")

	store.fail = nil
	server, err := registry.Register(" https://a.example.com/ ")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example.com", server.URL)
}

func TestRemoveServer(t *testing.T) {
	registry, store, log := newTestRegistry(t)
	registry.Ready()
	registry.AddServer("https://a.example.com")

	require.NoError(t, registry.RemoveServer("https://a.example.com/"))
	assert.Empty(t, store.servers)
	assert.Equal(t, "server.removed https://a.example.com", log.summary()[1])

	assert.ErrorIs(t, registry.RemoveServer("https://a.example.com"), storage.ErrNotFound)
}
