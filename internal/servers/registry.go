// Package servers keeps the list of Rocket.Chat servers and turns
// "add/open server" requests into persisted entries and UI events.
package servers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/matt0x6f/rocketchat-desktop/internal/events"
	"github.com/matt0x6f/rocketchat-desktop/internal/logger"
	"github.com/matt0x6f/rocketchat-desktop/internal/storage"
	"github.com/matt0x6f/rocketchat-desktop/internal/validation"
)

// ErrInvalidOrigin is returned for origins the registry cannot open
var ErrInvalidOrigin = errors.New("invalid server origin")

// Store is the persistence the registry needs
type Store interface {
	UpsertServer(url string) (*storage.Server, bool, error)
	GetServers() ([]storage.Server, error)
	DeleteServer(url string) error
}

// Registry accepts server origins from links and the UI.
// Requests made before Ready are held and replayed in arrival order.
type Registry struct {
	store    Store
	eventBus *events.EventBus

	mu      sync.Mutex
	ready   bool
	pending []string
}

// NewRegistry creates a registry backed by store that announces changes on eventBus
func NewRegistry(store Store, eventBus *events.EventBus) *Registry {
	return &Registry{
		store:    store,
		eventBus: eventBus,
	}
}

// AddServer registers origin, logging instead of returning failures
func (r *Registry) AddServer(origin string) {
	r.mu.Lock()
	if !r.ready {
		r.pending = append(r.pending, origin)
		r.mu.Unlock()
		logger.Log.Debug().Str("origin", origin).Msg("UI not ready, queueing server")
		return
	}
	defer r.mu.Unlock()

	if _, err := r.register(origin, events.EventSourceProtocol); err != nil {
		logger.Log.Warn().Err(err).Str("origin", origin).Msg("Failed to add server")
	}
}

// Register validates and stores origin and returns the stored server.
// It is used for requests coming from the UI, which wants the error back.
func (r *Registry) Register(origin string) (*storage.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(origin, events.EventSourceUI)
}

// Ready marks the UI as able to receive servers and flushes queued requests
func (r *Registry) Ready() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready {
		return
	}
	r.ready = true

	pending := r.pending
	r.pending = nil
	if len(pending) > 0 {
		logger.Log.Info().Int("count", len(pending)).Msg("Adding queued servers")
	}
	for _, origin := range pending {
		if _, err := r.register(origin, events.EventSourceProtocol); err != nil {
			logger.Log.Warn().Err(err).Str("origin", origin).Msg("Failed to add queued server")
		}
	}
}

// Pending returns the origins waiting for Ready
func (r *Registry) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pending...)
}

// Servers returns all known servers
func (r *Registry) Servers() ([]storage.Server, error) {
	return r.store.GetServers()
}

// RemoveServer deletes a server
func (r *Registry) RemoveServer(origin string) error {
	url := Normalize(origin)
	if err := r.store.DeleteServer(url); err != nil {
		return fmt.Errorf("failed to remove server %s: %w", url, err)
	}
	r.eventBus.EmitSync(events.NewEvent(events.EventServerRemoved, events.EventSourceUI, map[string]interface{}{
		"url": url,
	}))
	return nil
}

// register must be called with r.mu held; holding it keeps events in request order
func (r *Registry) register(origin string, source events.EventSource) (*storage.Server, error) {
	if err := validation.ValidateServerOrigin(origin); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}

	url := Normalize(origin)
	server, created, err := r.store.UpsertServer(url)
	if err != nil {
		return nil, err
	}

	eventType := events.EventServerActivated
	if created {
		eventType = events.EventServerAdded
		logger.Log.Info().Str("url", url).Msg("Server added")
	} else {
		logger.Log.Debug().Str("url", url).Msg("Server activated")
	}

	r.eventBus.EmitSync(events.NewEvent(eventType, source, map[string]interface{}{
		"id":    server.ID,
		"url":   server.URL,
		"title": server.Title,
		"path":  ProxyPath(server.ID),
	}))
	return server, nil
}

// Normalize trims whitespace and trailing slashes so equivalent origins share one entry
func Normalize(origin string) string {
	return strings.TrimRight(strings.TrimSpace(origin), "/")
}
