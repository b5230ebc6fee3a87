package presence

import (
	"context"
	"log"

	"github.com/go-monolith/mono"
)

// PresenceModule owns the in-memory presence hub. The hub instance is
// injected into the API module from main.
type PresenceModule struct {
	hub *Hub
}

// Compile-time interface checks.
var _ mono.Module = (*PresenceModule)(nil)
var _ mono.HealthCheckableModule = (*PresenceModule)(nil)

// NewModule creates a new PresenceModule.
func NewModule() *PresenceModule {
	return &PresenceModule{
		hub: NewHub(),
	}
}

// Name returns the module name.
func (m *PresenceModule) Name() string {
	return "presence"
}

// GetHub returns the hub instance for injection into other modules.
func (m *PresenceModule) GetHub() *Hub {
	return m.hub
}

// Start initializes the module.
func (m *PresenceModule) Start(_ context.Context) error {
	log.Println("[presence] Module started")
	return nil
}

// Stop closes all live connections.
func (m *PresenceModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	m.hub.CloseAll()
	log.Printf("[presence] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *PresenceModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}
