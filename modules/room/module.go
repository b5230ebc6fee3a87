package room

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	domain "github.com/tyumu/Roamloid/domain/room"
	"gorm.io/gorm"
)

// RoomModule provides device registration, message logging and
// active-device tracking over the shared database.
type RoomModule struct {
	db      *gorm.DB
	service *RoomService
}

// Compile-time interface checks.
var _ mono.Module = (*RoomModule)(nil)
var _ mono.ServiceProviderModule = (*RoomModule)(nil)
var _ mono.HealthCheckableModule = (*RoomModule)(nil)

// NewModule creates a new RoomModule backed by the shared database.
func NewModule(db *gorm.DB) *RoomModule {
	return &RoomModule{
		db: db,
	}
}

// Name returns the module name.
func (m *RoomModule) Name() string {
	return "room"
}

// Start initializes the room module.
func (m *RoomModule) Start(_ context.Context) error {
	if err := m.db.AutoMigrate(&domain.Device{}, &domain.ChatMessage{}, &domain.Room{}); err != nil {
		return fmt.Errorf("failed to migrate room tables: %w", err)
	}

	m.service = NewRoomService(m.db)

	log.Println("[room] Module started")
	return nil
}

// Stop shuts down the module. The shared database is closed by main.
func (m *RoomModule) Stop(_ context.Context) error {
	log.Println("[room] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *RoomModule) Health(_ context.Context) mono.HealthStatus {
	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}
	if err := sqlDB.Ping(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *RoomModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container,
		"join-device",
		json.Unmarshal,
		json.Marshal,
		m.handleJoinDevice,
	); err != nil {
		return fmt.Errorf("failed to register join-device service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container,
		"send-data",
		json.Unmarshal,
		json.Marshal,
		m.handleSendData,
	); err != nil {
		return fmt.Errorf("failed to register send-data service: %w", err)
	}

	log.Printf("[room] Registered services: join-device, send-data")
	return nil
}

// handleJoinDevice registers (or looks up) a device for its owner.
func (m *RoomModule) handleJoinDevice(ctx context.Context, req JoinDeviceRequest, _ *mono.Msg) (JoinDeviceResponse, error) {
	device, err := m.service.JoinDevice(ctx, req.UserID, req.DeviceName)
	if err != nil {
		return JoinDeviceResponse{}, err
	}

	return JoinDeviceResponse{
		DeviceID:   device.ID,
		DeviceName: device.Name,
	}, nil
}

// handleSendData logs a chat message and applies an optional move.
func (m *RoomModule) handleSendData(ctx context.Context, req SendDataRequest, _ *mono.Msg) (SendDataResponse, error) {
	result, err := m.service.SendData(ctx, req.UserID, req.DeviceName, req.Text, req.ToDeviceName)
	if err != nil {
		return SendDataResponse{}, err
	}

	return SendDataResponse{
		Moved:        result.Moved,
		ToDeviceName: result.ToDeviceName,
	}, nil
}
