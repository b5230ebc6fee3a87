package room

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// RoomPort defines the interface for room operations used by the socket layer.
type RoomPort interface {
	JoinDevice(ctx context.Context, userID, deviceName string) (*JoinDeviceResponse, error)
	SendData(ctx context.Context, req SendDataRequest) (*SendDataResponse, error)
}

// RoomAdapter implements RoomPort using the service container.
type RoomAdapter struct {
	container mono.ServiceContainer
}

// NewRoomAdapter creates a new RoomAdapter.
func NewRoomAdapter(container mono.ServiceContainer) *RoomAdapter {
	return &RoomAdapter{
		container: container,
	}
}

// JoinDevice registers or looks up a device for the user.
func (a *RoomAdapter) JoinDevice(ctx context.Context, userID, deviceName string) (*JoinDeviceResponse, error) {
	req := JoinDeviceRequest{UserID: userID, DeviceName: deviceName}
	var resp JoinDeviceResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"join-device",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("join-device request failed: %w", err)
	}

	return &resp, nil
}

// SendData logs a chat message and applies an optional move.
func (a *RoomAdapter) SendData(ctx context.Context, req SendDataRequest) (*SendDataResponse, error) {
	var resp SendDataResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		"send-data",
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("send-data request failed: %w", err)
	}

	return &resp, nil
}
