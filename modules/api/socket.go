package api

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	domain "github.com/tyumu/Roamloid/domain/user"
	"github.com/tyumu/Roamloid/modules/presence"
	"github.com/tyumu/Roamloid/modules/room"
)

// inboundEvent is the wire shape of every client emission.
type inboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// joinRoomPayload is the client payload of the join_room event.
type joinRoomPayload struct {
	DeviceName string `json:"device_name"`
}

// movePayload asks for the active-in-3D flag to move to another device.
type movePayload struct {
	ToDeviceName string `json:"to_device_name"`
}

// sendDataPayload is the client payload of the send_data event. Msg is a
// pointer: an absent message is rejected, an empty string is not.
type sendDataPayload struct {
	DeviceName string       `json:"device_name"`
	Msg        *string      `json:"msg"`
	Move       *movePayload `json:"move"`
}

type joinedData struct {
	DeviceName string `json:"device_name"`
}

type receiveData struct {
	DeviceName string `json:"device_name"`
	Text       string `json:"text"`
}

type movedData struct {
	ToDeviceName string `json:"to_device_name"`
}

type errorData struct {
	Msg string `json:"msg"`
}

type systemData struct {
	Message string `json:"message"`
}

// socketSession is the per-connection state handed to event handlers.
type socketSession struct {
	client *presence.Client
	userID string
	hub    *presence.Hub
	rooms  room.RoomPort
}

// emit sends an event to this session's connection only. Going through
// the client keeps emissions and broadcasts on one write lock.
func (s *socketSession) emit(event string, data any) {
	if err := s.client.Send(event, data); err != nil {
		log.Printf("[api] Failed to emit %s to client %s: %v", event, s.client.ID, err)
	}
}

// socketHandler processes one client event.
type socketHandler func(s *socketSession, data json.RawMessage)

// socketHandlers is the dispatch table keyed by event name.
func (m *APIModule) socketHandlers() map[string]socketHandler {
	return map[string]socketHandler{
		"join_room": m.handleJoinRoom,
		"send_data": m.handleSendData,
	}
}

// handleSocket runs the read loop for one authenticated connection.
func (m *APIModule) handleSocket(c *websocket.Conn) {
	claims, valid := c.Locals(UserContextKey).(*domain.Claims)
	if !valid {
		_ = c.Close()
		return
	}

	client := &presence.Client{
		ID:     uuid.New().String(),
		UserID: claims.UserID,
		Conn:   c,
	}
	session := &socketSession{
		client: client,
		userID: claims.UserID,
		hub:    m.hub,
		rooms:  m.roomAdapter,
	}

	m.hub.Register(client)
	defer func() {
		m.hub.Unregister(client)
		log.Printf("[api] Socket client disconnected: %s (%s)", client.ID, claims.Username)
	}()

	log.Printf("[api] Socket client connected: %s (%s)", client.ID, claims.Username)
	session.emit("system", systemData{Message: "connected"})

	handlers := m.socketHandlers()
	for {
		_, msgBytes, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[api] Client %s closed connection", client.ID)
			} else {
				log.Printf("[api] Read error from %s: %v", client.ID, err)
			}
			break
		}

		var evt inboundEvent
		if err := json.Unmarshal(msgBytes, &evt); err != nil {
			session.emit("error", errorData{Msg: "invalid event format"})
			continue
		}

		handler, known := handlers[evt.Event]
		if !known {
			session.emit("error", errorData{Msg: "unknown event: " + evt.Event})
			continue
		}

		dispatch(session, handler, evt.Data)
	}
}

// dispatch runs one handler, converting a panic into an error emission
// instead of dropping the connection.
func dispatch(s *socketSession, handler socketHandler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[api] Recovered socket handler panic: %v", r)
			s.emit("error", errorData{Msg: "internal error"})
		}
	}()
	handler(s, data)
}

// handleJoinRoom registers the caller's device and joins the caller's
// presence group. Idempotent across repeated calls for the same device.
func (m *APIModule) handleJoinRoom(s *socketSession, data json.RawMessage) {
	var payload joinRoomPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			s.emit("error", errorData{Msg: room.ErrDeviceNameRequired.Error()})
			return
		}
	}

	if s.userID == "" || payload.DeviceName == "" {
		s.emit("error", errorData{Msg: room.ErrDeviceNameRequired.Error()})
		return
	}

	if _, err := s.rooms.JoinDevice(context.Background(), s.userID, payload.DeviceName); err != nil {
		log.Printf("[api] join_room failed for user %s: %v", s.userID, err)
		s.emit("error", errorData{Msg: "failed to join room"})
		return
	}

	s.hub.Join(s.userID, s.client)
	s.emit("joined", joinedData{DeviceName: payload.DeviceName})
}

// handleSendData logs a chat message, applies an optional move of the
// active-in-3D flag and broadcasts the results to the caller's group.
func (m *APIModule) handleSendData(s *socketSession, data json.RawMessage) {
	var payload sendDataPayload
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			s.emit("error", errorData{Msg: room.ErrMessageRequired.Error()})
			return
		}
	}

	if payload.Msg == nil {
		s.emit("error", errorData{Msg: room.ErrMessageRequired.Error()})
		return
	}

	req := room.SendDataRequest{
		UserID:     s.userID,
		DeviceName: payload.DeviceName,
		Text:       *payload.Msg,
	}
	if payload.Move != nil {
		req.ToDeviceName = payload.Move.ToDeviceName
	}

	result, err := s.rooms.SendData(context.Background(), req)
	if err != nil {
		if strings.Contains(err.Error(), room.ErrDeviceNotFound.Error()) {
			s.emit("error", errorData{Msg: "device not found. join_room first."})
			return
		}
		log.Printf("[api] send_data failed for user %s: %v", s.userID, err)
		s.emit("error", errorData{Msg: "internal error"})
		return
	}

	if result.Moved {
		s.hub.Broadcast(s.userID, "moved_3d", movedData{ToDeviceName: result.ToDeviceName})
	}
	s.hub.Broadcast(s.userID, "receive_data", receiveData{
		DeviceName: payload.DeviceName,
		Text:       *payload.Msg,
	})
}
