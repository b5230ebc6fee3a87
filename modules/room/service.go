package room

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/tyumu/Roamloid/domain/room"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrDeviceNameRequired is returned when a join request carries no device name.
	ErrDeviceNameRequired = errors.New("user_id and device_name required.")
	// ErrMessageRequired is returned when send data carries no message.
	ErrMessageRequired = errors.New("message is required.")
)

// userLocks hands out one mutex per user id. The clear-then-set pair in
// a move is not atomic on its own; all writes for one user go through
// that user's mutex so concurrent moves serialize.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *userLocks) get(userID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[userID] = lock
	}
	return lock
}

// SendResult reports what a send-data call did besides persisting the message.
type SendResult struct {
	Moved        bool
	ToDeviceName string
}

// RoomService implements the room event semantics: lazy device
// registration, message logging and exclusive active-device tracking.
type RoomService struct {
	db    *gorm.DB
	locks *userLocks
}

// NewRoomService creates a new RoomService.
func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{
		db:    db,
		locks: newUserLocks(),
	}
}

// JoinDevice looks up the device by (owner, name) and creates it with
// active_in_3d = false when absent. Idempotent: repeat calls with the
// same name insert nothing.
func (s *RoomService) JoinDevice(_ context.Context, ownerID, deviceName string) (*domain.Device, error) {
	if ownerID == "" || deviceName == "" {
		return nil, ErrDeviceNameRequired
	}

	lock := s.locks.get(ownerID)
	lock.Lock()
	defer lock.Unlock()

	var device *domain.Device
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := NewDeviceRepository(tx)
		found, err := repo.FindByOwnerAndName(ownerID, deviceName)
		if err == nil {
			device = found
			return nil
		}
		if !errors.Is(err, ErrDeviceNotFound) {
			return err
		}

		now := time.Now()
		device = &domain.Device{
			ID:         uuid.New().String(),
			OwnerID:    ownerID,
			Name:       deviceName,
			ActiveIn3D: false,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return repo.Create(device)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join device: %w", err)
	}
	return device, nil
}

// SendData persists one chat message for (owner, device) and, when
// toDeviceName is set, re-points the exclusive active-in-3D flag at the
// target device. All writes commit in a single transaction under the
// owner's lock; partial state is never visible.
//
// The sender's device must already exist (created via JoinDevice);
// otherwise ErrDeviceNotFound is returned and nothing is persisted. A
// move whose target does not exist silently no-ops: the message is
// still saved, no flag changes, Moved stays false.
func (s *RoomService) SendData(_ context.Context, ownerID, deviceName, text, toDeviceName string) (*SendResult, error) {
	lock := s.locks.get(ownerID)
	lock.Lock()
	defer lock.Unlock()

	result := &SendResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		devices := NewDeviceRepository(tx)
		messages := NewMessageRepository(tx)

		device, err := devices.FindByOwnerAndName(ownerID, deviceName)
		if err != nil {
			return err
		}

		msg := &domain.ChatMessage{
			ID:        uuid.New().String(),
			UserID:    ownerID,
			DeviceID:  device.ID,
			Text:      text,
			CreatedAt: time.Now(),
		}
		if err := messages.Create(msg); err != nil {
			return err
		}

		if toDeviceName == "" {
			return nil
		}

		// A move to an unknown device no-ops without touching any flag.
		if _, err := devices.FindByOwnerAndName(ownerID, toDeviceName); err != nil {
			if errors.Is(err, ErrDeviceNotFound) {
				return nil
			}
			return err
		}

		// Clear-then-set keeps at most one device active per owner.
		if err := devices.ClearActive(ownerID); err != nil {
			return err
		}
		moved, err := devices.SetActive(ownerID, toDeviceName)
		if err != nil {
			return err
		}
		result.Moved = moved
		result.ToDeviceName = toDeviceName
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDeviceNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to send data: %w", err)
	}
	return result, nil
}

// ActiveDeviceCount returns how many of the owner's devices are active in 3D.
func (s *RoomService) ActiveDeviceCount(_ context.Context, ownerID string) (int64, error) {
	return NewDeviceRepository(s.db).CountActive(ownerID)
}
