package room

import (
	"errors"

	domain "github.com/tyumu/Roamloid/domain/room"
	"gorm.io/gorm"
)

var (
	// ErrDeviceNotFound is returned when a device is not found for its owner.
	ErrDeviceNotFound = errors.New("device not found")
)

// DeviceRepository handles device persistence using GORM.
type DeviceRepository struct {
	db *gorm.DB
}

// NewDeviceRepository creates a new DeviceRepository. Pass a transaction
// handle to scope all operations to that transaction.
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

// Create saves a new device.
func (r *DeviceRepository) Create(device *domain.Device) error {
	return r.db.Create(device).Error
}

// FindByOwnerAndName retrieves a device by its owner and name.
func (r *DeviceRepository) FindByOwnerAndName(ownerID, name string) (*domain.Device, error) {
	var device domain.Device
	result := r.db.First(&device, "owner_id = ? AND name = ?", ownerID, name)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, result.Error
	}
	return &device, nil
}

// ListByOwner retrieves all devices owned by a user.
func (r *DeviceRepository) ListByOwner(ownerID string) ([]*domain.Device, error) {
	var devices []*domain.Device
	if err := r.db.Find(&devices, "owner_id = ?", ownerID).Error; err != nil {
		return nil, err
	}
	return devices, nil
}

// ClearActive resets the active_in_3d flag on every device of an owner.
func (r *DeviceRepository) ClearActive(ownerID string) error {
	return r.db.Model(&domain.Device{}).
		Where("owner_id = ?", ownerID).
		Update("active_in_3d", false).Error
}

// SetActive marks the named device of an owner as active in 3D. It
// reports whether a matching device row was updated.
func (r *DeviceRepository) SetActive(ownerID, name string) (bool, error) {
	result := r.db.Model(&domain.Device{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Update("active_in_3d", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountActive returns the number of active devices for an owner.
func (r *DeviceRepository) CountActive(ownerID string) (int64, error) {
	var count int64
	result := r.db.Model(&domain.Device{}).
		Where("owner_id = ? AND active_in_3d = ?", ownerID, true).
		Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

// MessageRepository handles chat message persistence using GORM.
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a chat message.
func (r *MessageRepository) Create(msg *domain.ChatMessage) error {
	return r.db.Create(msg).Error
}

// ListByUser retrieves a user's messages in insertion order.
func (r *MessageRepository) ListByUser(userID string) ([]*domain.ChatMessage, error) {
	var messages []*domain.ChatMessage
	if err := r.db.Order("created_at").Find(&messages, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return messages, nil
}
