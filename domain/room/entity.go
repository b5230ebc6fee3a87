package room

import (
	"time"
)

// Device represents a client device owned by a user. A device row is
// created lazily the first time its owner joins the room with that name.
type Device struct {
	ID         string `gorm:"primaryKey;type:text"`
	OwnerID    string `gorm:"uniqueIndex:idx_devices_owner_name;not null;type:text"`
	Name       string `gorm:"uniqueIndex:idx_devices_owner_name;not null;type:text"`
	ActiveIn3D bool   `gorm:"not null;default:false;column:active_in_3d"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName returns the table name for the Device entity.
func (Device) TableName() string {
	return "devices"
}

// ChatMessage is an append-only log entry tying a message text to the
// user and device it was sent from.
type ChatMessage struct {
	ID        string `gorm:"primaryKey;type:text"`
	UserID    string `gorm:"index;not null;type:text"`
	DeviceID  string `gorm:"not null;type:text"`
	Text      string `gorm:"not null;type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for the ChatMessage entity.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Room associates an owner with a 3D flag and a device label. The entity
// is migrated but not exercised by any handler; no behavior is defined
// for it beyond storage.
type Room struct {
	ID        string `gorm:"primaryKey;type:text"`
	OwnerID   string `gorm:"not null;type:text"`
	In3D      bool   `gorm:"not null;default:false;column:in_3d"`
	Device    string `gorm:"type:text"`
	CreatedAt time.Time
}

// TableName returns the table name for the Room entity.
func (Room) TableName() string {
	return "rooms"
}
