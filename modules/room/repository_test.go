package room

import (
	"testing"
	"time"

	"github.com/google/uuid"
	domain "github.com/tyumu/Roamloid/domain/room"
	"gorm.io/gorm"
)

func createTestDevice(t *testing.T, db *gorm.DB, ownerID, name string, active bool) *domain.Device {
	t.Helper()
	device := &domain.Device{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Name:       name,
		ActiveIn3D: active,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	if err := db.Create(device).Error; err != nil {
		t.Fatalf("failed to create test device: %v", err)
	}
	return device
}

func TestDeviceRepository_FindByOwnerAndName(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db)

	device := createTestDevice(t, db, "user-1", "phone", false)

	t.Run("existing device", func(t *testing.T) {
		found, err := repo.FindByOwnerAndName("user-1", "phone")
		if err != nil {
			t.Fatalf("FindByOwnerAndName() error = %v", err)
		}
		if found.ID != device.ID {
			t.Errorf("expected ID %q, got %q", device.ID, found.ID)
		}
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, err := repo.FindByOwnerAndName("user-2", "phone")
		if err != ErrDeviceNotFound {
			t.Errorf("expected ErrDeviceNotFound, got %v", err)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := repo.FindByOwnerAndName("user-1", "tablet")
		if err != ErrDeviceNotFound {
			t.Errorf("expected ErrDeviceNotFound, got %v", err)
		}
	})
}

func TestDeviceRepository_ClearAndSetActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewDeviceRepository(db)

	createTestDevice(t, db, "user-1", "phone", true)
	createTestDevice(t, db, "user-1", "laptop", false)
	other := createTestDevice(t, db, "user-2", "phone", true)

	if err := repo.ClearActive("user-1"); err != nil {
		t.Fatalf("ClearActive() error = %v", err)
	}

	count, err := repo.CountActive("user-1")
	if err != nil {
		t.Fatalf("CountActive() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountActive() after clear = %d, want 0", count)
	}

	// Another owner's flag must be untouched
	var otherDevice domain.Device
	if err := db.First(&otherDevice, "id = ?", other.ID).Error; err != nil {
		t.Fatalf("failed to find other device: %v", err)
	}
	if !otherDevice.ActiveIn3D {
		t.Error("ClearActive() must not touch other owners' devices")
	}

	t.Run("set existing device", func(t *testing.T) {
		updated, err := repo.SetActive("user-1", "laptop")
		if err != nil {
			t.Fatalf("SetActive() error = %v", err)
		}
		if !updated {
			t.Error("SetActive() should report an updated row")
		}
		count, err := repo.CountActive("user-1")
		if err != nil {
			t.Fatalf("CountActive() error = %v", err)
		}
		if count != 1 {
			t.Errorf("CountActive() = %d, want 1", count)
		}
	})

	t.Run("set unknown device", func(t *testing.T) {
		updated, err := repo.SetActive("user-1", "tablet")
		if err != nil {
			t.Fatalf("SetActive() error = %v", err)
		}
		if updated {
			t.Error("SetActive() on unknown device should report no update")
		}
	})
}

func TestMessageRepository_ListByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	device := createTestDevice(t, db, "user-1", "phone", false)

	base := time.Now()
	for i, text := range []string{"first", "second", "third"} {
		msg := &domain.ChatMessage{
			ID:        uuid.New().String(),
			UserID:    "user-1",
			DeviceID:  device.ID,
			Text:      text,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Create(msg); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	messages, err := repo.ListByUser("user-1")
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("ListByUser() returned %d messages, want 3", len(messages))
	}
	for i, want := range []string{"first", "second", "third"} {
		if messages[i].Text != want {
			t.Errorf("messages[%d].Text = %q, want %q", i, messages[i].Text, want)
		}
	}
}
