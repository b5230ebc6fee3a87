package presence

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeConn records frames written to it.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
	fail   bool
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("write failed")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	c.frames = append(c.frames, buf)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) lastFrame(t *testing.T) (string, map[string]any) {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.frames) == 0 {
		t.Fatal("no frames written")
	}
	var decoded struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := json.Unmarshal(c.frames[len(c.frames)-1], &decoded); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	return decoded.Event, decoded.Data
}

func newTestClient(id, userID string) (*Client, *fakeConn) {
	conn := &fakeConn{}
	return &Client{ID: id, UserID: userID, Conn: conn}, conn
}

func TestHub_BroadcastReachesAllUserConnections(t *testing.T) {
	hub := NewHub()

	phone, phoneConn := newTestClient("c1", "user-1")
	laptop, laptopConn := newTestClient("c2", "user-1")
	stranger, strangerConn := newTestClient("c3", "user-2")

	for _, c := range []*Client{phone, laptop, stranger} {
		hub.Register(c)
		hub.Join(c.UserID, c)
	}

	hub.Broadcast("user-1", "receive_data", map[string]string{
		"device_name": "phone",
		"text":        "hi",
	})

	for name, conn := range map[string]*fakeConn{"phone": phoneConn, "laptop": laptopConn} {
		if conn.frameCount() != 1 {
			t.Errorf("%s received %d frames, want 1", name, conn.frameCount())
			continue
		}
		event, data := conn.lastFrame(t)
		if event != "receive_data" {
			t.Errorf("%s received event %q, want receive_data", name, event)
		}
		if data["text"] != "hi" {
			t.Errorf("%s received text %v, want hi", name, data["text"])
		}
	}

	if strangerConn.frameCount() != 0 {
		t.Errorf("other user's connection received %d frames, want 0", strangerConn.frameCount())
	}
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	hub := NewHub()

	client, conn := newTestClient("c1", "user-1")
	hub.Register(client)
	hub.Join("user-1", client)
	hub.Join("user-1", client)

	hub.Broadcast("user-1", "receive_data", map[string]string{"text": "once"})

	if conn.frameCount() != 1 {
		t.Errorf("double join caused %d deliveries, want 1", conn.frameCount())
	}
	if hub.GroupSize("user-1") != 1 {
		t.Errorf("GroupSize() = %d, want 1", hub.GroupSize("user-1"))
	}
}

func TestHub_UnregisterRemovesFromGroup(t *testing.T) {
	hub := NewHub()

	client, conn := newTestClient("c1", "user-1")
	hub.Register(client)
	hub.Join("user-1", client)

	hub.Unregister(client)

	hub.Broadcast("user-1", "receive_data", map[string]string{"text": "gone"})

	if conn.frameCount() != 0 {
		t.Errorf("unregistered connection received %d frames, want 0", conn.frameCount())
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
	if hub.GroupSize("user-1") != 0 {
		t.Errorf("GroupSize() = %d, want 0", hub.GroupSize("user-1"))
	}
}

func TestHub_BroadcastSurvivesFailedWrites(t *testing.T) {
	hub := NewHub()

	broken, _ := newTestClient("c1", "user-1")
	broken.Conn.(*fakeConn).fail = true
	healthy, healthyConn := newTestClient("c2", "user-1")

	for _, c := range []*Client{broken, healthy} {
		hub.Register(c)
		hub.Join("user-1", c)
	}

	hub.Broadcast("user-1", "receive_data", map[string]string{"text": "best effort"})

	if healthyConn.frameCount() != 1 {
		t.Errorf("healthy connection received %d frames, want 1", healthyConn.frameCount())
	}
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()

	client, conn := newTestClient("c1", "user-1")
	hub.Register(client)
	hub.Join("user-1", client)

	hub.CloseAll()

	if !conn.closed {
		t.Error("CloseAll() should close connections")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0", hub.ClientCount())
	}
}

// overlapConn counts calls to WriteMessage that enter while another
// write is still in flight. The transport rejects concurrent writers,
// so any overlap on one connection is a defect.
type overlapConn struct {
	writing  atomic.Int32
	overlaps atomic.Int32
	writes   atomic.Int32
}

func (c *overlapConn) WriteMessage(_ int, _ []byte) error {
	if !c.writing.CompareAndSwap(0, 1) {
		c.overlaps.Add(1)
		return nil
	}
	time.Sleep(time.Microsecond)
	c.writes.Add(1)
	c.writing.Store(0)
	return nil
}

func (c *overlapConn) Close() error { return nil }

func TestHub_WritesToOneConnectionSerialize(t *testing.T) {
	hub := NewHub()

	conn := &overlapConn{}
	client := &Client{ID: "c1", UserID: "user-1", Conn: conn}
	hub.Register(client)
	hub.Join("user-1", client)

	const goroutines = 8
	const rounds = 200

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if g%2 == 0 {
					hub.Broadcast("user-1", "receive_data", map[string]int{"n": i})
				} else if err := client.Send("system", map[string]int{"n": i}); err != nil {
					t.Errorf("Send() error = %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	if got := conn.overlaps.Load(); got != 0 {
		t.Errorf("observed %d concurrent WriteMessage entries on one connection, want 0", got)
	}
	if got := conn.writes.Load(); got != goroutines*rounds {
		t.Errorf("completed writes = %d, want %d", got, goroutines*rounds)
	}
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			client, _ := newTestClient(fmt.Sprintf("client-%d", i), "user-1")
			hub.Register(client)
			hub.Join("user-1", client)
			hub.Broadcast("user-1", "receive_data", map[string]int{"n": i})
			hub.Unregister(client)
		}(i)
	}
	wg.Wait()

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount() = %d, want 0 after all unregister", hub.ClientCount())
	}
}
