package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/teslashibe/go-deliciousfood/internal/log"
)

// fakeConn is an in-memory Conn. Reads block until the browser side sends
// or the connection is closed.
type fakeConn struct {
	incoming chan []byte
	written  chan written

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

type written struct {
	typ  int
	data []byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		incoming: make(chan []byte, 4),
		written:  make(chan written, 16),
		done:     make(chan struct{}),
	}
}

func (f *fakeConn) SetReadLimit(int64) {}
func (f *fakeConn) SetReadDeadline(time.Time) error { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetPongHandler(func(appData string) error) {}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-f.incoming:
		return websocket.TextMessage, data, nil
	case <-f.done:
		return 0, nil, errors.New("closed")
	}
}

func (f *fakeConn) WriteMessage(typ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.New("closed")
	}
	f.written <- written{typ, data}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func nextWrite(t *testing.T, c *fakeConn) written {
	t.Helper()
	select {
	case w := <-c.written:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for write")
		return written{}
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", log.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	waitFor(t, h.IsRunning)
	t.Cleanup(cancel)
	return h, cancel
}

func TestBroadcastReachesClients(t *testing.T) {
	h, _ := startHub(t)

	a, b := newFakeConn(), newFakeConn()
	go NewClient(h, a).Run()
	go NewClient(h, b).Run()
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	if err := h.BroadcastJSON(map[string]string{"type": "toast"}); err != nil {
		t.Fatalf("BroadcastJSON: %v", err)
	}
	h.BroadcastBinary([]byte{0xff, 0xd8})

	for _, c := range []*fakeConn{a, b} {
		if w := nextWrite(t, c); w.typ != websocket.TextMessage || string(w.data) != `{"type":"toast"}` {
			t.Errorf("unexpected json frame: %d %s", w.typ, w.data)
		}
		if w := nextWrite(t, c); w.typ != websocket.BinaryMessage || len(w.data) != 2 {
			t.Errorf("unexpected binary frame: %d %v", w.typ, w.data)
		}
	}
}

func TestClientSendBeforeRun(t *testing.T) {
	h, _ := startHub(t)

	conn := newFakeConn()
	c := NewClient(h, conn)
	if !c.Send(NewJSONMessage([]byte(`{"type":"state"}`))) {
		t.Fatal("Send should queue")
	}
	go c.Run()

	if w := nextWrite(t, conn); string(w.data) != `{"type":"state"}` {
		t.Errorf("expected initial state first, got %s", w.data)
	}
}

func TestClientOnMessage(t *testing.T) {
	h, _ := startHub(t)

	got := make(chan string, 1)
	conn := newFakeConn()
	c := NewClient(h, conn)
	c.OnMessage = func(data []byte) { got <- string(data) }
	go c.Run()

	conn.incoming <- []byte(`{"action":"capture"}`)

	select {
	case s := <-got:
		if s != `{"action":"capture"}` {
			t.Errorf("got %s", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("OnMessage not called")
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	h, _ := startHub(t)

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	conn.Close()
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestRunStopsOnCancel(t *testing.T) {
	h, cancel := startHub(t)

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if h.IsRunning() || h.ClientCount() != 0 {
		t.Error("stopped hub should have no clients")
	}

	// Late clients are closed instead of blocking.
	late := newFakeConn()
	NewClient(h, late).Run()
	select {
	case <-late.done:
	default:
		t.Error("late client connection should be closed")
	}
}
