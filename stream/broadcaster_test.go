package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/gridsoup/systems"
)

func testSnapshot(tick int) systems.Snapshot {
	return systems.Snapshot{
		Tick:   tick,
		Width:  3,
		Height: 2,
		States: []systems.CellState{
			systems.CellPrey, systems.CellEmpty, systems.CellPredator,
			systems.CellEmpty, systems.CellCleaner, systems.CellEmpty,
		},
		Resource: []float64{0, 1, 0, 0, 0, 0},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return msg
}

func TestBroadcasterStreamsSnapshots(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(4)
	b.Dirt = true
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	defer srv.Close()

	b.Publish(testSnapshot(0))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := readMessage(t, conn)
	if hello.Type != "hello" || hello.Width != 3 || hello.Height != 2 {
		t.Errorf("hello = %+v", hello)
	}

	waitFor(t, func() bool { return b.Clients() == 1 })
	if !b.Publish(testSnapshot(7)) {
		t.Fatal("publish dropped with an idle queue")
	}

	// The tick 0 frame may still reach the client if it registered first.
	msg := readMessage(t, conn)
	if msg.Tick == 0 {
		msg = readMessage(t, conn)
	}
	if msg.Type != "snapshot" || msg.Tick != 7 {
		t.Fatalf("message = %+v", msg)
	}
	want := [][]float64{
		{systems.CodePrey, systems.CodeEmpty},
		{systems.CodeDirt, systems.CodeCleaner},
		{systems.CodePredator, systems.CodeEmpty},
	}
	for x := range want {
		for y := range want[x] {
			if msg.Codes[x][y] != want[x][y] {
				t.Errorf("codes[%d][%d] = %v, want %v", x, y, msg.Codes[x][y], want[x][y])
			}
		}
	}
	if msg.Population["prey"] != 1 || msg.Population["predator"] != 1 || msg.Population["cleaner"] != 1 {
		t.Errorf("population = %v", msg.Population)
	}

	conn.Close()
	waitFor(t, func() bool { return b.Clients() == 0 })
}

func TestBroadcasterDisconnectsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroadcaster(1)
	go b.Run(ctx)

	srv := httptest.NewServer(b)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	readMessage(t, conn)
	waitFor(t, func() bool { return b.Clients() == 1 })

	cancel()
	waitFor(t, func() bool { return b.Clients() == 0 })

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("connection still open after cancel")
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewBroadcaster(2)
	// Run is not started, so the queue fills and later frames drop.
	delivered := 0
	for i := 0; i < 5; i++ {
		if b.Publish(testSnapshot(i)) {
			delivered++
		}
	}
	if delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}
}
