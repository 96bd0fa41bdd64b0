package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/core/domain/service"
	"roomie/backend/internal/core/port/in/roommanagement"
	"roomie/backend/internal/fixtures"
	"roomie/backend/internal/game"
	"roomie/backend/internal/telemetry"
	"roomie/backend/internal/world"
)

var (
	_ roommanagement.RoomManagementPort = (*service.RoomService)(nil)
	_ game.SnapshotBroadcaster          = (*WSAdapter)(nil)
)

type testServer struct {
	room      *service.RoomService
	telemetry *telemetry.TelemetryManager
	adapter   *WSAdapter
	server    *httptest.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	tm := telemetry.NewTelemetryManager()
	room := service.NewRoomService(service.RoomOptions{
		RoomID:    "ws-room",
		Loader:    world.NewLibraryLoader(),
		Telemetry: tm,
		Logger:    logger,
	})
	adapter := NewWSAdapter(room, logger)
	server := httptest.NewServer(http.HandlerFunc(adapter.HandleWS))
	t.Cleanup(server.Close)
	return &testServer{room: room, telemetry: tm, adapter: adapter, server: server}
}

// connect подключается и пропускает приветствие и начальный снимок
func (s *testServer) connect(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	welcome := readMessage(t, conn)
	if welcome.Type != MessageTypeInfo || welcome.RoomID != "ws-room" || len(welcome.SessionID) != 36 {
		t.Fatalf("Unexpected welcome %+v", welcome)
	}
	if initial := readMessage(t, conn); initial.Type != MessageTypeSnapshot {
		t.Fatalf("Expected initial snapshot, got %+v", initial)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg OutboundMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("Error reading message: %v", err)
	}
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg interface{}) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("Error writing message: %v", err)
	}
}

func blueprintMessage(t *testing.T, bp *entity.BlueprintResponse) InboundMessage {
	t.Helper()
	payload, err := json.Marshal(bp)
	if err != nil {
		t.Fatal(err)
	}
	return InboundMessage{Type: MessageTypeBlueprint, Payload: payload}
}

func TestWSAdapter_BlueprintAndEvents(t *testing.T) {
	s := newTestServer(t)
	conn := s.connect(t)

	send(t, conn, blueprintMessage(t, fixtures.LampBlueprint()))
	reply := readMessage(t, conn)
	if reply.Type != MessageTypeApplyResult || reply.Result == nil || !reply.Result.Success {
		t.Fatalf("Expected successful apply_result, got %+v", reply)
	}
	if len(reply.Result.NewInstanceIDs) != 3 {
		t.Errorf("Expected 3 new instances, got %v", reply.Result.NewInstanceIDs)
	}

	click := entity.ClickEvent("lamp-bulb-1")
	send(t, conn, InboundMessage{Type: MessageTypeEvent, Event: &click})

	// Пинг после события: ответ гарантирует, что событие уже обработано
	send(t, conn, InboundMessage{Type: MessageTypePing, ClientTime: 42})
	pong := readMessage(t, conn)
	if pong.Type != MessageTypePong || pong.ClientTime != 42 || pong.ServerTime == 0 {
		t.Errorf("Unexpected pong %+v", pong)
	}

	if got := s.telemetry.Totals()[telemetry.CounterEventsDispatched]; got != 1 {
		t.Errorf("Expected 1 dispatched event, got %d", got)
	}

	send(t, conn, InboundMessage{Type: MessageTypeRemove, InstanceID: "lamp-base-1"})
	removed := readMessage(t, conn)
	if removed.Removed == nil || !*removed.Removed || removed.InstanceID != "lamp-base-1" {
		t.Errorf("Unexpected remove reply %+v", removed)
	}
	if got := len(s.room.Snapshot().Instances); got != 2 {
		t.Errorf("Expected 2 instances after removal, got %d", got)
	}
}

func TestWSAdapter_RejectsInvalidBlueprint(t *testing.T) {
	s := newTestServer(t)
	conn := s.connect(t)

	bp := fixtures.LampBlueprint()
	bp.Behavior.Behaviors[0].TargetInstanceIDs = []string{"ghost"}
	send(t, conn, blueprintMessage(t, bp))

	reply := readMessage(t, conn)
	if reply.Type != MessageTypeError {
		t.Fatalf("Expected error, got %+v", reply)
	}
	if len(reply.Issues) != 1 || reply.Issues[0] != "Behavior lamp-toggle-behavior references non-existent instance ghost" {
		t.Errorf("Unexpected issues %v", reply.Issues)
	}
	if len(s.room.Snapshot().Instances) != 0 {
		t.Error("Rejected blueprint must not reach the room")
	}
}

func TestWSAdapter_TextOnlyResponse(t *testing.T) {
	s := newTestServer(t)
	conn := s.connect(t)

	send(t, conn, InboundMessage{Type: MessageTypeResponse, Payload: json.RawMessage(`["Sorry, I can only build furniture"]`)})
	reply := readMessage(t, conn)
	if reply.Type != MessageTypeApplyResult || reply.Message != "Sorry, I can only build furniture" {
		t.Fatalf("Unexpected reply %+v", reply)
	}
	if !reply.Result.Success || len(reply.Issues) == 0 {
		t.Errorf("Text-only response should apply cleanly and report issues, got %+v", reply)
	}
}

func TestWSAdapter_ErrorsKeepConnection(t *testing.T) {
	s := newTestServer(t)
	conn := s.connect(t)

	send(t, conn, InboundMessage{Type: "teleport"})
	if reply := readMessage(t, conn); reply.Type != MessageTypeError {
		t.Errorf("Expected error for unknown type, got %+v", reply)
	}

	send(t, conn, InboundMessage{Type: MessageTypeEvent})
	if reply := readMessage(t, conn); reply.Type != MessageTypeError || !strings.Contains(reply.Message, "missing field") {
		t.Errorf("Expected missing field error, got %+v", reply)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{broken")); err != nil {
		t.Fatal(err)
	}
	if reply := readMessage(t, conn); reply.Type != MessageTypeError {
		t.Errorf("Expected error for broken JSON, got %+v", reply)
	}

	send(t, conn, InboundMessage{Type: MessageTypePing})
	if reply := readMessage(t, conn); reply.Type != MessageTypePong {
		t.Errorf("Connection should still serve ping, got %+v", reply)
	}
}

func TestWSAdapter_BroadcastSnapshot(t *testing.T) {
	s := newTestServer(t)
	first := s.connect(t)
	second := s.connect(t)

	if s.adapter.ClientCount() != 2 {
		t.Fatalf("Expected 2 clients, got %d", s.adapter.ClientCount())
	}

	s.room.ApplyBlueprint(context.Background(), fixtures.VehicleBlueprint())
	if err := s.adapter.BroadcastSnapshot(s.room.Snapshot()); err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypeSnapshot || msg.State == nil || len(msg.State.Instances) != 6 {
			t.Errorf("Unexpected snapshot %+v", msg)
		}
	}

	second.Close()
	deadline := time.Now().Add(2 * time.Second)
	for s.adapter.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.adapter.ClientCount() != 1 {
		t.Errorf("Closed client should be dropped, got %d", s.adapter.ClientCount())
	}
}
