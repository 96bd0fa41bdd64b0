package main

import (
	"context"
	"io"
	"log"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/core/domain/service"
	"roomie/backend/internal/fixtures"
	"roomie/backend/internal/telemetry"
	"roomie/backend/internal/world"
)

func newTestViewer(t *testing.T, fixture string) (*Viewer, *service.RoomService) {
	t.Helper()
	room := service.NewRoomService(service.RoomOptions{
		RoomID:    "viewer-room",
		Loader:    world.NewLibraryLoader(),
		Telemetry: telemetry.NewTelemetryManager(),
		Logger:    log.New(io.Discard, "", 0),
	})
	// 80x25: вид 80x24 и строка статуса
	viewer := NewViewer(room, 80, 25, nil)

	bp, err := fixtures.ByName(fixture)
	if err != nil {
		t.Fatal(err)
	}
	if result := room.ApplyBlueprint(context.Background(), bp); !result.Success {
		t.Fatalf("fixture %s failed: %v", fixture, result.Errors)
	}
	return viewer, room
}

func TestView_ProjectionRoundTrip(t *testing.T) {
	v := NewView(80, 24)
	v.Center = mgl64.Vec2{1, -2}

	for _, p := range []mgl64.Vec2{{0, 0}, {-3.5, -2.5}, {4.2, 3.9}, {1, -2}} {
		col, row := v.ToScreen(p[0], p[1])
		x, z := v.ToWorld(col, row)
		// Центр клетки отстоит от точки не больше чем на половину клетки
		if math.Abs(x-p[0]) > 0.5/(v.Zoom*cellAspect) || math.Abs(z-p[1]) > 0.5/v.Zoom {
			t.Errorf("%v -> (%d, %d) -> (%.3f, %.3f)", p, col, row, x, z)
		}
	}

	if col, row := v.ToScreen(1, -2); col != 40 || row != 12 {
		t.Errorf("center maps to (%d, %d), want (40, 12)", col, row)
	}
}

func TestView_ZoomBounds(t *testing.T) {
	v := NewView(10, 10)
	for i := 0; i < 50; i++ {
		v.ZoomBy(2)
	}
	if v.Zoom != maxZoom {
		t.Errorf("zoom %v, want %v", v.Zoom, maxZoom)
	}
	for i := 0; i < 50; i++ {
		v.ZoomBy(0.5)
	}
	if v.Zoom != minZoom {
		t.Errorf("zoom %v, want %v", v.Zoom, minZoom)
	}
}

func TestView_RenderChessboard(t *testing.T) {
	viewer, _ := newTestViewer(t, fixtures.Chessboard)
	viewer.Tick(time.Now())

	col, row := viewer.view.ToScreen(-3.5, -2.5)
	ch, _ := viewer.view.At(col, row)
	if ch != '▓' {
		t.Errorf("pawn cell shows %q, want '▓'", ch)
	}

	col, row = viewer.view.ToScreen(-0.5, -0.5)
	ch, color := viewer.view.At(col, row)
	if ch != '█' {
		t.Errorf("board cell shows %q, want '█'", ch)
	}
	if color == floorColor {
		t.Error("board cell has floor color")
	}

	// Вне доски пол
	col, row = viewer.view.ToScreen(9, 0)
	if ch, color := viewer.view.At(col, row); ch != ' ' || color != floorColor {
		t.Errorf("floor cell shows %q %v", ch, color)
	}
}

func TestViewer_ClickMovesPawn(t *testing.T) {
	viewer, room := newTestViewer(t, fixtures.Chessboard)

	col, row := viewer.view.ToScreen(-3.5, -2.5)
	id, ok := viewer.Click(col, row)
	if !ok || id.InstanceID != "white-pawn-0" {
		t.Fatalf("picked %+v, want white-pawn-0", id)
	}

	col, row = viewer.view.ToScreen(-3.5, -0.5)
	id, ok = viewer.Click(col, row)
	if !ok || id.InstanceID != "board-1" {
		t.Fatalf("picked %+v, want board-1", id)
	}

	x, z := viewer.view.ToWorld(col, row)
	for _, inst := range room.Snapshot().Instances {
		if inst.InstanceID != "white-pawn-0" {
			continue
		}
		if inst.Position.X != x || inst.Position.Z != z {
			t.Errorf("pawn at %+v, want (%.3f, %.3f)", inst.Position, x, z)
		}
		return
	}
	t.Fatal("white-pawn-0 missing from snapshot")
}

func TestViewer_ClickEmptyFloor(t *testing.T) {
	viewer, _ := newTestViewer(t, fixtures.Lamp)

	col, row := viewer.view.ToScreen(8, 5)
	if _, ok := viewer.Click(col, row); ok {
		t.Error("empty floor should not pick anything")
	}
}

func TestViewer_LampGlowToggles(t *testing.T) {
	viewer, _ := newTestViewer(t, fixtures.Lamp)
	viewer.Tick(time.Now())

	col, row := viewer.view.ToScreen(-5, 1.5)
	if ch, _ := viewer.view.At(col, row); ch != '·' {
		t.Fatalf("lit floor shows %q, want '·'", ch)
	}

	viewer.room.HandleEvent(entity.ClickEvent("lamp-bulb-1"))
	viewer.Tick(time.Now())

	if ch, color := viewer.view.At(col, row); ch != ' ' || color != floorColor {
		t.Errorf("floor after switching off shows %q %v", ch, color)
	}
}

func TestViewer_KeyHoldDrivesVehicle(t *testing.T) {
	viewer, room := newTestViewer(t, fixtures.Vehicle)
	bodyStart := instancePosition(t, room, "car-body-1")

	now := time.Now()
	viewer.Tick(now)

	// Нажатие e и отпускание по таймауту сажают персонажа в машину
	viewer.PressKey("e", now)
	now = now.Add(keyHold + 10*time.Millisecond)
	viewer.Tick(now)
	if viewer.player.Visible() {
		t.Fatal("player should be hidden while driving")
	}

	// Автоповтор держит w нажатой
	for i := 0; i < 20; i++ {
		viewer.PressKey("w", now)
		now = now.Add(50 * time.Millisecond)
		viewer.Tick(now)
	}
	if len(viewer.held) != 1 {
		t.Errorf("expected only w held, got %v", viewer.held)
	}

	bodyEnd := instancePosition(t, room, "car-body-1")
	if bodyEnd == bodyStart {
		t.Error("car body did not move")
	}

	now = now.Add(keyHold + 10*time.Millisecond)
	viewer.Tick(now)
	if len(viewer.held) != 0 {
		t.Errorf("keys still held: %v", viewer.held)
	}
}

func TestViewer_HandleEvent(t *testing.T) {
	viewer, _ := newTestViewer(t, fixtures.Lamp)
	now := time.Now()

	zoom := viewer.view.Zoom
	if !viewer.HandleEvent(tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone), now) {
		t.Fatal("zoom key should not quit")
	}
	if viewer.view.Zoom <= zoom {
		t.Errorf("zoom %v did not grow from %v", viewer.view.Zoom, zoom)
	}

	viewer.HandleEvent(tcell.NewEventResize(100, 41), now)
	if w, h := viewer.view.Size(); w != 100 || h != 40 {
		t.Errorf("view size %dx%d after resize", w, h)
	}

	if viewer.HandleEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), now) {
		t.Error("q should quit")
	}
}

func TestView_Flush(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	defer screen.Fini()
	screen.SetSize(80, 25)

	viewer, _ := newTestViewer(t, fixtures.Lamp)
	viewer.Tick(time.Now())
	viewer.Draw(screen)

	if !strings.Contains(viewer.Status(), "готов") {
		t.Errorf("status %q", viewer.Status())
	}
}

func instancePosition(t *testing.T, room *service.RoomService, id string) entity.Vector3 {
	t.Helper()
	for _, inst := range room.Snapshot().Instances {
		if inst.InstanceID == id {
			return inst.Position
		}
	}
	t.Fatalf("instance %s not found", id)
	return entity.Vector3{}
}
