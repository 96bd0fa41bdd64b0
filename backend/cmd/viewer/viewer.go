package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/core/domain/service"
	"roomie/backend/internal/game"
	"roomie/backend/internal/world"
)

// Терминал не сообщает об отпускании клавиш: клавиша считается нажатой,
// пока автоповтор продлевает ее раньше этого срока
const keyHold = 500 * time.Millisecond

var playerStart = mgl64.Vec3{0, 0.9, 4}

// Viewer локальный хост комнаты: переводит ввод терминала в события
// поведений и рисует сцену сверху. Все вызовы идут из одной горутины.
type Viewer struct {
	room   *service.RoomService
	system *game.BehaviorUpdateSystem
	view   *View
	camera *world.Camera
	player *world.Node
	sound  *Sound

	held      map[string]time.Time
	mouseDown bool
	lastTick  time.Time
	status    string
}

// NewViewer подключает к комнате камеру и персонажа хоста
func NewViewer(room *service.RoomService, width, height int, sound *Sound) *Viewer {
	camera := world.NewCamera()
	player := world.NewMesh("player",
		world.Geometry{Primitive: entity.PrimitiveSphere, Radius: 0.3, Height: 1.8},
		world.NodeMaterial{Color: entity.Color{R: 1, G: 0.85, B: 0.3}, Opacity: 1})
	player.SetPosition(playerStart)
	room.Scene().Add(player)
	room.SetCamera(camera)
	room.SetCharacter(player)

	return &Viewer{
		room:   room,
		system: game.NewBehaviorUpdateSystem(room),
		view:   NewView(width, height-1),
		camera: camera,
		player: player,
		sound:  sound,
		held:   make(map[string]time.Time),
		status: "готов",
	}
}

// PressKey шлет down при первом нажатии и продлевает удержание при автоповторе
func (vw *Viewer) PressKey(key string, now time.Time) {
	if _, held := vw.held[key]; !held {
		vw.room.HandleEvent(entity.KeyEvent(key, entity.KeyStateDown))
	}
	vw.held[key] = now.Add(keyHold)
}

func (vw *Viewer) releaseKeys(now time.Time) {
	for key, until := range vw.held {
		if now.After(until) {
			delete(vw.held, key)
			vw.room.HandleEvent(entity.KeyEvent(key, entity.KeyStateUp))
		}
	}
}

// Click выбирает экземпляр под клеткой и отправляет ему клик с точкой на полу
func (vw *Viewer) Click(col, row int) (world.Identity, bool) {
	x, z := vw.view.ToWorld(col, row)
	id, ok := vw.room.Pick(x, z)
	if !ok {
		vw.sound.Miss()
		vw.status = fmt.Sprintf("пусто (%.2f, %.2f)", x, z)
		return id, false
	}
	vw.room.HandleEvent(entity.ClickAtEvent(id.InstanceID, entity.Vector3{X: x, Y: 0, Z: z}))
	vw.sound.Hit()
	vw.status = fmt.Sprintf("клик: %s (%s)", id.InstanceID, id.ShapeID)
	return id, true
}

// Tick продвигает поведения, отпускает залежавшиеся клавиши и рисует кадр
func (vw *Viewer) Tick(now time.Time) {
	if !vw.lastTick.IsZero() {
		vw.system.Update(now.Sub(vw.lastTick))
	}
	vw.lastTick = now
	vw.releaseKeys(now)

	// За рулем вид следует за камерой машины
	if !vw.player.Visible() {
		target := vw.camera.Target()
		vw.view.Center = mgl64.Vec2{target[0], target[2]}
	}
	vw.view.Render(vw.room.Scene())
}

// HandleEvent обрабатывает событие терминала. false означает выход.
func (vw *Viewer) HandleEvent(ev tcell.Event, now time.Time) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return vw.handleKey(ev, now)

	case *tcell.EventMouse:
		pressed := ev.Buttons()&tcell.Button1 != 0
		if pressed && !vw.mouseDown {
			col, row := ev.Position()
			vw.Click(col, row)
		}
		vw.mouseDown = pressed

	case *tcell.EventResize:
		w, h := ev.Size()
		vw.view.Resize(w, h-1)
	}
	return true
}

func (vw *Viewer) handleKey(ev *tcell.EventKey, now time.Time) bool {
	pan := 1 / vw.view.Zoom
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		vw.view.Center[1] -= pan
	case tcell.KeyDown:
		vw.view.Center[1] += pan
	case tcell.KeyLeft:
		vw.view.Center[0] -= pan
	case tcell.KeyRight:
		vw.view.Center[0] += pan
	case tcell.KeyRune:
		switch r := ev.Rune(); r {
		case 'q':
			return false
		case '+', '=':
			vw.view.ZoomBy(1.25)
		case '-':
			vw.view.ZoomBy(0.8)
		case 'r':
			vw.room.Reset()
			vw.status = "комната очищена"
		default:
			vw.PressKey(string(r), now)
		}
	}
	return true
}

// Status строка подсказки под видом
func (vw *Viewer) Status() string {
	return fmt.Sprintf(" %s | WASD/E машина, мышь клик, +/- масштаб, стрелки сдвиг, r сброс, q выход", vw.status)
}

// Draw переносит последний кадр на экран
func (vw *Viewer) Draw(screen tcell.Screen) {
	vw.view.Flush(screen, vw.Status())
}
