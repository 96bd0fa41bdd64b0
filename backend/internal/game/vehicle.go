package game

import (
	"log"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/world"
)

const wheelTag = "wheel"

// VehicleKeys защелкнутые клавиши направления
type VehicleKeys struct {
	Forward  bool
	Backward bool
	Left     bool
	Right    bool
}

// Vehicle машина с управлением WASD и клавишей посадки.
// Состояния: стоит или едет. Пока стоит, клавиши направления игнорируются.
type Vehicle struct {
	id      string
	enabled bool
	targets []string

	instances Instances
	logger    *log.Logger
	camera    ChaseCamera
	character world.Renderable

	maxSpeed     float64
	acceleration float64
	braking      float64
	friction     float64
	turnSpeed    float64
	cameraOffset mgl64.Vec3
	exitOffset   mgl64.Vec3
	toggleKey    string

	driving   bool
	velocity  float64
	turnAngle float64
	keys      VehicleKeys
}

// NewVehicle создает машину. Трение по умолчанию равно половине торможения.
func NewVehicle(def entity.BehaviorDefinition, deps *Dependencies) (Behavior, error) {
	defaults := world.GetVehicleConfig()
	cfg := def.Config

	braking := numberOr(cfg, "braking", defaults.Braking)
	friction := defaults.Friction
	if _, set := cfg["braking"]; set {
		friction = braking * 0.5
	}

	v := &Vehicle{
		id:           def.BehaviorID,
		enabled:      def.IsEnabled(),
		targets:      append([]string(nil), def.TargetInstanceIDs...),
		instances:    deps.Instances,
		logger:       deps.Logger,
		camera:       deps.Camera,
		character:    deps.Character,
		maxSpeed:     numberOr(cfg, "maxSpeed", defaults.MaxSpeed),
		acceleration: numberOr(cfg, "acceleration", defaults.Acceleration),
		braking:      braking,
		friction:     numberOr(cfg, "friction", friction),
		turnSpeed:    numberOr(cfg, "turnSpeed", defaults.TurnSpeed),
		cameraOffset: vectorOr(cfg, "cameraOffset", defaults.CameraOffset).Vec3(),
		exitOffset:   defaults.ExitOffset.Vec3(),
		toggleKey:    strings.ToLower(stringOr(cfg, "toggleKey", defaults.ToggleKey)),
	}
	return v, nil
}

func (v *Vehicle) ID() string                { return v.id }
func (v *Vehicle) Type() entity.BehaviorType { return entity.BehaviorVehicle }
func (v *Vehicle) Enabled() bool             { return v.enabled }

func (v *Vehicle) SetCamera(camera ChaseCamera)            { v.camera = camera }
func (v *Vehicle) SetCharacter(character world.Renderable) { v.character = character }

func (v *Vehicle) IsDriving() bool    { return v.driving }
func (v *Vehicle) Velocity() float64  { return v.velocity }
func (v *Vehicle) TurnAngle() float64 { return v.turnAngle }
func (v *Vehicle) Keys() VehicleKeys  { return v.keys }
func (v *Vehicle) Friction() float64  { return v.friction }
func (v *Vehicle) Braking() float64   { return v.braking }

// HandleEvent принимает события keypress. data.state "down" защелкивает клавишу
// (только во время езды), "up" отпускает; без состояния событие считается нажатием целиком.
func (v *Vehicle) HandleEvent(event entity.GameEvent) {
	if event.Type != entity.EventKeypress || event.Key == "" {
		return
	}
	key := strings.ToLower(event.Key)

	switch event.KeyState() {
	case entity.KeyStateDown:
		v.keyDown(key)
	case entity.KeyStateUp:
		v.keyUp(key)
	default:
		v.keyDown(key)
		if key == v.toggleKey {
			v.toggleDriveMode()
		}
	}
}

func (v *Vehicle) keyDown(key string) {
	if !v.driving {
		return
	}
	v.setKey(key, true)
}

func (v *Vehicle) keyUp(key string) {
	v.setKey(key, false)
	if key == v.toggleKey {
		v.toggleDriveMode()
	}
}

func (v *Vehicle) setKey(key string, pressed bool) {
	switch key {
	case "w":
		v.keys.Forward = pressed
	case "s":
		v.keys.Backward = pressed
	case "a":
		v.keys.Left = pressed
	case "d":
		v.keys.Right = pressed
	}
}

func (v *Vehicle) toggleDriveMode() {
	v.driving = !v.driving
	if v.driving {
		v.enter()
	} else {
		v.exit()
	}
}

func (v *Vehicle) enter() {
	if v.character != nil {
		v.character.SetVisible(false)
	}
	v.logger.Printf("[Vehicle] %s: посадка, режим езды включен", v.id)
}

// exit возвращает персонажа рядом с машиной и сбрасывает скорость. Курс сохраняется.
func (v *Vehicle) exit() {
	if v.character != nil {
		v.character.SetVisible(true)
		if body, ok := v.mainObject(); ok {
			v.character.SetPosition(body.Position().Add(v.exitOffset))
		}
	}
	v.velocity = 0
	v.logger.Printf("[Vehicle] %s: выход из машины", v.id)
}

// mainObject первая цель без тега wheel, иначе первая цель
func (v *Vehicle) mainObject() (world.Renderable, bool) {
	for _, id := range v.targets {
		def, ok := v.instances.GetDefinition(id)
		if ok && !def.HasTag(wheelTag) {
			return v.instances.GetRenderable(id)
		}
	}
	if len(v.targets) == 0 {
		return nil, false
	}
	return v.instances.GetRenderable(v.targets[0])
}

func (v *Vehicle) Update(delta float64) {
	if !v.driving || len(v.targets) == 0 {
		return
	}
	v.integrate(delta)
	v.move(delta)
	v.updateCamera()
}

func (v *Vehicle) integrate(delta float64) {
	switch {
	case v.keys.Forward:
		v.velocity = math.Min(v.velocity+v.acceleration*delta, v.maxSpeed)
	case v.keys.Backward:
		v.velocity = math.Max(v.velocity-v.braking*delta, -v.maxSpeed*0.5)
	case v.velocity > 0:
		v.velocity = math.Max(0, v.velocity-v.friction*delta)
	case v.velocity < 0:
		v.velocity = math.Min(0, v.velocity+v.friction*delta)
	}

	// Без автоцентровки руля
	if v.keys.Left {
		v.turnAngle += v.turnSpeed * delta
	} else if v.keys.Right {
		v.turnAngle -= v.turnSpeed * delta
	}
}

func (v *Vehicle) move(delta float64) {
	step := mgl64.Vec3{
		math.Sin(v.turnAngle) * v.velocity * delta,
		0,
		math.Cos(v.turnAngle) * v.velocity * delta,
	}
	spin := v.velocity * delta * 2

	for _, id := range v.targets {
		def, _ := v.instances.GetDefinition(id)
		isWheel := def.HasTag(wheelTag)

		v.instances.UpdateRenderable(id, func(r world.Renderable) {
			euler := r.Euler()
			euler[1] = v.turnAngle
			if isWheel {
				euler[0] += spin
			}
			r.SetEuler(euler)
			r.SetPosition(r.Position().Add(step))
		})
	}
}

// updateCamera ставит камеру со смещением, повернутым на курс машины.
// Свободный обзор во время езды отключен.
func (v *Vehicle) updateCamera() {
	if v.camera == nil {
		return
	}
	body, ok := v.mainObject()
	if !ok {
		return
	}
	offset := mgl64.QuatRotate(v.turnAngle, mgl64.Vec3{0, 1, 0}).Rotate(v.cameraOffset)
	v.camera.SetPosition(body.Position().Add(offset))
	v.camera.LookAt(body.Position())
}

// Destroy высаживает водителя, если машина в движении
func (v *Vehicle) Destroy() {
	if v.driving {
		v.driving = false
		v.exit()
	}
}
