package game

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/world"
)

// ErrBehaviorConstruct конструктор поведения завершился ошибкой или паникой
var ErrBehaviorConstruct = errors.New("behavior construction failed")

// Behavior живой экземпляр поведения, привязанный к экземплярам сцены
type Behavior interface {
	ID() string
	Type() entity.BehaviorType
	Enabled() bool
	Update(delta float64)
	HandleEvent(event entity.GameEvent)
	Destroy()
}

// Instances доступ поведений к реестру экземпляров.
// Поведения не хранят объекты сцены между тиками и каждый раз разрешают их по id.
type Instances interface {
	GetRenderable(instanceID string) (world.Renderable, bool)
	GetDefinition(instanceID string) (entity.SceneObjectInstance, bool)
	UpdateRenderable(instanceID string, fn func(world.Renderable)) bool
	FindByTag(tag string) []world.RegisteredInstance
}

// ChaseCamera камера, которую машина ведет за собой
type ChaseCamera interface {
	SetPosition(p mgl64.Vec3)
	LookAt(target mgl64.Vec3)
}

// Dependencies общий контекст, передаваемый каждому конструктору поведения
type Dependencies struct {
	Instances Instances
	Lights    world.LightFactory
	Logger    *log.Logger
	Camera    ChaseCamera
	Character world.Renderable
}

// Constructor строит вариант поведения по записи
type Constructor func(def entity.BehaviorDefinition, deps *Dependencies) (Behavior, error)

// hostMounted поведения, которым нужны камера и персонаж хоста
type hostMounted interface {
	SetCamera(camera ChaseCamera)
	SetCharacter(character world.Renderable)
}

// Таблица вариантов: новый вариант это одна новая запись
var defaultConstructors = map[entity.BehaviorType]Constructor{
	entity.BehaviorLightToggle: NewLightToggle,
	entity.BehaviorVehicle:     NewVehicle,
	entity.BehaviorChessBoard:  NewChessBoard,
	entity.BehaviorChessPiece:  NewChessPiece,
}

// Engine хранит живые поведения по behaviorId и раздает им тики и события
type Engine struct {
	behaviors    map[string]Behavior
	order        []string
	constructors map[entity.BehaviorType]Constructor
	deps         *Dependencies
	logger       *log.Logger
	mu           sync.RWMutex
}

// NewEngine создает движок поведений
func NewEngine(instances Instances, lights world.LightFactory, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}

	constructors := make(map[entity.BehaviorType]Constructor, len(defaultConstructors))
	for t, c := range defaultConstructors {
		constructors[t] = c
	}

	return &Engine{
		behaviors:    make(map[string]Behavior),
		constructors: constructors,
		deps: &Dependencies{
			Instances: instances,
			Lights:    lights,
			Logger:    logger,
		},
		logger: logger,
	}
}

// RegisterType подключает конструктор для тега поведения
func (e *Engine) RegisterType(t entity.BehaviorType, ctor Constructor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.constructors[t] = ctor
}

// RegisterBehavior создает поведение по записи. Живое поведение с тем же id
// сначала уничтожается. Зарезервированные и неизвестные теги пропускаются с предупреждением.
func (e *Engine) RegisterBehavior(def entity.BehaviorDefinition) error {
	e.RemoveBehavior(def.BehaviorID)

	e.mu.RLock()
	ctor, ok := e.constructors[def.Type]
	e.mu.RUnlock()
	if !ok {
		if def.Type.IsKnown() {
			e.logger.Printf("[BehaviorEngine] ПРЕДУПРЕЖДЕНИЕ: тип поведения %s зарезервирован и не реализован, %s пропущено", def.Type, def.BehaviorID)
		} else {
			e.logger.Printf("[BehaviorEngine] ПРЕДУПРЕЖДЕНИЕ: неизвестный тип поведения %q, %s пропущено", def.Type, def.BehaviorID)
		}
		return nil
	}

	behavior, err := e.construct(ctor, def)
	if err != nil {
		return err
	}
	if behavior == nil {
		return nil
	}

	e.mu.Lock()
	e.behaviors[def.BehaviorID] = behavior
	e.order = append(e.order, def.BehaviorID)
	e.mu.Unlock()

	e.logger.Printf("[BehaviorEngine] Зарегистрировано поведение: %s (%s)", def.BehaviorID, def.Type)
	return nil
}

func (e *Engine) construct(ctor Constructor, def entity.BehaviorDefinition) (behavior Behavior, err error) {
	defer func() {
		if r := recover(); r != nil {
			behavior = nil
			err = fmt.Errorf("%w: %s: panic: %v", ErrBehaviorConstruct, def.Type, r)
		}
	}()

	e.mu.RLock()
	deps := *e.deps
	e.mu.RUnlock()

	behavior, err = ctor(def, &deps)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrBehaviorConstruct, def.Type, err)
	}
	return behavior, nil
}

// RemoveBehavior уничтожает и удаляет поведение
func (e *Engine) RemoveBehavior(behaviorID string) bool {
	e.mu.Lock()
	behavior, exists := e.behaviors[behaviorID]
	if exists {
		delete(e.behaviors, behaviorID)
		for i, id := range e.order {
			if id == behaviorID {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
	e.mu.Unlock()

	if !exists {
		return false
	}
	e.safeDestroy(behavior)
	e.logger.Printf("[BehaviorEngine] Удалено поведение: %s", behaviorID)
	return true
}

// GetBehavior возвращает живое поведение по id
func (e *Engine) GetBehavior(behaviorID string) (Behavior, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.behaviors[behaviorID]
	return b, ok
}

// IDs возвращает идентификаторы в порядке регистрации
func (e *Engine) IDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.behaviors)
}

// Update вызывает тик у всех включенных поведений в порядке регистрации
func (e *Engine) Update(delta float64) {
	for _, behavior := range e.snapshot() {
		if !behavior.Enabled() {
			continue
		}
		e.safeCall(behavior, "update", func() { behavior.Update(delta) })
	}
}

// HandleEvent раздает событие всем включенным поведениям без фильтрации
func (e *Engine) HandleEvent(event entity.GameEvent) {
	for _, behavior := range e.snapshot() {
		if !behavior.Enabled() {
			continue
		}
		e.safeCall(behavior, "event", func() { behavior.HandleEvent(event) })
	}
}

// Clear уничтожает все поведения и только потом забывает их
func (e *Engine) Clear() {
	behaviors := e.snapshot()
	for _, behavior := range behaviors {
		e.safeDestroy(behavior)
	}

	e.mu.Lock()
	e.behaviors = make(map[string]Behavior)
	e.order = nil
	e.mu.Unlock()

	if len(behaviors) > 0 {
		e.logger.Printf("[BehaviorEngine] Очищено поведений: %d", len(behaviors))
	}
}

// SetCamera передает камеру хоста текущим и будущим машинам
func (e *Engine) SetCamera(camera ChaseCamera) {
	e.mu.Lock()
	e.deps.Camera = camera
	e.mu.Unlock()

	for _, behavior := range e.snapshot() {
		if m, ok := behavior.(hostMounted); ok {
			m.SetCamera(camera)
		}
	}
}

// SetCharacter передает персонажа хоста текущим и будущим машинам
func (e *Engine) SetCharacter(character world.Renderable) {
	e.mu.Lock()
	e.deps.Character = character
	e.mu.Unlock()

	for _, behavior := range e.snapshot() {
		if m, ok := behavior.(hostMounted); ok {
			m.SetCharacter(character)
		}
	}
}

func (e *Engine) snapshot() []Behavior {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Behavior, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.behaviors[id])
	}
	return out
}

func (e *Engine) safeCall(behavior Behavior, phase string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Printf("[BehaviorEngine] КРИТИЧЕСКАЯ ОШИБКА в поведении %s (%s): %v", behavior.ID(), phase, r)
		}
	}()
	fn()
}

func (e *Engine) safeDestroy(behavior Behavior) {
	e.safeCall(behavior, "destroy", behavior.Destroy)
}
