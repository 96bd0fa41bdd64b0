package service

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/game"
	"roomie/backend/internal/telemetry"
	"roomie/backend/internal/world"
)

// minPickSize минимальный размер объекта в плане при выборе мышью
const minPickSize = 1.0

// RoomOptions параметры создания комнаты
type RoomOptions struct {
	RoomID      string                      // Пусто: сгенерировать
	OwnerUserID string
	Loader      world.AssetLoader           // nil: внешние модели заменяются заглушкой
	Telemetry   *telemetry.TelemetryManager
	Logger      *log.Logger
}

// RoomService сессия одной комнаты: сцена, каталоги, движок поведений.
// Все вызовы сериализуются одним мьютексом, поэтому ядро видит один логический поток.
type RoomService struct {
	mu sync.Mutex

	roomID      string
	ownerUserID string
	createdAt   time.Time
	updatedAt   time.Time

	scene      *world.Node
	shapes     *world.ShapeRegistry
	instances  *world.InstanceRegistry
	factory    *world.Factory
	engine     *game.Engine
	reconciler *Reconciler

	// Принятые записи поведений для снимка, в порядке регистрации
	behaviors     map[string]entity.BehaviorDefinition
	behaviorOrder []string

	character world.Renderable
	telemetry *telemetry.TelemetryManager
	logger    *log.Logger
}

// registrarFunc адаптер функции к BehaviorRegistrar
type registrarFunc func(def entity.BehaviorDefinition) error

func (f registrarFunc) RegisterBehavior(def entity.BehaviorDefinition) error { return f(def) }

// NewRoomService создает пустую комнату
func NewRoomService(opts RoomOptions) *RoomService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	roomID := opts.RoomID
	if roomID == "" {
		roomID = uuid.NewString()
	}
	tm := opts.Telemetry
	if tm == nil {
		tm = telemetry.GlobalTelemetry
	}

	shapes := world.NewShapeRegistry()
	instances := world.NewInstanceRegistry()
	factory := world.NewFactory(opts.Loader, logger)
	now := time.Now().UTC()

	s := &RoomService{
		roomID:      roomID,
		ownerUserID: opts.OwnerUserID,
		createdAt:   now,
		updatedAt:   now,
		scene:       world.NewScene(),
		shapes:      shapes,
		instances:   instances,
		factory:     factory,
		engine:      game.NewEngine(instances, factory, logger),
		behaviors:   make(map[string]entity.BehaviorDefinition),
		telemetry:   tm,
		logger:      logger,
	}
	s.reconciler = &Reconciler{
		Scene:     s.scene,
		Factory:   factory,
		Shapes:    shapes,
		Instances: instances,
		Behaviors: registrarFunc(s.registerBehavior),
		Logger:    logger,
	}

	logger.Printf("[RoomService] Комната создана: %s", roomID)
	return s
}

// RoomID идентификатор комнаты
func (s *RoomService) RoomID() string {
	return s.roomID
}

// ApplyBlueprint применяет blueprint к комнате
func (s *RoomService) ApplyBlueprint(ctx context.Context, bp *entity.BlueprintResponse) entity.ApplyBlueprintResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := s.reconciler.Apply(ctx, bp)
	s.updatedAt = time.Now().UTC()

	submitted := 0
	if bp != nil {
		submitted = len(bp.Behavior.Behaviors)
	}
	s.telemetry.RecordApply(result, submitted)
	return result
}

// registerBehavior вызывается реконсилером под мьютексом комнаты.
// Движок уничтожает прежнее поведение с тем же id до создания нового,
// поэтому при ошибке запись тоже удаляется.
func (s *RoomService) registerBehavior(def entity.BehaviorDefinition) error {
	if err := s.engine.RegisterBehavior(def); err != nil {
		s.forgetBehavior(def.BehaviorID)
		return err
	}
	if _, exists := s.behaviors[def.BehaviorID]; !exists {
		s.behaviorOrder = append(s.behaviorOrder, def.BehaviorID)
	}
	s.behaviors[def.BehaviorID] = def
	return nil
}

func (s *RoomService) forgetBehavior(behaviorID string) {
	if _, exists := s.behaviors[behaviorID]; !exists {
		return
	}
	delete(s.behaviors, behaviorID)
	for i, id := range s.behaviorOrder {
		if id == behaviorID {
			s.behaviorOrder = append(s.behaviorOrder[:i], s.behaviorOrder[i+1:]...)
			break
		}
	}
}

// Tick продвигает поведения на delta секунд
func (s *RoomService) Tick(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Update(delta)
}

// HandleEvent раздает событие поведениям
func (s *RoomService) HandleEvent(event entity.GameEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.telemetry.RecordEvent(event)
	s.engine.HandleEvent(event)
	s.updatedAt = time.Now().UTC()
}

// RemoveInstance удаляет экземпляр: сначала отсоединяет объект от сцены, потом запись
func (s *RoomService) RemoveInstance(instanceID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.instances.GetRenderable(instanceID)
	if ok {
		world.Detach(record)
		s.instances.Remove(instanceID)
		s.updatedAt = time.Now().UTC()
		s.logger.Printf("[RoomService] Удален экземпляр %s", instanceID)
	}
	s.telemetry.RecordRemove(instanceID, ok)
	return ok
}

// SetCamera подключает камеру хоста к машинам
func (s *RoomService) SetCamera(camera game.ChaseCamera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetCamera(camera)
}

// SetCharacter подключает персонажа хоста к машинам
func (s *RoomService) SetCharacter(character world.Renderable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.character = character
	s.engine.SetCharacter(character)
}

// Pick находит видимый экземпляр под точкой (x, z) на полу. Из нескольких
// накрывающих точку выбирается самый маленький в плане, он лежит сверху.
// Результат восстанавливается по метке идентичности объекта сцены.
func (s *RoomService) Pick(x, z float64) (world.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		best     world.Renderable
		bestArea = math.Inf(1)
	)
	point := mgl64.Vec2{x, z}
	for _, inst := range s.instances.All() {
		r := inst.Renderable
		if !r.Visible() {
			continue
		}
		pos := world.WorldPosition(r)
		half := footprint(r).Mul(0.5)

		offset := point.Sub(mgl64.Vec2{pos[0], pos[2]})
		if math.Abs(offset[0]) > half[0] || math.Abs(offset[1]) > half[1] {
			continue
		}
		if area := half[0] * half[1]; area < bestArea {
			best, bestArea = r, area
		}
	}
	if best == nil {
		return world.Identity{}, false
	}
	return s.instances.Identify(best)
}

// footprint размер объекта в плане (x, z) с учетом масштаба, не меньше минимальной клетки
func footprint(r world.Renderable) mgl64.Vec2 {
	size := world.PlanSize(r)
	return mgl64.Vec2{math.Max(size[0], minPickSize), math.Max(size[1], minPickSize)}
}

// Snapshot возвращает состояние комнаты с живыми трансформациями экземпляров
func (s *RoomService) Snapshot() entity.RoomState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := entity.RoomState{
		RoomID:        s.roomID,
		OwnerUserID:   s.ownerUserID,
		CreatedAt:     s.createdAt.Format(time.RFC3339),
		UpdatedAt:     s.updatedAt.Format(time.RFC3339),
		SchemaVersion: entity.RoomSchemaVersion,
		Shapes:        s.shapes.All(),
		Instances:     make([]entity.SceneObjectInstance, 0, s.instances.Len()),
		Behaviors:     make([]entity.BehaviorDefinition, 0, len(s.behaviorOrder)),
	}

	for _, inst := range s.instances.All() {
		state.Instances = append(state.Instances, liveDefinition(inst))
	}
	for _, id := range s.behaviorOrder {
		state.Behaviors = append(state.Behaviors, s.behaviors[id])
	}
	if s.character != nil {
		state.PlayerState.Position = entity.Vector3From(s.character.Position())
		state.PlayerState.Rotation = entity.Vector3From(s.character.Euler())
	}
	return state
}

// liveDefinition переносит трансформацию объекта сцены в определение.
// Форма вращения (кватернион или углы) сохраняется такой, какой пришла.
func liveDefinition(inst world.RegisteredInstance) entity.SceneObjectInstance {
	def := inst.Definition
	r := inst.Renderable

	def.Position = entity.Vector3From(r.Position())
	if def.Rotation.IsQuaternion() {
		q := r.Quaternion()
		def.Rotation = entity.QuaternionRotation(q.V[0], q.V[1], q.V[2], q.W)
	} else {
		e := r.Euler()
		def.Rotation = entity.EulerRotation(e[0], e[1], e[2])
	}
	def.Scale = entity.Vector3From(r.Scale())

	visible := r.Visible()
	def.Visible = &visible
	return def
}

// Reset уничтожает поведения, отсоединяет объекты и очищает каталоги
func (s *RoomService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Clear()
	for _, inst := range s.instances.All() {
		world.Detach(inst.Renderable)
	}
	s.instances.Clear()
	s.shapes.Clear()
	s.factory.ClearAssetCache()
	s.behaviors = make(map[string]entity.BehaviorDefinition)
	s.behaviorOrder = nil
	s.updatedAt = time.Now().UTC()

	s.logger.Printf("[RoomService] Комната %s очищена", s.roomID)
}

// Scene корневой узел сцены комнаты
func (s *RoomService) Scene() *world.Node {
	return s.scene
}
