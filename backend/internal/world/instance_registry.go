package world

import (
	"fmt"
	"sync"

	"roomie/backend/internal/core/domain/entity"
)

// RegisteredInstance запись реестра: декларативное определение и живой объект сцены
type RegisteredInstance struct {
	Definition entity.SceneObjectInstance
	Renderable Renderable
}

// Identity метка, по которой слой выбора восстанавливает экземпляр из объекта сцены
type Identity struct {
	InstanceID string
	ShapeID    string
}

// InstanceRegistry единственный источник истины о том, что есть в сцене и где.
// Объекты сцены не создает, только отслеживает их и помечает идентичностью.
type InstanceRegistry struct {
	instances map[string]*RegisteredInstance
	order     []string
	identity  map[Renderable]Identity
	mu        sync.RWMutex
}

// NewInstanceRegistry создает пустой реестр
func NewInstanceRegistry() *InstanceRegistry {
	return &InstanceRegistry{
		instances: make(map[string]*RegisteredInstance),
		identity:  make(map[Renderable]Identity),
	}
}

// Register привязывает новый instanceId к уже созданному объекту сцены
func (r *InstanceRegistry) Register(def entity.SceneObjectInstance, renderable Renderable) error {
	if renderable == nil {
		return fmt.Errorf("register %s: %w", def.InstanceID, ErrNilRenderable)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[def.InstanceID]; exists {
		return fmt.Errorf("instance %s already registered", def.InstanceID)
	}

	r.instances[def.InstanceID] = &RegisteredInstance{
		Definition: def.Clone(),
		Renderable: renderable,
	}
	r.order = append(r.order, def.InstanceID)
	r.identity[renderable] = Identity{InstanceID: def.InstanceID, ShapeID: def.ShapeID}
	return nil
}

// Get возвращает копию записи
func (r *InstanceRegistry) Get(instanceID string) (RegisteredInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, exists := r.instances[instanceID]
	if !exists {
		return RegisteredInstance{}, false
	}
	return RegisteredInstance{Definition: inst.Definition.Clone(), Renderable: inst.Renderable}, true
}

func (r *InstanceRegistry) GetRenderable(instanceID string) (Renderable, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, exists := r.instances[instanceID]
	if !exists {
		return nil, false
	}
	return inst.Renderable, true
}

func (r *InstanceRegistry) GetDefinition(instanceID string) (entity.SceneObjectInstance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, exists := r.instances[instanceID]
	if !exists {
		return entity.SceneObjectInstance{}, false
	}
	return inst.Definition.Clone(), true
}

func (r *InstanceRegistry) Has(instanceID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.instances[instanceID]
	return exists
}

// UpdateDefinition заменяет определение целиком и обновляет метку идентичности.
// Трансформацию объекта сцены не трогает.
func (r *InstanceRegistry) UpdateDefinition(instanceID string, def entity.SceneObjectInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, exists := r.instances[instanceID]
	if !exists {
		return fmt.Errorf("update %s: %w", instanceID, ErrInstanceNotFound)
	}
	def = def.Clone()
	def.InstanceID = instanceID
	inst.Definition = def
	r.identity[inst.Renderable] = Identity{InstanceID: instanceID, ShapeID: def.ShapeID}
	return nil
}

// UpdateRenderable вызывает fn с живым объектом экземпляра.
// Поведения меняют объекты сцены только через этот метод, каждый раз разрешая id заново.
func (r *InstanceRegistry) UpdateRenderable(instanceID string, fn func(Renderable)) bool {
	renderable, ok := r.GetRenderable(instanceID)
	if !ok {
		return false
	}
	fn(renderable)
	return true
}

// Remove удаляет запись. Отсоединение объекта от сцены остается за вызывающим.
func (r *InstanceRegistry) Remove(instanceID string) (RegisteredInstance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, exists := r.instances[instanceID]
	if !exists {
		return RegisteredInstance{}, false
	}
	delete(r.instances, instanceID)
	delete(r.identity, inst.Renderable)
	for i, id := range r.order {
		if id == instanceID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *inst, true
}

// FindByTag линейный поиск по тегу в порядке регистрации
func (r *InstanceRegistry) FindByTag(tag string) []RegisteredInstance {
	return r.filter(func(def *entity.SceneObjectInstance) bool {
		return def.HasTag(tag)
	})
}

// FindByShapeID линейный поиск по шаблону формы
func (r *InstanceRegistry) FindByShapeID(shapeID string) []RegisteredInstance {
	return r.filter(func(def *entity.SceneObjectInstance) bool {
		return def.ShapeID == shapeID
	})
}

func (r *InstanceRegistry) filter(match func(def *entity.SceneObjectInstance) bool) []RegisteredInstance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []RegisteredInstance
	for _, id := range r.order {
		inst := r.instances[id]
		if match(&inst.Definition) {
			result = append(result, RegisteredInstance{Definition: inst.Definition.Clone(), Renderable: inst.Renderable})
		}
	}
	return result
}

// IDs возвращает идентификаторы в порядке регистрации
func (r *InstanceRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All возвращает все записи в порядке регистрации
func (r *InstanceRegistry) All() []RegisteredInstance {
	return r.filter(func(*entity.SceneObjectInstance) bool { return true })
}

// Clear забывает все записи. Объекты сцены не отсоединяются.
func (r *InstanceRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = make(map[string]*RegisteredInstance)
	r.identity = make(map[Renderable]Identity)
	r.order = nil
}

func (r *InstanceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// Identify восстанавливает экземпляр по выбранному объекту сцены.
// Поднимается по родителям, поэтому клик по вложенному мешу находит свой экземпляр.
func (r *InstanceRegistry) Identify(renderable Renderable) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for cur := renderable; cur != nil; cur = cur.Parent() {
		if id, ok := r.identity[cur]; ok {
			return id, true
		}
	}
	return Identity{}, false
}
