package world

import (
	"sync"

	"roomie/backend/internal/core/domain/entity"
)

// ShapeRegistry каталог шаблонов форм.
// Шаблон после регистрации не меняется: новая форма должна прийти с новым shapeId.
type ShapeRegistry struct {
	shapes map[string]entity.ShapeDefinition
	order  []string
	mu     sync.RWMutex
}

// NewShapeRegistry создает пустой каталог
func NewShapeRegistry() *ShapeRegistry {
	return &ShapeRegistry{
		shapes: make(map[string]entity.ShapeDefinition),
	}
}

// Register добавляет шаблон, если его еще нет. Побеждает первый записавший.
// Возвращает true, если шаблон был добавлен.
func (r *ShapeRegistry) Register(shape entity.ShapeDefinition) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.shapes[shape.ShapeID]; exists {
		return false
	}
	r.shapes[shape.ShapeID] = shape.Clone()
	r.order = append(r.order, shape.ShapeID)
	return true
}

// Get возвращает копию шаблона по идентификатору
func (r *ShapeRegistry) Get(shapeID string) (entity.ShapeDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	shape, exists := r.shapes[shapeID]
	if !exists {
		return entity.ShapeDefinition{}, false
	}
	return shape.Clone(), true
}

func (r *ShapeRegistry) Has(shapeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.shapes[shapeID]
	return exists
}

// Remove удаляет шаблон. Экземпляры, уже созданные по нему, не затрагиваются.
func (r *ShapeRegistry) Remove(shapeID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.shapes[shapeID]; !exists {
		return false
	}
	delete(r.shapes, shapeID)
	for i, id := range r.order {
		if id == shapeID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// IDs возвращает идентификаторы в порядке регистрации
func (r *ShapeRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All возвращает копии всех шаблонов в порядке регистрации
func (r *ShapeRegistry) All() []entity.ShapeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entity.ShapeDefinition, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.shapes[id].Clone())
	}
	return result
}

func (r *ShapeRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shapes = make(map[string]entity.ShapeDefinition)
	r.order = nil
}

func (r *ShapeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shapes)
}
