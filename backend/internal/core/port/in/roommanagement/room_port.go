package roommanagement

import (
	"context"

	"roomie/backend/internal/core/domain/entity"
)

// RoomManagementPort определяет интерфейс для управления комнатой
type RoomManagementPort interface {
	// RoomID возвращает идентификатор комнаты
	RoomID() string

	// ApplyBlueprint применяет blueprint к сцене комнаты
	ApplyBlueprint(ctx context.Context, bp *entity.BlueprintResponse) entity.ApplyBlueprintResult

	// HandleEvent передает событие ввода поведениям
	HandleEvent(event entity.GameEvent)

	// RemoveInstance удаляет экземпляр из сцены и реестра
	RemoveInstance(instanceID string) bool

	// Snapshot возвращает текущее состояние комнаты
	Snapshot() entity.RoomState

	// Reset очищает комнату
	Reset()
}
