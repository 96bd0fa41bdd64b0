package ws

import (
	"encoding/json"
	"time"

	"roomie/backend/internal/core/domain/entity"
)

// Константы для WebSocket сообщений
const (
	// Входящие
	MessageTypeBlueprint = "blueprint" // Blueprint, проходит полную валидацию
	MessageTypeResponse  = "response"  // Сырой ответ оркестратора, допускает текстовый ответ
	MessageTypeEvent     = "event"     // Игровое событие
	MessageTypeRemove    = "remove"    // Удаление экземпляра
	MessageTypeReset     = "reset"     // Очистка комнаты
	MessageTypePing      = "ping"      // Пинг для измерения задержки

	// Исходящие
	MessageTypeApplyResult = "apply_result" // Результат применения blueprint'а
	MessageTypeSnapshot    = "snapshot"     // Состояние комнаты
	MessageTypePong        = "pong"         // Ответ на пинг
	MessageTypeInfo        = "info"         // Информационное сообщение
	MessageTypeError       = "error"        // Ошибка обработки сообщения
)

// InboundMessage входящее сообщение клиента. Поля заполняются в зависимости от типа.
type InboundMessage struct {
	Type       string            `json:"type"`
	Payload    json.RawMessage   `json:"payload,omitempty"`
	Event      *entity.GameEvent `json:"event,omitempty"`
	InstanceID string            `json:"instanceId,omitempty"`
	ClientTime float64           `json:"clientTime,omitempty"`
}

// OutboundMessage исходящее сообщение сервера
type OutboundMessage struct {
	Type       string                       `json:"type"`
	SessionID  string                       `json:"sessionId,omitempty"`
	RoomID     string                       `json:"roomId,omitempty"`
	Message    string                       `json:"message,omitempty"`
	Result     *entity.ApplyBlueprintResult `json:"result,omitempty"`
	State      *entity.RoomState            `json:"state,omitempty"`
	Issues     []string                     `json:"issues,omitempty"`
	InstanceID string                       `json:"instanceId,omitempty"`
	Removed    *bool                        `json:"removed,omitempty"`
	ClientTime float64                      `json:"clientTime,omitempty"`
	ServerTime int64                        `json:"serverTime,omitempty"`
}

// GetCurrentServerTime возвращает текущее серверное время в миллисекундах
func GetCurrentServerTime() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// NewPongMessage создает новое сообщение-ответ на пинг
func NewPongMessage(clientTime float64) OutboundMessage {
	return OutboundMessage{
		Type:       MessageTypePong,
		ClientTime: clientTime,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewInfoMessage создает новое информационное сообщение
func NewInfoMessage(message string) OutboundMessage {
	return OutboundMessage{Type: MessageTypeInfo, Message: message}
}

// NewErrorMessage создает сообщение об ошибке с замечаниями валидации
func NewErrorMessage(message string, issues []string) OutboundMessage {
	return OutboundMessage{Type: MessageTypeError, Message: message, Issues: issues}
}

// NewApplyResultMessage создает сообщение с результатом применения blueprint'а
func NewApplyResultMessage(result entity.ApplyBlueprintResult, issues []string) OutboundMessage {
	return OutboundMessage{
		Type:       MessageTypeApplyResult,
		Message:    result.Message,
		Result:     &result,
		Issues:     issues,
		ServerTime: GetCurrentServerTime(),
	}
}

// NewSnapshotMessage создает сообщение со снимком комнаты
func NewSnapshotMessage(state entity.RoomState) OutboundMessage {
	return OutboundMessage{
		Type:       MessageTypeSnapshot,
		RoomID:     state.RoomID,
		State:      &state,
		ServerTime: GetCurrentServerTime(),
	}
}
