package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/core/port/in/roommanagement"
	"roomie/backend/internal/validation"
)

var errMissingField = errors.New("missing field")

// handlerFunc обработчик входящего сообщения одного типа
type handlerFunc func(ctx context.Context, client *client, msg InboundMessage) error

// client подключение одного пользователя
type client struct {
	id     string
	writer *SafeWriter
}

// WSAdapter адаптер для WebSocket соединений: переводит сообщения клиентов
// в вызовы порта комнаты и рассылает снимки состояния
type WSAdapter struct {
	upgrader  websocket.Upgrader
	handlers  map[string]handlerFunc
	room      roommanagement.RoomManagementPort
	clients   map[*client]struct{}
	clientsMu sync.Mutex
	logger    *log.Logger
}

// NewWSAdapter создает новый экземпляр WSAdapter
func NewWSAdapter(room roommanagement.RoomManagementPort, logger *log.Logger) *WSAdapter {
	if logger == nil {
		logger = log.Default()
	}
	a := &WSAdapter{
		room: room,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		handlers: make(map[string]handlerFunc),
		clients:  make(map[*client]struct{}),
		logger:   logger,
	}
	a.registerHandlers()
	return a
}

func (a *WSAdapter) registerHandlers() {
	a.handlers[MessageTypeBlueprint] = a.handleBlueprint
	a.handlers[MessageTypeResponse] = a.handleResponse
	a.handlers[MessageTypeEvent] = a.handleEvent
	a.handlers[MessageTypeRemove] = a.handleRemove
	a.handlers[MessageTypeReset] = a.handleReset
	a.handlers[MessageTypePing] = a.handlePing
	a.handlers[MessageTypeSnapshot] = a.handleSnapshot
}

// handleBlueprint проверяет blueprint целиком и только потом передает его комнате
func (a *WSAdapter) handleBlueprint(ctx context.Context, c *client, msg InboundMessage) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("blueprint payload: %w", errMissingField)
	}

	bp, issues := validation.ValidateComplete(msg.Payload)
	if len(issues) > 0 {
		a.logger.Printf("[WS] Blueprint от %s отклонен: %d замечаний", c.id, len(issues))
		return c.writer.WriteJSON(NewErrorMessage("Blueprint validation failed", issues))
	}

	result := a.room.ApplyBlueprint(ctx, bp)
	return c.writer.WriteJSON(NewApplyResultMessage(result, nil))
}

// handleResponse принимает сырой ответ оркестратора. Ответ, который не является
// blueprint'ом, применяется как текстовый, замечания возвращаются клиенту.
func (a *WSAdapter) handleResponse(ctx context.Context, c *client, msg InboundMessage) error {
	bp, issues, err := validation.DecodeResponse(msg.Payload)
	if err != nil {
		return c.writer.WriteJSON(NewErrorMessage(err.Error(), nil))
	}
	if len(issues) > 0 {
		a.logger.Printf("[WS] ПРЕДУПРЕЖДЕНИЕ: ответ от %s не является blueprint'ом, применяется только сообщение", c.id)
	}

	result := a.room.ApplyBlueprint(ctx, bp)
	return c.writer.WriteJSON(NewApplyResultMessage(result, issues))
}

func (a *WSAdapter) handleEvent(ctx context.Context, c *client, msg InboundMessage) error {
	if msg.Event == nil {
		return fmt.Errorf("event: %w", errMissingField)
	}
	a.room.HandleEvent(*msg.Event)
	return nil
}

func (a *WSAdapter) handleRemove(ctx context.Context, c *client, msg InboundMessage) error {
	if msg.InstanceID == "" {
		return fmt.Errorf("instanceId: %w", errMissingField)
	}
	removed := a.room.RemoveInstance(msg.InstanceID)
	return c.writer.WriteJSON(OutboundMessage{
		Type:       MessageTypeInfo,
		Message:    "remove",
		InstanceID: msg.InstanceID,
		Removed:    &removed,
	})
}

func (a *WSAdapter) handleReset(ctx context.Context, c *client, msg InboundMessage) error {
	a.room.Reset()
	a.logger.Printf("[WS] Клиент %s очистил комнату", c.id)
	return a.BroadcastSnapshot(a.room.Snapshot())
}

func (a *WSAdapter) handlePing(ctx context.Context, c *client, msg InboundMessage) error {
	return c.writer.WriteJSON(NewPongMessage(msg.ClientTime))
}

func (a *WSAdapter) handleSnapshot(ctx context.Context, c *client, msg InboundMessage) error {
	return c.writer.WriteJSON(NewSnapshotMessage(a.room.Snapshot()))
}

// HandleWS обрабатывает WebSocket соединения
func (a *WSAdapter) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Printf("[WS] Ошибка при установке WebSocket соединения: %v", err)
		return
	}

	c := &client{id: uuid.NewString(), writer: NewSafeWriter(conn)}

	a.clientsMu.Lock()
	a.clients[c] = struct{}{}
	a.clientsMu.Unlock()

	defer func() {
		a.clientsMu.Lock()
		delete(a.clients, c)
		a.clientsMu.Unlock()
		c.writer.Close()
		a.logger.Printf("[WS] Клиент %s отключен", c.id)
	}()

	a.logger.Printf("[WS] Клиент %s подключен к комнате %s", c.id, a.room.RoomID())

	welcome := NewInfoMessage("connected")
	welcome.SessionID = c.id
	welcome.RoomID = a.room.RoomID()
	if err := c.writer.WriteJSON(welcome); err != nil {
		a.logger.Printf("[WS] Ошибка отправки приветствия %s: %v", c.id, err)
		return
	}
	// Новый клиент сразу получает текущее состояние комнаты
	if err := c.writer.WriteJSON(NewSnapshotMessage(a.room.Snapshot())); err != nil {
		a.logger.Printf("[WS] Ошибка отправки начального снимка %s: %v", c.id, err)
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				a.logger.Printf("[WS] Ошибка при чтении сообщения от %s: %v", c.id, err)
			}
			return
		}
		a.dispatch(r.Context(), c, data)
	}
}

// dispatch разбирает сообщение и вызывает обработчик его типа.
// Ошибка обработчика отправляется клиенту и не разрывает соединение.
func (a *WSAdapter) dispatch(ctx context.Context, c *client, data []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		a.logger.Printf("[WS] Некорректное сообщение от %s: %v", c.id, err)
		c.writer.WriteJSON(NewErrorMessage(fmt.Sprintf("invalid message: %v", err), nil))
		return
	}

	handler, ok := a.handlers[msg.Type]
	if !ok {
		a.logger.Printf("[WS] Нет обработчика для типа сообщения: %q", msg.Type)
		c.writer.WriteJSON(NewErrorMessage(fmt.Sprintf("unknown message type %q", msg.Type), nil))
		return
	}

	if err := handler(ctx, c, msg); err != nil {
		a.logger.Printf("[WS] Ошибка обработки сообщения типа %s: %v", msg.Type, err)
		c.writer.WriteJSON(NewErrorMessage(err.Error(), nil))
	}
}

// BroadcastSnapshot отправляет снимок комнаты всем подключенным клиентам
func (a *WSAdapter) BroadcastSnapshot(state entity.RoomState) error {
	msg := NewSnapshotMessage(state)

	a.clientsMu.Lock()
	clients := make([]*client, 0, len(a.clients))
	for c := range a.clients {
		clients = append(clients, c)
	}
	a.clientsMu.Unlock()

	var errs []error
	for _, c := range clients {
		if err := c.writer.WriteJSON(msg); err != nil {
			errs = append(errs, fmt.Errorf("client %s: %w", c.id, err))
		}
	}
	return errors.Join(errs...)
}

// ClientCount количество подключенных клиентов
func (a *WSAdapter) ClientCount() int {
	a.clientsMu.Lock()
	defer a.clientsMu.Unlock()
	return len(a.clients)
}
