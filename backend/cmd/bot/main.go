package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"roomie/backend/internal/adapter/in/ws"
	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/fixtures"
)

// step один шаг сценария: событие и пауза после него
type step struct {
	event entity.GameEvent
	pause time.Duration
}

// Bot представляет собой бота, который подключается к комнате, загружает
// встроенный blueprint и проигрывает сценарий событий
type Bot struct {
	ID        string
	ServerURL string
	Conn      *websocket.Conn
	Running   bool
	Stats     BotStats
	Fixture   string
	Rounds    int
	StepDelay time.Duration
	mu        sync.RWMutex
	writeMu   sync.Mutex // Мьютекс для синхронизации записи в WebSocket
	sessionID string     // ID сессии, полученный от сервера
	applied   chan entity.ApplyBlueprintResult
}

// BotStats содержит статистику работы бота
type BotStats struct {
	EventsSent        int
	ResponsesReceived int
	Snapshots         int
	Errors            int
	StartTime         time.Time
	mu                sync.RWMutex
}

// NewBot создает нового бота
func NewBot(id, serverURL, fixture string, rounds int, stepDelay time.Duration) *Bot {
	return &Bot{
		ID:        id,
		ServerURL: serverURL,
		Fixture:   fixture,
		Rounds:    rounds,
		StepDelay: stepDelay,
		Stats: BotStats{
			StartTime: time.Now(),
		},
		applied: make(chan entity.ApplyBlueprintResult, 1),
	}
}

// Connect подключается к серверу
func (b *Bot) Connect() error {
	u, err := url.Parse(b.ServerURL)
	if err != nil {
		return fmt.Errorf("неверный URL: %w", err)
	}

	log.Printf("[Bot %s] Подключение к %s", b.ID, u.String())

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("ошибка подключения: %w", err)
	}

	b.mu.Lock()
	b.Conn = conn
	b.Running = true
	b.mu.Unlock()

	log.Printf("[Bot %s] Успешно подключен", b.ID)
	return nil
}

// Disconnect отключается от сервера
func (b *Bot) Disconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Conn != nil && b.Running {
		b.Running = false
		b.Conn.Close()
		log.Printf("[Bot %s] Отключен", b.ID)
	}
}

func (b *Bot) isRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Running
}

func (b *Bot) send(msg ws.InboundMessage) error {
	b.mu.RLock()
	conn := b.Conn
	b.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("соединение не установлено")
	}

	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return conn.WriteJSON(msg)
}

// sendBlueprint отправляет встроенный blueprint и ждет результата применения
func (b *Bot) sendBlueprint() error {
	bp, err := fixtures.ByName(b.Fixture)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("ошибка сериализации blueprint: %w", err)
	}
	if err := b.send(ws.InboundMessage{Type: ws.MessageTypeBlueprint, Payload: payload}); err != nil {
		return fmt.Errorf("ошибка отправки blueprint: %w", err)
	}

	select {
	case result := <-b.applied:
		log.Printf("[Bot %s] Blueprint %s применен: создано %d, обновлено %d, ошибок %d",
			b.ID, b.Fixture, len(result.NewInstanceIDs), len(result.UpdatedInstanceIDs), len(result.Errors))
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("нет ответа на blueprint")
	}
}

// sendEvent отправляет игровое событие
func (b *Bot) sendEvent(event entity.GameEvent) error {
	if err := b.send(ws.InboundMessage{Type: ws.MessageTypeEvent, Event: &event}); err != nil {
		b.Stats.mu.Lock()
		b.Stats.Errors++
		b.Stats.mu.Unlock()
		return fmt.Errorf("ошибка отправки события: %w", err)
	}

	b.Stats.mu.Lock()
	b.Stats.EventsSent++
	b.Stats.mu.Unlock()

	log.Printf("[Bot %s] Отправлено событие %s %s%s", b.ID, event.Type, event.InstanceID, event.Key)
	return nil
}

// sendPing отправляет ping сообщение
func (b *Bot) sendPing() error {
	return b.send(ws.InboundMessage{Type: ws.MessageTypePing, ClientTime: float64(time.Now().UnixMilli())})
}

// script возвращает сценарий событий для загруженного blueprint'а
func (b *Bot) script() []step {
	d := b.StepDelay
	switch b.Fixture {
	case fixtures.Lamp:
		return []step{
			{entity.ClickEvent("lamp-bulb-1"), d},
			{entity.ClickEvent("lamp-bulb-1"), d},
		}
	case fixtures.Vehicle:
		return []step{
			{entity.KeyEvent("e", entity.KeyStateDown), d / 4},
			{entity.KeyEvent("e", entity.KeyStateUp), d},
			{entity.KeyEvent("w", entity.KeyStateDown), 3 * d},
			{entity.KeyEvent("a", entity.KeyStateDown), d},
			{entity.KeyEvent("a", entity.KeyStateUp), d},
			{entity.KeyEvent("w", entity.KeyStateUp), d},
			{entity.KeyEvent("s", entity.KeyStateDown), 2 * d},
			{entity.KeyEvent("s", entity.KeyStateUp), d},
			{entity.KeyEvent("e", entity.KeyStateDown), d / 4},
			{entity.KeyEvent("e", entity.KeyStateUp), d},
		}
	case fixtures.Chessboard:
		return []step{
			{entity.ClickEvent("white-pawn-3"), d},
			{entity.ClickAtEvent("board-1", entity.Vector3{X: -0.5, Y: 0.1, Z: -0.5}), d},
			{entity.ClickEvent("black-pawn-3"), d},
			{entity.ClickAtEvent("board-1", entity.Vector3{X: -0.5, Y: 0.1, Z: 0.5}), d},
		}
	}
	return nil
}

// handleMessage обрабатывает входящие сообщения
func (b *Bot) handleMessage(messageType int, data []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var msg ws.OutboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("[Bot %s] Ошибка разбора сообщения: %v", b.ID, err)
		return
	}

	switch msg.Type {
	case ws.MessageTypeApplyResult:
		b.Stats.mu.Lock()
		b.Stats.ResponsesReceived++
		b.Stats.mu.Unlock()
		if msg.Result != nil {
			select {
			case b.applied <- *msg.Result:
			default:
			}
		}

	case ws.MessageTypePong:
		log.Printf("[Bot %s] Получен pong, задержка %dms", b.ID, time.Now().UnixMilli()-int64(msg.ClientTime))

	case ws.MessageTypeInfo:
		if msg.SessionID != "" {
			b.mu.Lock()
			b.sessionID = msg.SessionID
			b.mu.Unlock()
			log.Printf("[Bot %s] Сессия %s в комнате %s", b.ID, msg.SessionID, msg.RoomID)
		} else {
			log.Printf("[Bot %s] Информация: %s", b.ID, msg.Message)
		}

	case ws.MessageTypeSnapshot:
		// Снимки приходят периодически, считаем молча
		b.Stats.mu.Lock()
		b.Stats.Snapshots++
		b.Stats.mu.Unlock()

	case ws.MessageTypeError:
		b.Stats.mu.Lock()
		b.Stats.Errors++
		b.Stats.mu.Unlock()
		log.Printf("[Bot %s] Ошибка сервера: %s %v", b.ID, msg.Message, msg.Issues)

	default:
		log.Printf("[Bot %s] Неизвестный тип сообщения: %s", b.ID, msg.Type)
	}
}

// Run запускает бота
func (b *Bot) Run() error {
	if err := b.Connect(); err != nil {
		return err
	}
	defer b.Disconnect()

	// Запускаем горутину для чтения сообщений
	go func() {
		for b.isRunning() {
			messageType, data, err := b.Conn.ReadMessage()
			if err != nil {
				if b.isRunning() {
					log.Printf("[Bot %s] Ошибка чтения сообщения: %v", b.ID, err)
					b.Stats.mu.Lock()
					b.Stats.Errors++
					b.Stats.mu.Unlock()
				}
				return
			}
			b.handleMessage(messageType, data)
		}
	}()

	// Запускаем горутину для отправки ping
	go func() {
		pingTicker := time.NewTicker(5 * time.Second)
		defer pingTicker.Stop()

		for b.isRunning() {
			<-pingTicker.C
			if err := b.sendPing(); err != nil && b.isRunning() {
				log.Printf("[Bot %s] Ошибка отправки ping: %v", b.ID, err)
			}
		}
	}()

	if err := b.sendBlueprint(); err != nil {
		return err
	}

	steps := b.script()
	for round := 0; round < b.Rounds && b.isRunning(); round++ {
		log.Printf("[Bot %s] Раунд %d/%d", b.ID, round+1, b.Rounds)
		for _, s := range steps {
			if err := b.sendEvent(s.event); err != nil {
				log.Printf("[Bot %s] %v", b.ID, err)
			}
			time.Sleep(s.pause)
		}
	}

	log.Printf("[Bot %s] Завершение работы", b.ID)
	return nil
}

// PrintStats выводит статистику бота
func (b *Bot) PrintStats() {
	b.Stats.mu.RLock()
	defer b.Stats.mu.RUnlock()

	duration := time.Since(b.Stats.StartTime)
	b.mu.RLock()
	sessionID := b.sessionID
	b.mu.RUnlock()

	log.Printf("[Bot %s] Статистика (сессия %s):", b.ID, sessionID)
	log.Printf("  Время работы: %v", duration)
	log.Printf("  Событий отправлено: %d", b.Stats.EventsSent)
	log.Printf("  Ответов получено: %d", b.Stats.ResponsesReceived)
	log.Printf("  Снимков получено: %d", b.Stats.Snapshots)
	log.Printf("  Ошибок: %d", b.Stats.Errors)
}

func main() {
	// Флаги командной строки
	var (
		serverURL = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		botID     = flag.String("id", "bot1", "ID бота")
		fixture   = flag.String("fixture", fixtures.Lamp, fmt.Sprintf("Встроенный blueprint %v", fixtures.Names()))
		rounds    = flag.Int("rounds", 3, "Сколько раз проиграть сценарий")
		stepDelay = flag.Duration("step", 500*time.Millisecond, "Пауза между событиями сценария")
	)
	flag.Parse()

	bot := NewBot(*botID, *serverURL, *fixture, *rounds, *stepDelay)

	// Обработка сигналов для корректного завершения
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Printf("[Bot %s] Получен сигнал прерывания, завершение работы...", bot.ID)
		bot.Disconnect()
		bot.PrintStats()
		os.Exit(0)
	}()

	if err := bot.Run(); err != nil {
		log.Printf("[Bot %s] Ошибка: %v", bot.ID, err)
		os.Exit(1)
	}

	bot.PrintStats()
}
