package telemetry

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
	"time"

	"roomie/backend/internal/core/domain/entity"
)

// Имена счетчиков
const (
	CounterBlueprintsApplied  = "blueprints_applied"
	CounterBlueprintsFailed   = "blueprints_failed"
	CounterInstancesCreated   = "instances_created"
	CounterInstancesUpdated   = "instances_updated"
	CounterInstancesRemoved   = "instances_removed"
	CounterApplyErrors        = "apply_errors"
	CounterBehaviorsSubmitted = "behaviors_submitted"
	CounterEventsDispatched   = "events_dispatched"
)

// TelemetryData запись телеметрии об одном действии в комнате
type TelemetryData struct {
	Timestamp int64           `json:"timestamp"`          // Время в миллисекундах
	Kind      string          `json:"kind"`               // apply, event, remove
	Subject   string          `json:"subject"`            // id экземпляра или тип события
	Success   bool            `json:"success"`            // Итог операции
	Created   int             `json:"created,omitempty"`  // Новых экземпляров
	Updated   int             `json:"updated,omitempty"`  // Обновленных экземпляров
	Errors    []string        `json:"errors,omitempty"`   // Ошибки применения
	Position  *entity.Vector3 `json:"position,omitempty"` // Точка клика, если есть
}

// TelemetryManager управляет сбором и выводом телеметрии
type TelemetryManager struct {
	enabled    bool
	data       []TelemetryData
	mutex      sync.RWMutex
	maxEntries int

	// Счетчики: периодические сбрасываются после сводки, накопленные живут всегда
	counters      map[string]int
	totals        map[string]int
	lastPrint     time.Time
	printInterval time.Duration
}

// NewTelemetryManager создает новый менеджер телеметрии
func NewTelemetryManager() *TelemetryManager {
	return &TelemetryManager{
		enabled:       true,
		data:          make([]TelemetryData, 0),
		maxEntries:    200, // Храним последние 200 записей
		counters:      make(map[string]int),
		totals:        make(map[string]int),
		lastPrint:     time.Now(),
		printInterval: 30 * time.Second,
	}
}

// SetPrintInterval задает период сводки
func (tm *TelemetryManager) SetPrintInterval(interval time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()
	tm.printInterval = interval
}

// RecordApply записывает результат применения blueprint'а
func (tm *TelemetryManager) RecordApply(result entity.ApplyBlueprintResult, behaviors int) {
	tm.record(TelemetryData{
		Kind:    "apply",
		Subject: result.Message,
		Success: result.Success,
		Created: len(result.NewInstanceIDs),
		Updated: len(result.UpdatedInstanceIDs),
		Errors:  append([]string(nil), result.Errors...),
	}, func(c map[string]int) {
		c[CounterBlueprintsApplied]++
		if !result.Success {
			c[CounterBlueprintsFailed]++
		}
		c[CounterInstancesCreated] += len(result.NewInstanceIDs)
		c[CounterInstancesUpdated] += len(result.UpdatedInstanceIDs)
		c[CounterApplyErrors] += len(result.Errors)
		c[CounterBehaviorsSubmitted] += behaviors
	})
}

// RecordEvent записывает событие, разосланное поведениям
func (tm *TelemetryManager) RecordEvent(event entity.GameEvent) {
	subject := string(event.Type)
	if event.InstanceID != "" {
		subject += ":" + event.InstanceID
	} else if event.Key != "" {
		subject += ":" + event.Key
	}
	tm.record(TelemetryData{
		Kind:     "event",
		Subject:  subject,
		Success:  true,
		Position: event.Position,
	}, func(c map[string]int) {
		c[CounterEventsDispatched]++
		c["event_"+string(event.Type)]++
	})
}

// RecordRemove записывает ручное удаление экземпляра
func (tm *TelemetryManager) RecordRemove(instanceID string, removed bool) {
	tm.record(TelemetryData{
		Kind:    "remove",
		Subject: instanceID,
		Success: removed,
	}, func(c map[string]int) {
		if removed {
			c[CounterInstancesRemoved]++
		}
	})
}

func (tm *TelemetryManager) record(entry TelemetryData, count func(c map[string]int)) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}

	entry.Timestamp = time.Now().UnixMilli()
	tm.data = append(tm.data, entry)

	// Ограничиваем размер буфера
	if len(tm.data) > tm.maxEntries {
		tm.data = tm.data[1:]
	}

	count(tm.counters)
	count(tm.totals)
}

// Totals возвращает копию накопленных счетчиков
func (tm *TelemetryManager) Totals() map[string]int {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	out := make(map[string]int, len(tm.totals))
	for k, v := range tm.totals {
		out[k] = v
	}
	return out
}

// PrintSummary выводит сводку, если с прошлой прошло больше интервала
func (tm *TelemetryManager) PrintSummary() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	if !tm.enabled {
		return
	}

	now := time.Now()
	if now.Sub(tm.lastPrint) < tm.printInterval {
		return
	}

	log.Println("🔬 [Telemetry] ===== ТЕЛЕМЕТРИЯ КОМНАТЫ =====")
	log.Printf("📊 [Telemetry] Всего записей: %d", len(tm.data))

	keys := make([]string, 0, len(tm.counters))
	for key := range tm.counters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		log.Printf("📈 [Telemetry] %s: %d", key, tm.counters[key])
	}

	tm.printLastApply()

	tm.counters = make(map[string]int)
	tm.lastPrint = now

	log.Println("🔬 [Telemetry] ===================================")
}

// printLastApply выводит последнее применение blueprint'а
func (tm *TelemetryManager) printLastApply() {
	for i := len(tm.data) - 1; i >= 0; i-- {
		entry := tm.data[i]
		if entry.Kind != "apply" {
			continue
		}
		timestamp := time.UnixMilli(entry.Timestamp)
		log.Printf("🧩 [Telemetry] Последний blueprint [%s]: успех=%v, новых %d, обновлено %d, ошибок %d",
			timestamp.Format("15:04:05.000"), entry.Success, entry.Created, entry.Updated, len(entry.Errors))
		for _, e := range entry.Errors {
			log.Printf("   ⚠️  %s", e)
		}
		return
	}
}

// GetTelemetryJSON возвращает телеметрию в JSON формате
func (tm *TelemetryManager) GetTelemetryJSON() (string, error) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	jsonData, err := json.MarshalIndent(tm.data, "", "  ")
	if err != nil {
		return "", err
	}

	return string(jsonData), nil
}

// SetEnabled включает/выключает телеметрию
func (tm *TelemetryManager) SetEnabled(enabled bool) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.enabled = enabled
	log.Printf("🔬 [Telemetry] Телеметрия %s", map[bool]string{true: "включена", false: "выключена"}[enabled])
}

// Clear очищает все данные телеметрии
func (tm *TelemetryManager) Clear() {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	tm.data = make([]TelemetryData, 0)
	tm.counters = make(map[string]int)
	tm.totals = make(map[string]int)
	log.Println("🔬 [Telemetry] Данные телеметрии очищены")
}

// Глобальный экземпляр телеметрии
var GlobalTelemetry = NewTelemetryManager()
