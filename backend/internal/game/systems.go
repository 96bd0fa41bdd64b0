package game

import (
	"log"
	"time"

	"roomie/backend/internal/core/domain/entity"
)

// RoomTicker комната, которую двигает цикл
type RoomTicker interface {
	Tick(delta float64)
}

// BehaviorUpdateSystem продвигает поведения комнаты на прошедшее время
type BehaviorUpdateSystem struct {
	name     string
	priority int
	room     RoomTicker
	maxDelta time.Duration
}

// NewBehaviorUpdateSystem создает систему обновления поведений
func NewBehaviorUpdateSystem(room RoomTicker) *BehaviorUpdateSystem {
	return &BehaviorUpdateSystem{
		name:     "BehaviorUpdateSystem",
		priority: 10, // Поведения первыми
		room:     room,
		maxDelta: 250 * time.Millisecond, // Не телепортируем машину после долгой паузы
	}
}

// Update вызывает тик комнаты с дельтой в секундах
func (bus *BehaviorUpdateSystem) Update(deltaTime time.Duration) error {
	if deltaTime > bus.maxDelta {
		deltaTime = bus.maxDelta
	}
	if deltaTime <= 0 {
		return nil
	}
	bus.room.Tick(deltaTime.Seconds())
	return nil
}

// GetName возвращает имя системы
func (bus *BehaviorUpdateSystem) GetName() string {
	return bus.name
}

// GetPriority возвращает приоритет системы
func (bus *BehaviorUpdateSystem) GetPriority() int {
	return bus.priority
}

// SnapshotSource источник снимков комнаты
type SnapshotSource interface {
	Snapshot() entity.RoomState
}

// SnapshotBroadcaster интерфейс для отправки снимков клиентам
type SnapshotBroadcaster interface {
	BroadcastSnapshot(state entity.RoomState) error
	ClientCount() int
}

// SnapshotSyncSystem система рассылки снимков комнаты
type SnapshotSyncSystem struct {
	name          string
	priority      int
	source        SnapshotSource
	broadcaster   SnapshotBroadcaster
	logger        *log.Logger
	lastBroadcast time.Time

	// Ограничение частоты отправки
	broadcastInterval time.Duration
}

// NewSnapshotSyncSystem создает систему рассылки снимков
func NewSnapshotSyncSystem(source SnapshotSource, broadcaster SnapshotBroadcaster, interval time.Duration, logger *log.Logger) *SnapshotSyncSystem {
	if logger == nil {
		logger = log.Default()
	}
	return &SnapshotSyncSystem{
		name:              "SnapshotSyncSystem",
		priority:          100, // Самый низкий приоритет - отправляем в конце тика
		source:            source,
		broadcaster:       broadcaster,
		logger:            logger,
		broadcastInterval: interval,
	}
}

// Update отправляет снимок, если подошло время и есть получатели
func (sss *SnapshotSyncSystem) Update(deltaTime time.Duration) error {
	now := time.Now()
	if now.Sub(sss.lastBroadcast) < sss.broadcastInterval {
		return nil
	}
	sss.lastBroadcast = now

	if sss.broadcaster == nil || sss.broadcaster.ClientCount() == 0 {
		return nil
	}

	return sss.broadcaster.BroadcastSnapshot(sss.source.Snapshot())
}

// GetName возвращает имя системы
func (sss *SnapshotSyncSystem) GetName() string {
	return sss.name
}

// GetPriority возвращает приоритет системы
func (sss *SnapshotSyncSystem) GetPriority() int {
	return sss.priority
}

// SummaryPrinter периодическая сводка телеметрии
type SummaryPrinter interface {
	PrintSummary()
}

// GameMetricsSystem система сбора метрик цикла
type GameMetricsSystem struct {
	name       string
	priority   int
	gameTicker *GameTicker
	telemetry  SummaryPrinter
	logger     *log.Logger

	lastMetricsLog  time.Time
	metricsInterval time.Duration
}

// NewGameMetricsSystem создает новую систему сбора метрик
func NewGameMetricsSystem(gameTicker *GameTicker, telemetry SummaryPrinter, logger *log.Logger) *GameMetricsSystem {
	if logger == nil {
		logger = log.Default()
	}
	return &GameMetricsSystem{
		name:            "GameMetricsSystem",
		priority:        200, // Метрики в самом конце
		gameTicker:      gameTicker,
		telemetry:       telemetry,
		logger:          logger,
		lastMetricsLog:  time.Now(),
		metricsInterval: 30 * time.Second,
	}
}

// Update собирает и логирует метрики
func (gms *GameMetricsSystem) Update(deltaTime time.Duration) error {
	if gms.telemetry != nil {
		gms.telemetry.PrintSummary()
	}

	now := time.Now()
	if now.Sub(gms.lastMetricsLog) < gms.metricsInterval {
		return nil
	}
	gms.lastMetricsLog = now

	stats := gms.gameTicker.Stats()
	gms.logger.Printf("[GameMetrics] TPS: %.1f/%d, Тиков: %d, Время тика: %v, Опоздавших: %d",
		stats.ActualTPS, stats.TargetTPS, stats.Ticks, stats.AverageTick, stats.LateTicks)

	if stats.ActualTPS < float64(stats.TargetTPS)*0.9 {
		gms.logger.Printf("[GameMetrics] ПРЕДУПРЕЖДЕНИЕ: TPS снижен до %.1f", stats.ActualTPS)
	}
	for _, system := range stats.Systems {
		if system.Errors > 0 {
			gms.logger.Printf("[GameMetrics] Система %s: ошибок %d из %d запусков", system.Name, system.Errors, system.Runs)
		}
	}

	return nil
}

// GetName возвращает имя системы
func (gms *GameMetricsSystem) GetName() string {
	return gms.name
}

// GetPriority возвращает приоритет системы
func (gms *GameMetricsSystem) GetPriority() int {
	return gms.priority
}
