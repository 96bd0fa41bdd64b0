package game

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"roomie/backend/internal/world"
)

// TickSystem шаг цикла комнаты. Системы выполняются по возрастанию приоритета,
// при равном приоритете в порядке регистрации.
type TickSystem interface {
	Update(deltaTime time.Duration) error
	GetName() string
	GetPriority() int
}

// SystemStats счетчики одной системы
type SystemStats struct {
	Name     string        `json:"name"`
	Priority int           `json:"priority"`
	Runs     uint64        `json:"runs"`
	Errors   uint64        `json:"errors"`
	Last     time.Duration `json:"last"`
	Average  time.Duration `json:"average"`
	Max      time.Duration `json:"max"`
}

// observe учитывает очередной запуск; среднее экспоненциальное, вес нового замера 1/10
func (s *SystemStats) observe(d time.Duration) {
	s.Runs++
	s.Last = d
	if d > s.Max {
		s.Max = d
	}
	if s.Runs == 1 {
		s.Average = d
	} else {
		s.Average = (s.Average*9 + d) / 10
	}
}

// TickerStats сводка цикла
type TickerStats struct {
	TargetTPS   int           `json:"targetTps"`
	ActualTPS   float64       `json:"actualTps"`
	Ticks       uint64        `json:"ticks"`
	LateTicks   uint64        `json:"lateTicks"`
	Uptime      time.Duration `json:"uptime"`
	AverageTick time.Duration `json:"averageTick"`
	MaxTick     time.Duration `json:"maxTick"`
	Running     bool          `json:"running"`
	Systems     []SystemStats `json:"systems"`
}

// GameTicker цикл комнаты с фиксированной частотой: раз в тик выполняет
// зарегистрированные системы (поведения, рассылку снимков, метрики)
type GameTicker struct {
	tps      int
	interval time.Duration
	slowTick time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	systems []TickSystem
	stats   map[string]*SystemStats

	ticks     uint64
	lateTicks uint64
	avgTick   time.Duration
	maxTick   time.Duration
	started   time.Time
	lastTick  time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// NewGameTicker создает цикл комнаты. targetTPS <= 0 означает частоту хоста.
func NewGameTicker(targetTPS int, logger *log.Logger) *GameTicker {
	host := world.GetHostConfig()
	if targetTPS <= 0 {
		targetTPS = int(time.Second / host.TickRate)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &GameTicker{
		tps:      targetTPS,
		interval: time.Second / time.Duration(targetTPS),
		slowTick: host.SlowTickWarning,
		logger:   logger,
		stats:    make(map[string]*SystemStats),
	}
}

// RegisterSystem добавляет систему в цикл
func (gt *GameTicker) RegisterSystem(system TickSystem) {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	gt.systems = append(gt.systems, system)
	sort.SliceStable(gt.systems, func(i, j int) bool {
		return gt.systems[i].GetPriority() < gt.systems[j].GetPriority()
	})
	gt.stats[system.GetName()] = &SystemStats{Name: system.GetName(), Priority: system.GetPriority()}

	gt.logger.Printf("[GameTicker] Зарегистрирована система: %s (приоритет: %d)",
		system.GetName(), system.GetPriority())
}

// Start запускает цикл в отдельной горутине. Цикл живет до Stop или отмены ctx.
func (gt *GameTicker) Start(ctx context.Context) error {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	if gt.cancel != nil {
		return nil
	}

	ctx, gt.cancel = context.WithCancel(ctx)
	gt.done = make(chan struct{})
	gt.started = time.Now()
	gt.lastTick = gt.started

	gt.logger.Printf("[GameTicker] Запуск цикла комнаты: %d TPS (тик каждые %v)", gt.tps, gt.interval)

	go gt.loop(ctx, gt.done)
	return nil
}

// Stop останавливает цикл и дожидается завершения текущего тика
func (gt *GameTicker) Stop() {
	gt.mu.Lock()
	cancel, done := gt.cancel, gt.done
	gt.cancel, gt.done = nil, nil
	ticks := gt.ticks
	gt.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	gt.logger.Printf("[GameTicker] Остановка цикла комнаты (выполнено тиков: %d)", ticks)
}

func (gt *GameTicker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(gt.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			gt.mu.Lock()
			delta := now.Sub(gt.lastTick)
			gt.lastTick = now
			late := delta > gt.interval*2
			if late {
				gt.lateTicks++
			}
			gt.mu.Unlock()

			if late {
				gt.logger.Printf("[GameTicker] ПРЕДУПРЕЖДЕНИЕ: Большая задержка между тиками: %v (ожидалось: %v)",
					delta, gt.interval)
			}
			gt.Step(delta)
		}
	}
}

// Step выполняет один тик с заданной дельтой. Цикл вызывает его сам,
// хосты без цикла и тесты могут вызывать напрямую.
func (gt *GameTicker) Step(delta time.Duration) {
	start := time.Now()

	gt.mu.Lock()
	systems := append([]TickSystem(nil), gt.systems...)
	gt.mu.Unlock()

	for _, system := range systems {
		gt.runSystem(system, delta)
	}

	elapsed := time.Since(start)

	gt.mu.Lock()
	gt.ticks++
	if elapsed > gt.maxTick {
		gt.maxTick = elapsed
	}
	if gt.avgTick == 0 {
		gt.avgTick = elapsed
	} else {
		gt.avgTick = (gt.avgTick*9 + elapsed) / 10
	}
	gt.mu.Unlock()

	if elapsed > gt.slowTick {
		gt.logger.Printf("[GameTicker] ПРЕДУПРЕЖДЕНИЕ: Медленный тик: %v (порог: %v)", elapsed, gt.slowTick)
	}
}

// runSystem выполняет одну систему с замером времени. Паника системы
// не останавливает цикл и считается ошибкой.
func (gt *GameTicker) runSystem(system TickSystem, delta time.Duration) {
	name := system.GetName()
	start := time.Now()
	failed := false

	defer func() {
		if r := recover(); r != nil {
			gt.logger.Printf("[GameTicker] КРИТИЧЕСКАЯ ОШИБКА в системе %s: %v", name, r)
			failed = true
		}
		gt.record(name, time.Since(start), failed)
	}()

	if err := system.Update(delta); err != nil {
		gt.logger.Printf("[GameTicker] Ошибка в системе %s: %v", name, err)
		failed = true
	}
}

func (gt *GameTicker) record(name string, d time.Duration, failed bool) {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	s, ok := gt.stats[name]
	if !ok {
		return
	}
	s.observe(d)
	if failed {
		s.Errors++
	}
}

// Stats возвращает сводку цикла; системы перечислены в порядке выполнения
func (gt *GameTicker) Stats() TickerStats {
	gt.mu.Lock()
	defer gt.mu.Unlock()

	out := TickerStats{
		TargetTPS:   gt.tps,
		Ticks:       gt.ticks,
		LateTicks:   gt.lateTicks,
		AverageTick: gt.avgTick,
		MaxTick:     gt.maxTick,
		Running:     gt.cancel != nil,
		Systems:     make([]SystemStats, 0, len(gt.systems)),
	}
	if !gt.started.IsZero() {
		out.Uptime = time.Since(gt.started)
		if secs := out.Uptime.Seconds(); secs > 0 {
			out.ActualTPS = float64(gt.ticks) / secs
		}
	}
	for _, system := range gt.systems {
		out.Systems = append(out.Systems, *gt.stats[system.GetName()])
	}
	return out
}

// SystemStats счетчики системы по имени
func (gt *GameTicker) SystemStats(name string) (SystemStats, bool) {
	gt.mu.Lock()
	defer gt.mu.Unlock()
	s, ok := gt.stats[name]
	if !ok {
		return SystemStats{}, false
	}
	return *s, true
}
