package world

import (
	"sync"
	"time"

	"roomie/backend/internal/core/domain/entity"
)

// VehicleConfig значения по умолчанию для поведения vehicle
type VehicleConfig struct {
	MaxSpeed     float64
	Acceleration float64
	Braking      float64
	Friction     float64 // затухание без нажатых клавиш, отдельно от торможения
	TurnSpeed    float64
	CameraOffset entity.Vector3
	ToggleKey    string
	ExitOffset   entity.Vector3 // где появляется персонаж после выхода
}

// LightConfig значения по умолчанию для поведения light_toggle
type LightConfig struct {
	Intensity float64
	Distance  float64
	Color     entity.Color
}

// ChessConfig значения по умолчанию для шахматных поведений
type ChessConfig struct {
	GridSize       int
	SquareSize     float64
	HighlightScale float64
	CaptureDepth   float64 // координата y, куда уводится взятая фигура
}

// HostConfig настройки хоста комнаты
type HostConfig struct {
	TickRate         time.Duration
	SnapshotInterval time.Duration
	SlowTickWarning  time.Duration
}

// RuntimeConfig объединяет все конфигурации
type RuntimeConfig struct {
	Host    HostConfig
	Vehicle VehicleConfig
	Light   LightConfig
	Chess   ChessConfig
}

var (
	runtimeConfig RuntimeConfig
	configMutex   sync.RWMutex
)

// Инициализация конфигурации по умолчанию
func init() {
	runtimeConfig = DefaultRuntimeConfig()
}

// DefaultRuntimeConfig возвращает конфигурацию по умолчанию
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Host: HostConfig{
			TickRate:         time.Second / 60,
			SnapshotInterval: 200 * time.Millisecond,
			SlowTickWarning:  50 * time.Millisecond,
		},

		Vehicle: VehicleConfig{
			MaxSpeed:     20,
			Acceleration: 15,
			Braking:      10,
			Friction:     5, // половина торможения
			TurnSpeed:    2.5,
			CameraOffset: entity.Vector3{X: 0, Y: 3, Z: 6},
			ToggleKey:    "e",
			ExitOffset:   entity.Vector3{X: 2, Y: 0, Z: 0},
		},

		Light: LightConfig{
			Intensity: 2,
			Distance:  10,
			Color:     entity.Color{R: 1, G: 0.9, B: 0.7}, // теплый белый
		},

		Chess: ChessConfig{
			GridSize:       8,
			SquareSize:     1,
			HighlightScale: 1.1,
			CaptureDepth:   -100,
		},
	}
}

// GetRuntimeConfig возвращает текущую конфигурацию
func GetRuntimeConfig() RuntimeConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return runtimeConfig
}

// SetRuntimeConfig устанавливает новую конфигурацию
func SetRuntimeConfig(config RuntimeConfig) {
	configMutex.Lock()
	defer configMutex.Unlock()
	runtimeConfig = config
}

// GetHostConfig возвращает только настройки хоста
func GetHostConfig() HostConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return runtimeConfig.Host
}

// GetVehicleConfig возвращает только настройки машины
func GetVehicleConfig() VehicleConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return runtimeConfig.Vehicle
}

// GetLightConfig возвращает только настройки света
func GetLightConfig() LightConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return runtimeConfig.Light
}

// GetChessConfig возвращает только настройки шахмат
func GetChessConfig() ChessConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return runtimeConfig.Chess
}
