package game

import (
	"log"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/world"
)

// LightToggle включает и выключает свет по клику на целевой экземпляр
type LightToggle struct {
	id      string
	enabled bool
	targets []string

	instances Instances
	logger    *log.Logger

	intensity float64
	isOn      bool
	light     world.Light
}

// NewLightToggle создает источник света внутри первой цели.
// Если цель не найдена, поведение остается без света, но продолжает переключать состояние.
func NewLightToggle(def entity.BehaviorDefinition, deps *Dependencies) (Behavior, error) {
	defaults := world.GetLightConfig()
	cfg := def.Config

	lt := &LightToggle{
		id:        def.BehaviorID,
		enabled:   def.IsEnabled(),
		targets:   append([]string(nil), def.TargetInstanceIDs...),
		instances: deps.Instances,
		logger:    deps.Logger,
		intensity: numberOr(cfg, "lightIntensity", defaults.Intensity),
		isOn:      boolOr(cfg, "isOn", true),
	}

	target, ok := lt.target()
	if !ok || deps.Lights == nil {
		return lt, nil
	}

	color := colorOr(cfg, "lightColor", defaults.Color)
	distance := numberOr(cfg, "lightDistance", defaults.Distance)
	lt.light = deps.Lights.CreatePointLight(color, lt.intensity, distance)
	target.Add(lt.light)

	lt.setLightState(lt.isOn)
	return lt, nil
}

func (lt *LightToggle) ID() string                { return lt.id }
func (lt *LightToggle) Type() entity.BehaviorType { return entity.BehaviorLightToggle }
func (lt *LightToggle) Enabled() bool             { return lt.enabled }

// IsOn текущее состояние
func (lt *LightToggle) IsOn() bool { return lt.isOn }

// Light созданный источник света или nil
func (lt *LightToggle) Light() world.Light { return lt.light }

func (lt *LightToggle) target() (world.Renderable, bool) {
	if len(lt.targets) == 0 {
		return nil, false
	}
	return lt.instances.GetRenderable(lt.targets[0])
}

func (lt *LightToggle) setLightState(on bool) {
	lt.isOn = on

	if lt.light != nil {
		if on {
			lt.light.SetIntensity(lt.intensity)
		} else {
			lt.light.SetIntensity(0)
		}
	}

	emissive := 0.0
	if on {
		emissive = 1
	}
	if len(lt.targets) == 0 {
		return
	}
	lt.instances.UpdateRenderable(lt.targets[0], func(r world.Renderable) {
		world.Traverse(r, func(child world.Renderable) {
			if mesh, ok := child.(world.EmissiveMesh); ok && mesh.HasEmissive() {
				mesh.SetEmissiveIntensity(emissive)
			}
		})
	})
}

func (lt *LightToggle) Update(delta float64) {}

func (lt *LightToggle) HandleEvent(event entity.GameEvent) {
	if event.Type != entity.EventClick || !containsID(lt.targets, event.InstanceID) {
		return
	}
	lt.setLightState(!lt.isOn)
	if lt.isOn {
		lt.logger.Printf("[LightToggle] %s: свет включен", lt.id)
	} else {
		lt.logger.Printf("[LightToggle] %s: свет выключен", lt.id)
	}
}

// Destroy отсоединяет источник света, иначе он останется в сцене
func (lt *LightToggle) Destroy() {
	if lt.light != nil {
		world.Detach(lt.light)
		lt.light = nil
	}
}
