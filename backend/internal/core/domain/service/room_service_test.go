package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/game"
	"roomie/backend/internal/telemetry"
	"roomie/backend/internal/world"
)

func newTestRoomService() *RoomService {
	tm := telemetry.NewTelemetryManager()
	return NewRoomService(RoomOptions{
		RoomID:    "test-room",
		Loader:    world.NewLibraryLoader(),
		Telemetry: tm,
		Logger:    quietLogger(),
	})
}

func lampBlueprint() *entity.BlueprintResponse {
	lamp := instanceAt("lamp", "lamp_shape", 1, 0, 2)
	lamp.Tags = []string{"light"}
	return blueprint("A lamp",
		[]entity.ShapeDefinition{{ShapeID: "lamp_shape", Kind: entity.ShapeKindExternalAsset, SourceURL: "library://lamp"}},
		[]entity.SceneObjectInstance{lamp},
		entity.BehaviorDefinition{
			BehaviorID:        "lamp_toggle",
			Type:              entity.BehaviorLightToggle,
			TargetInstanceIDs: []string{"lamp"},
			Config:            map[string]interface{}{"lightIntensity": 2.0, "isOn": true},
		},
		entity.BehaviorDefinition{BehaviorID: "lamp_physics", Type: entity.BehaviorPhysics, TargetInstanceIDs: []string{"lamp"}},
	)
}

func findLight(root world.Renderable) world.Light {
	var light world.Light
	world.Traverse(root, func(r world.Renderable) {
		if l, ok := r.(world.Light); ok && light == nil {
			light = l
		}
	})
	return light
}

func TestRoomService_LampEndToEnd(t *testing.T) {
	room := newTestRoomService()

	result := room.ApplyBlueprint(context.Background(), lampBlueprint())
	if !result.Success {
		t.Fatalf("Unexpected errors: %v", result.Errors)
	}

	lamp, _ := room.instances.GetRenderable("lamp")
	light := findLight(lamp)
	if light == nil || light.Intensity() != 2 {
		t.Fatalf("Expected lit lamp with intensity 2, got %v", light)
	}

	room.HandleEvent(entity.ClickEvent("lamp"))
	if light.Intensity() != 0 {
		t.Errorf("Click should switch the lamp off, got %v", light.Intensity())
	}
	room.HandleEvent(entity.ClickEvent("somewhere_else"))
	if light.Intensity() != 0 {
		t.Error("Unrelated click must be ignored")
	}
	room.HandleEvent(entity.ClickEvent("lamp"))
	if light.Intensity() != 2 {
		t.Errorf("Second click should restore intensity 2, got %v", light.Intensity())
	}

	totals := room.telemetry.Totals()
	if totals[telemetry.CounterEventsDispatched] != 3 || totals[telemetry.CounterInstancesCreated] != 1 {
		t.Errorf("Unexpected telemetry totals: %v", totals)
	}
}

func TestRoomService_SnapshotReflectsLiveState(t *testing.T) {
	room := newTestRoomService()
	room.ApplyBlueprint(context.Background(), lampBlueprint())

	lamp, _ := room.instances.GetRenderable("lamp")
	lamp.SetVisible(false)

	state := room.Snapshot()

	if state.RoomID != "test-room" || state.SchemaVersion != entity.RoomSchemaVersion {
		t.Errorf("Unexpected header: %+v", state)
	}
	if len(state.Shapes) != 1 || len(state.Instances) != 1 {
		t.Fatalf("Expected 1 shape and 1 instance, got %d/%d", len(state.Shapes), len(state.Instances))
	}
	inst := state.Instances[0]
	if inst.Position != (entity.Vector3{X: 1, Y: 0, Z: 2}) {
		t.Errorf("Unexpected position %+v", inst.Position)
	}
	if inst.IsVisible() {
		t.Error("Snapshot should carry live visibility")
	}
	if inst.Rotation.IsQuaternion() {
		t.Error("Euler rotation should stay Euler in the snapshot")
	}
	// Зарезервированный тип принят без ошибки и тоже попадает в снимок
	if len(state.Behaviors) != 2 || state.Behaviors[0].BehaviorID != "lamp_toggle" {
		t.Errorf("Unexpected behaviors %+v", state.Behaviors)
	}
}

func TestRoomService_RemoveInstanceDetachesFromScene(t *testing.T) {
	room := newTestRoomService()
	room.ApplyBlueprint(context.Background(), lampBlueprint())

	if !room.RemoveInstance("lamp") {
		t.Fatal("Expected lamp to be removed")
	}
	if len(room.Scene().Children()) != 0 {
		t.Error("Renderable should be detached from the scene")
	}
	if room.instances.Has("lamp") {
		t.Error("Registry record should be gone")
	}
	if room.RemoveInstance("lamp") {
		t.Error("Second removal should report false")
	}

	// Повторное применение создает лампу заново
	result := room.ApplyBlueprint(context.Background(), lampBlueprint())
	if len(result.NewInstanceIDs) != 1 {
		t.Errorf("Expected lamp to be recreated, got %+v", result)
	}
}

func TestRoomService_PickAndReset(t *testing.T) {
	room := newTestRoomService()
	room.ApplyBlueprint(context.Background(), lampBlueprint())

	id, ok := room.Pick(1.2, 2.1)
	if !ok || id.InstanceID != "lamp" || id.ShapeID != "lamp_shape" {
		t.Errorf("Expected to pick lamp, got %+v %v", id, ok)
	}
	if _, ok := room.Pick(10, 10); ok {
		t.Error("Nothing should be picked far away")
	}

	room.Reset()

	state := room.Snapshot()
	if len(state.Shapes) != 0 || len(state.Instances) != 0 || len(state.Behaviors) != 0 {
		t.Errorf("Reset should clear everything, got %+v", state)
	}
	if len(room.Scene().Children()) != 0 {
		t.Error("Reset should empty the scene")
	}
}

func TestRoomService_GeneratesRoomID(t *testing.T) {
	room := NewRoomService(RoomOptions{Logger: quietLogger(), Telemetry: telemetry.NewTelemetryManager()})
	if len(room.RoomID()) != 36 {
		t.Errorf("Expected a UUID room id, got %q", room.RoomID())
	}
}

func TestRoomService_MissingAssetBecomesFallback(t *testing.T) {
	room := newTestRoomService()

	result := room.ApplyBlueprint(context.Background(), blueprint("ghost",
		[]entity.ShapeDefinition{{ShapeID: "ghost_shape", Kind: entity.ShapeKindExternalAsset, SourceURL: "library://nope"}},
		[]entity.SceneObjectInstance{instanceAt("g1", "ghost_shape", 0, 0, 0)}))

	if result.Success || len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Failed to process instance g1:") {
		t.Fatalf("Expected the asset error in the result, got %+v", result)
	}
	if len(result.NewInstanceIDs) != 1 || len(room.Scene().Children()) != 1 {
		t.Fatalf("Fallback should be in the scene, got %v and %d children", result.NewInstanceIDs, len(room.Scene().Children()))
	}
	if id, ok := room.Pick(0, 0); !ok || id.InstanceID != "g1" {
		t.Errorf("Fallback should be pickable, got %+v %v", id, ok)
	}
	if state := room.Snapshot(); len(state.Instances) != 1 {
		t.Errorf("Fallback instance should be in the snapshot, got %d", len(state.Instances))
	}
}

func TestRoomService_FailedReRegistrationDropsBehavior(t *testing.T) {
	room := newTestRoomService()
	room.ApplyBlueprint(context.Background(), lampBlueprint())

	room.engine.RegisterType(entity.BehaviorCustom, func(def entity.BehaviorDefinition, deps *game.Dependencies) (game.Behavior, error) {
		return nil, errors.New("script missing")
	})

	bp := blueprint("swap", nil, nil, entity.BehaviorDefinition{
		BehaviorID:        "lamp_toggle",
		Type:              entity.BehaviorCustom,
		TargetInstanceIDs: []string{"lamp"},
	})
	result := room.ApplyBlueprint(context.Background(), bp)
	if result.Success || len(result.Errors) != 1 {
		t.Fatalf("Expected one behavior error, got %+v", result)
	}

	if _, live := room.engine.GetBehavior("lamp_toggle"); live {
		t.Error("Old behavior should have been destroyed")
	}
	state := room.Snapshot()
	if len(state.Behaviors) != 1 || state.Behaviors[0].BehaviorID != "lamp_physics" {
		t.Errorf("Snapshot must not list a dead behavior, got %+v", state.Behaviors)
	}

	// Запись восстанавливается удачной регистрацией
	room.ApplyBlueprint(context.Background(), lampBlueprint())
	state = room.Snapshot()
	if len(state.Behaviors) != 2 || state.Behaviors[1].BehaviorID != "lamp_toggle" {
		t.Errorf("Unexpected behaviors after reapply %+v", state.Behaviors)
	}
}
