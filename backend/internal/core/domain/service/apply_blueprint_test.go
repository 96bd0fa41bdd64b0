package service

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/world"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// MockRegistrar запоминает переданные поведения
type MockRegistrar struct {
	Registered []string
	FailOn     map[string]error
}

func (m *MockRegistrar) RegisterBehavior(def entity.BehaviorDefinition) error {
	if err, ok := m.FailOn[def.BehaviorID]; ok {
		return err
	}
	if def.Type == "explode" {
		panic("registrar exploded")
	}
	m.Registered = append(m.Registered, def.BehaviorID)
	return nil
}

// flakyFactory падает или паникует для отдельных форм
type flakyFactory struct {
	inner   world.RenderableFactory
	failing map[string]bool
	panics  map[string]bool
}

func (f *flakyFactory) CreateRenderable(ctx context.Context, shape *entity.ShapeDefinition) (world.Renderable, error) {
	if f.panics[shape.ShapeID] {
		panic("factory exploded")
	}
	if f.failing[shape.ShapeID] {
		return nil, errors.New("asset unavailable")
	}
	return f.inner.CreateRenderable(ctx, shape)
}

type reconcilerRig struct {
	reconciler *Reconciler
	scene      *world.Node
	shapes     *world.ShapeRegistry
	instances  *world.InstanceRegistry
	registrar  *MockRegistrar
	factory    *flakyFactory
}

func newReconcilerRig() *reconcilerRig {
	logger := quietLogger()
	rig := &reconcilerRig{
		scene:     world.NewScene(),
		shapes:    world.NewShapeRegistry(),
		instances: world.NewInstanceRegistry(),
		registrar: &MockRegistrar{FailOn: map[string]error{}},
		factory: &flakyFactory{
			inner:   world.NewFactory(world.NewLibraryLoader(), logger),
			failing: map[string]bool{},
			panics:  map[string]bool{},
		},
	}
	rig.reconciler = &Reconciler{
		Scene:     rig.scene,
		Factory:   rig.factory,
		Shapes:    rig.shapes,
		Instances: rig.instances,
		Behaviors: rig.registrar,
		Logger:    logger,
	}
	return rig
}

func boxShape(id string, width float64) entity.ShapeDefinition {
	return entity.ShapeDefinition{
		ShapeID:       id,
		Kind:          entity.ShapeKindPrimitive,
		PrimitiveType: entity.PrimitiveBox,
		Dimensions:    &entity.Dimensions{Width: width, Height: 1, Depth: 1},
	}
}

func instanceAt(id, shapeID string, x, y, z float64) entity.SceneObjectInstance {
	return entity.SceneObjectInstance{
		InstanceID: id,
		ShapeID:    shapeID,
		Position:   entity.Vector3{X: x, Y: y, Z: z},
		Rotation:   entity.EulerRotation(0, 0, 0),
		Scale:      entity.Vector3{X: 1, Y: 1, Z: 1},
	}
}

func blueprint(message string, shapes []entity.ShapeDefinition, instances []entity.SceneObjectInstance, behaviors ...entity.BehaviorDefinition) *entity.BlueprintResponse {
	bp := entity.TextOnlyBlueprint(message)
	bp.Geometry.Shapes = append(bp.Geometry.Shapes, shapes...)
	bp.Geometry.Instances = append(bp.Geometry.Instances, instances...)
	bp.Behavior.Behaviors = append(bp.Behavior.Behaviors, behaviors...)
	return bp
}

func TestReconciler_PartialFailureIsolation(t *testing.T) {
	rig := newReconcilerRig()

	bp := blueprint("Four boxes",
		[]entity.ShapeDefinition{boxShape("box", 1)},
		[]entity.SceneObjectInstance{
			instanceAt("a", "box", 0, 0, 0),
			instanceAt("b", "box", 1, 0, 0),
			instanceAt("broken", "missing_shape", 2, 0, 0),
			instanceAt("c", "box", 3, 0, 0),
		})

	result := rig.reconciler.Apply(context.Background(), bp)

	if result.Success {
		t.Error("Expected success=false")
	}
	if result.Message != "Four boxes" {
		t.Errorf("Message must be echoed, got %q", result.Message)
	}
	if len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Failed to process instance broken:") {
		t.Fatalf("Expected one error for broken, got %v", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "missing_shape") {
		t.Errorf("Error should name the missing shape: %s", result.Errors[0])
	}
	expected := []string{"a", "b", "c"}
	if strings.Join(result.NewInstanceIDs, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected new ids %v, got %v", expected, result.NewInstanceIDs)
	}
	if len(rig.scene.Children()) != 3 || rig.instances.Len() != 3 {
		t.Errorf("Expected 3 objects in scene and registry, got %d/%d", len(rig.scene.Children()), rig.instances.Len())
	}
}

func TestReconciler_UpdateKeepsRenderableIdentity(t *testing.T) {
	rig := newReconcilerRig()
	shapes := []entity.ShapeDefinition{boxShape("box", 1)}

	rig.reconciler.Apply(context.Background(), blueprint("create", shapes,
		[]entity.SceneObjectInstance{instanceAt("crate", "box", 0, 0, 0)}))
	before, _ := rig.instances.GetRenderable("crate")

	moved := instanceAt("crate", "box", 5, 1, -2)
	moved.Name = "Moved crate"
	result := rig.reconciler.Apply(context.Background(), blueprint("update", nil, []entity.SceneObjectInstance{moved}))

	if !result.Success || len(result.UpdatedInstanceIDs) != 1 || len(result.NewInstanceIDs) != 0 {
		t.Fatalf("Expected a single update, got %+v", result)
	}
	after, _ := rig.instances.GetRenderable("crate")
	if before != after {
		t.Error("Update must keep the same renderable")
	}
	if after.Position() != (mgl64.Vec3{5, 1, -2}) {
		t.Errorf("Expected new position, got %v", after.Position())
	}
	def, _ := rig.instances.GetDefinition("crate")
	if def.Name != "Moved crate" {
		t.Errorf("Definition should be replaced, got %q", def.Name)
	}
	if len(rig.scene.Children()) != 1 {
		t.Errorf("Update must not add objects to the scene, got %d", len(rig.scene.Children()))
	}
}

func TestReconciler_RotationForms(t *testing.T) {
	rig := newReconcilerRig()

	euler := instanceAt("euler", "box", 0, 0, 0)
	euler.Rotation = entity.EulerRotation(0.1, 0.2, 0.3)
	quat := instanceAt("quat", "box", 0, 0, 0)
	quat.Rotation = entity.QuaternionRotation(0.1, 0.2, 0.3, 0.9)

	rig.reconciler.Apply(context.Background(), blueprint("rotations",
		[]entity.ShapeDefinition{boxShape("box", 1)},
		[]entity.SceneObjectInstance{euler, quat}))

	er, _ := rig.instances.GetRenderable("euler")
	qr, _ := rig.instances.GetRenderable("quat")

	if er.Euler() != (mgl64.Vec3{0.1, 0.2, 0.3}) {
		t.Errorf("Euler form should be applied as angles, got %v", er.Euler())
	}
	want := mgl64.Quat{W: 0.9, V: mgl64.Vec3{0.1, 0.2, 0.3}}
	if qr.Quaternion() != want {
		t.Errorf("Quaternion form should be applied as given, got %v", qr.Quaternion())
	}
	if er.Quaternion().ApproxEqualThreshold(qr.Quaternion(), 1e-6) {
		t.Error("Same numbers in different forms must produce different orientations")
	}
}

func TestReconciler_FlagDefaults(t *testing.T) {
	rig := newReconcilerRig()
	hidden := false

	plain := instanceAt("plain", "box", 0, 0, 0)
	ghost := instanceAt("ghost", "box", 0, 0, 0)
	ghost.Visible = &hidden
	ghost.CastShadow = &hidden

	rig.reconciler.Apply(context.Background(), blueprint("flags",
		[]entity.ShapeDefinition{boxShape("box", 1)},
		[]entity.SceneObjectInstance{plain, ghost}))

	p, _ := rig.instances.GetRenderable("plain")
	if !p.Visible() || !p.CastShadow() || !p.ReceiveShadow() {
		t.Error("Absent flags should default to true")
	}
	g, _ := rig.instances.GetRenderable("ghost")
	if g.Visible() || g.CastShadow() || !g.ReceiveShadow() {
		t.Errorf("Explicit flags not applied: visible=%v cast=%v receive=%v", g.Visible(), g.CastShadow(), g.ReceiveShadow())
	}
}

func TestReconciler_ShapesFirstWriterWins(t *testing.T) {
	rig := newReconcilerRig()

	rig.reconciler.Apply(context.Background(), blueprint("v1",
		[]entity.ShapeDefinition{boxShape("box", 1)},
		[]entity.SceneObjectInstance{instanceAt("a", "box", 0, 0, 0)}))

	result := rig.reconciler.Apply(context.Background(), blueprint("v2",
		[]entity.ShapeDefinition{boxShape("box", 7)},
		[]entity.SceneObjectInstance{instanceAt("b", "box", 0, 0, 0)}))

	if !result.Success {
		t.Fatalf("Unexpected errors: %v", result.Errors)
	}
	shape, _ := rig.shapes.Get("box")
	if shape.Dimensions.Width != 1 {
		t.Errorf("First template must stay, got width %v", shape.Dimensions.Width)
	}
	b, _ := rig.instances.GetRenderable("b")
	if b.(*world.Node).Geometry().Width != 1 {
		t.Error("New instances should use the first template")
	}
}

func TestReconciler_ConstructionErrors(t *testing.T) {
	rig := newReconcilerRig()
	rig.factory.failing["remote"] = true
	rig.factory.panics["cursed"] = true
	rig.registrar.FailOn["bad_behavior"] = errors.New("no targets")

	missing := entity.ShapeDefinition{ShapeID: "missing", Kind: entity.ShapeKindExternalAsset, SourceURL: "library://nope"}
	bp := blueprint("mixed",
		[]entity.ShapeDefinition{boxShape("box", 1), boxShape("remote", 1), boxShape("cursed", 1), missing},
		[]entity.SceneObjectInstance{
			instanceAt("ok", "box", 0, 0, 0),
			instanceAt("far", "remote", 0, 0, 0),
			instanceAt("hex", "cursed", 0, 0, 0),
			instanceAt("ghost", "missing", 2, 0, 3),
		},
		entity.BehaviorDefinition{BehaviorID: "good", Type: entity.BehaviorLightToggle, TargetInstanceIDs: []string{"ok"}},
		entity.BehaviorDefinition{BehaviorID: "bad_behavior", Type: entity.BehaviorVehicle, TargetInstanceIDs: []string{"ok"}},
		entity.BehaviorDefinition{BehaviorID: "volatile", Type: "explode"},
	)

	result := rig.reconciler.Apply(context.Background(), bp)

	if result.Success {
		t.Error("Expected partial failure")
	}
	if len(result.Errors) != 5 {
		t.Fatalf("Expected 5 errors, got %v", result.Errors)
	}
	prefixes := []string{
		"Failed to process instance far:",
		"Failed to process instance hex:",
		"Failed to process instance ghost:",
		"Failed to register behavior bad_behavior:",
		"Failed to register behavior volatile:",
	}
	for i, prefix := range prefixes {
		if !strings.HasPrefix(result.Errors[i], prefix) {
			t.Errorf("Error %d: expected prefix %q, got %q", i, prefix, result.Errors[i])
		}
	}
	if len(rig.registrar.Registered) != 1 {
		t.Errorf("Healthy behaviors should still be applied: %v", rig.registrar.Registered)
	}

	// far и hex не дошли до сцены, ghost заменен заглушкой
	if len(result.NewInstanceIDs) != 2 || result.NewInstanceIDs[1] != "ghost" {
		t.Errorf("Expected ok and ghost to be created, got %v", result.NewInstanceIDs)
	}
	if len(rig.scene.Children()) != 2 || rig.instances.Len() != 2 {
		t.Errorf("Expected 2 objects in scene and registry, got %d/%d", len(rig.scene.Children()), rig.instances.Len())
	}
	for _, id := range []string{"far", "hex"} {
		if rig.instances.Has(id) {
			t.Errorf("Failed instance %s must not be registered", id)
		}
	}
}

func TestReconciler_AssetFailureRegistersFallback(t *testing.T) {
	rig := newReconcilerRig()
	missing := entity.ShapeDefinition{ShapeID: "missing", Kind: entity.ShapeKindExternalAsset, SourceURL: "library://nope"}

	result := rig.reconciler.Apply(context.Background(), blueprint("ghost",
		[]entity.ShapeDefinition{missing},
		[]entity.SceneObjectInstance{instanceAt("g1", "missing", 2, 0, 3)}))

	if result.Success || len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "library://nope") {
		t.Fatalf("Expected one asset error, got %+v", result)
	}
	if len(result.NewInstanceIDs) != 1 || result.NewInstanceIDs[0] != "g1" {
		t.Errorf("Fallback instance should be reported as created, got %v", result.NewInstanceIDs)
	}

	r, ok := rig.instances.GetRenderable("g1")
	if !ok {
		t.Fatal("g1 must be registered with a fallback")
	}
	node := r.(*world.Node)
	if c := node.Material().Color; c != (entity.Color{R: 1, G: 0, B: 1}) {
		t.Errorf("Expected magenta fallback, got %+v", c)
	}
	if node.Position() != (mgl64.Vec3{2, 0, 3}) {
		t.Errorf("Fallback should carry the instance transform, got %v", node.Position())
	}
	if id, ok := rig.instances.Identify(node); !ok || id.InstanceID != "g1" || id.ShapeID != "missing" {
		t.Errorf("Fallback identity %+v", id)
	}

	// Повторный blueprint обновляет заглушку как обычный экземпляр
	result = rig.reconciler.Apply(context.Background(), blueprint("again", nil,
		[]entity.SceneObjectInstance{instanceAt("g1", "missing", 5, 0, 0)}))
	if !result.Success || len(result.UpdatedInstanceIDs) != 1 {
		t.Errorf("Expected clean update of the fallback, got %+v", result)
	}
}

func TestReconciler_FatalFailures(t *testing.T) {
	rig := newReconcilerRig()

	result := rig.reconciler.Apply(context.Background(), nil)
	if result.Success || len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Blueprint application failed:") {
		t.Errorf("Nil blueprint should fail outright, got %+v", result)
	}

	broken := &Reconciler{Logger: quietLogger()}
	result = broken.Apply(context.Background(), blueprint("narration", []entity.ShapeDefinition{boxShape("box", 1)}, nil))
	if result.Success || len(result.Errors) != 1 || !strings.HasPrefix(result.Errors[0], "Blueprint application failed:") {
		t.Errorf("Panic outside items should become one fatal error, got %+v", result)
	}
	if result.Message != "narration" {
		t.Errorf("Message should survive a fatal failure, got %q", result.Message)
	}
}
