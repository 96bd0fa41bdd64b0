package world

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
)

func TestNode_EulerQuaternionRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		euler mgl64.Vec3
	}{
		{"identity", mgl64.Vec3{0, 0, 0}},
		{"yaw", mgl64.Vec3{0, math.Pi / 2, 0}},
		{"mixed", mgl64.Vec3{0.3, -0.2, 0.1}},
		{"pitch_roll", mgl64.Vec3{-1.1, 0.4, 2.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewNode("a")
			a.SetEuler(tt.euler)

			b := NewNode("b")
			b.SetQuaternion(a.Quaternion())

			if !b.Euler().ApproxEqualThreshold(tt.euler, 1e-6) {
				t.Errorf("euler after round trip %v, want %v", b.Euler(), tt.euler)
			}
		})
	}
}

func TestNode_SetQuaternionKeepsValueAsGiven(t *testing.T) {
	n := NewNode("n")
	q := mgl64.Quat{W: 2, V: mgl64.Vec3{0, 0, 0}}
	n.SetQuaternion(q)
	if n.Quaternion() != q {
		t.Errorf("кватернион должен храниться как есть, получили %v", n.Quaternion())
	}
}

func TestNode_AddReparents(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	child := NewNode("child")

	a.Add(child)
	b.Add(child)

	if len(a.Children()) != 0 {
		t.Error("ребенок должен уйти от прежнего родителя")
	}
	if child.Parent() != Renderable(b) {
		t.Error("родитель не обновлен")
	}

	b.Remove(child)
	if child.Parent() != nil {
		t.Error("после Remove родителя быть не должно")
	}
	b.Remove(NewNode("stranger"))
}

func TestNode_TraverseIncludesSelf(t *testing.T) {
	root := NewNode("root")
	mid := NewNode("mid")
	leaf := NewNode("leaf")
	root.Add(mid)
	mid.Add(leaf)

	var names []string
	Traverse(root, func(r Renderable) {
		names = append(names, r.(*Node).Name)
	})
	if len(names) != 3 || names[0] != "root" || names[2] != "leaf" {
		t.Errorf("unexpected traversal order %v", names)
	}
}

func TestNode_CloneIsDeep(t *testing.T) {
	warm := entity.Color{R: 1, G: 0.9, B: 0.7}
	root := NewNode("root")
	mesh := NewMesh("mesh", Geometry{Primitive: entity.PrimitiveBox, Width: 1, Height: 1, Depth: 1},
		NodeMaterial{Emissive: &warm, EmissiveIntensity: 1})
	root.Add(mesh)
	root.Add(NewPointLight(warm, 2, 10))

	clone := root.Clone()
	children := clone.Children()
	if len(children) != 2 {
		t.Fatalf("ожидали 2 потомка у копии, получили %d", len(children))
	}
	if clone.Parent() != nil {
		t.Error("копия не должна иметь родителя")
	}

	cm := children[0].(*Node)
	cm.SetEmissiveIntensity(0)
	cm.Material().Emissive.R = 0
	if mesh.EmissiveIntensity() != 1 || mesh.Material().Emissive.R != 1 {
		t.Error("копия делит материал с оригиналом")
	}
	if _, ok := children[1].(*PointLight); !ok {
		t.Errorf("источник света скопирован как %T", children[1])
	}
}

func TestWorldPosition(t *testing.T) {
	parent := NewNode("parent")
	parent.SetPosition(mgl64.Vec3{10, 0, 0})
	parent.SetEuler(mgl64.Vec3{0, math.Pi / 2, 0})
	child := NewNode("child")
	child.SetPosition(mgl64.Vec3{0, 0, 1})
	parent.Add(child)

	got := WorldPosition(child)
	want := mgl64.Vec3{11, 0, 0}
	if !got.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("WorldPosition = %v, want %v", got, want)
	}
}

func TestPlanSize(t *testing.T) {
	group := NewNode("group")
	group.SetScale(mgl64.Vec3{2, 1, 3})
	box := NewMesh("box", Geometry{Primitive: entity.PrimitiveBox, Width: 1, Height: 1, Depth: 0.5}, NodeMaterial{})
	ball := NewMesh("ball", Geometry{Primitive: entity.PrimitiveSphere, Radius: 0.25}, NodeMaterial{})
	group.Add(box)
	group.Add(ball)

	if got := PlanSize(box); got != (mgl64.Vec2{2, 1.5}) {
		t.Errorf("PlanSize(box) = %v", got)
	}
	if got := PlanSize(ball); got != (mgl64.Vec2{1, 1.5}) {
		t.Errorf("PlanSize(ball) = %v", got)
	}
	// Группа без геометрии занимает единичную клетку
	if got := PlanSize(group); got != (mgl64.Vec2{2, 3}) {
		t.Errorf("PlanSize(group) = %v", got)
	}

	group.SetVisible(false)
	if VisibleInScene(box) {
		t.Error("потомок скрытой группы не должен быть видим")
	}
}

func TestCamera_LookAt(t *testing.T) {
	cam := NewCamera()
	cam.SetPosition(mgl64.Vec3{0, 0, 5})
	cam.LookAt(mgl64.Vec3{0, 0, 0})

	if l := cam.Quaternion().Len(); math.Abs(l-1) > 1e-6 {
		t.Errorf("кватернион камеры не единичный: %v", l)
	}
	if cam.Target() != (mgl64.Vec3{0, 0, 0}) {
		t.Errorf("target %v", cam.Target())
	}

	// Цель в точке камеры не должна давать NaN
	cam.LookAt(cam.Position())
	if math.IsNaN(cam.Quaternion().W) {
		t.Error("NaN в кватернионе камеры")
	}
}

func TestPointLight_Intensity(t *testing.T) {
	l := NewPointLight(entity.Color{R: 1, G: 1, B: 1}, 2, 10)
	if !l.CastShadow() {
		t.Error("точечный свет должен отбрасывать тени")
	}
	l.SetIntensity(0)
	if l.Intensity() != 0 {
		t.Errorf("intensity %v", l.Intensity())
	}
	var _ Light = l
	var _ EmissiveMesh = NewNode("x")
}
