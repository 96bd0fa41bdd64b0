package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
)

// Geometry разрешенные параметры примитива (значения по умолчанию уже подставлены)
type Geometry struct {
	Primitive  entity.PrimitiveType
	Width      float64
	Height     float64
	Depth      float64
	Radius     float64
	RadiusTube float64
	Segments   int
}

// NodeMaterial материал меша
type NodeMaterial struct {
	Color             entity.Color
	Metalness         float64
	Roughness         float64
	Transparent       bool
	Opacity           float64
	Emissive          *entity.Color
	EmissiveIntensity float64
}

// Node объект безголового графа сцены. Используется сервером комнаты,
// терминальным просмотрщиком и тестами вместо настоящего рендерера.
type Node struct {
	Name string

	position mgl64.Vec3
	quat     mgl64.Quat
	euler    mgl64.Vec3
	scale    mgl64.Vec3

	visible       bool
	castShadow    bool
	receiveShadow bool

	parent   Renderable
	children []Renderable

	geometry *Geometry
	material *NodeMaterial
}

type parentSetter interface {
	setParent(p Renderable)
}

// NewNode создает пустой узел (группу) с единичной трансформацией
func NewNode(name string) *Node {
	return &Node{
		Name:          name,
		quat:          mgl64.QuatIdent(),
		scale:         mgl64.Vec3{1, 1, 1},
		visible:       true,
		castShadow:    false,
		receiveShadow: false,
	}
}

// NewMesh создает узел с геометрией и материалом
func NewMesh(name string, geometry Geometry, material NodeMaterial) *Node {
	n := NewNode(name)
	n.geometry = &geometry
	n.material = &material
	n.castShadow = true
	n.receiveShadow = true
	return n
}

// NewScene создает корневой узел сцены
func NewScene() *Node {
	return NewNode("scene")
}

func (n *Node) Position() mgl64.Vec3     { return n.position }
func (n *Node) SetPosition(p mgl64.Vec3) { n.position = p }
func (n *Node) Quaternion() mgl64.Quat   { return n.quat }
func (n *Node) Euler() mgl64.Vec3        { return n.euler }
func (n *Node) Scale() mgl64.Vec3        { return n.scale }
func (n *Node) SetScale(s mgl64.Vec3)    { n.scale = s }
func (n *Node) Visible() bool            { return n.visible }
func (n *Node) SetVisible(v bool)        { n.visible = v }
func (n *Node) CastShadow() bool         { return n.castShadow }
func (n *Node) ReceiveShadow() bool      { return n.receiveShadow }

// SetQuaternion задает вращение кватернионом как есть и пересчитывает углы Эйлера
func (n *Node) SetQuaternion(q mgl64.Quat) {
	n.quat = q
	n.euler = eulerFromQuat(q)
}

// SetEuler задает вращение углами Эйлера в порядке XYZ
func (n *Node) SetEuler(e mgl64.Vec3) {
	n.euler = e
	n.quat = mgl64.AnglesToQuat(e[0], e[1], e[2], mgl64.XYZ)
}

func (n *Node) SetShadows(cast, receive bool) {
	n.castShadow = cast
	n.receiveShadow = receive
}

// Add добавляет дочерний объект, отсоединяя его от прежнего родителя
func (n *Node) Add(child Renderable) {
	if child == nil {
		return
	}
	Detach(child)
	n.children = append(n.children, child)
	if ps, ok := child.(parentSetter); ok {
		ps.setParent(n)
	}
}

// Remove отсоединяет дочерний объект; чужие объекты игнорируются
func (n *Node) Remove(child Renderable) {
	for i, c := range n.children {
		if c != child {
			continue
		}
		n.children = append(n.children[:i], n.children[i+1:]...)
		if ps, ok := child.(parentSetter); ok {
			ps.setParent(nil)
		}
		return
	}
}

func (n *Node) Parent() Renderable {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

func (n *Node) setParent(p Renderable) {
	n.parent = p
}

// Children возвращает копию списка дочерних объектов
func (n *Node) Children() []Renderable {
	out := make([]Renderable, len(n.children))
	copy(out, n.children)
	return out
}

// Geometry возвращает параметры примитива или nil для группы
func (n *Node) Geometry() *Geometry {
	return n.geometry
}

// Material возвращает материал или nil для группы
func (n *Node) Material() *NodeMaterial {
	return n.material
}

// HasEmissive сообщает, несет ли узел материал. Любой материал меша поддерживает
// свечение; без явного цвета оно черное.
func (n *Node) HasEmissive() bool {
	return n.material != nil
}

func (n *Node) EmissiveIntensity() float64 {
	if n.material == nil {
		return 0
	}
	return n.material.EmissiveIntensity
}

func (n *Node) SetEmissiveIntensity(v float64) {
	if n.material != nil {
		n.material.EmissiveIntensity = v
	}
}

// Clone глубоко копирует узел вместе с потомками, без родителя
func (n *Node) Clone() *Node {
	out := &Node{
		Name:          n.Name,
		position:      n.position,
		quat:          n.quat,
		euler:         n.euler,
		scale:         n.scale,
		visible:       n.visible,
		castShadow:    n.castShadow,
		receiveShadow: n.receiveShadow,
	}
	if n.geometry != nil {
		g := *n.geometry
		out.geometry = &g
	}
	if n.material != nil {
		m := *n.material
		if n.material.Emissive != nil {
			e := *n.material.Emissive
			m.Emissive = &e
		}
		out.material = &m
	}
	for _, child := range n.children {
		switch c := child.(type) {
		case *Node:
			out.Add(c.Clone())
		case *PointLight:
			out.Add(c.Clone())
		}
	}
	return out
}

// WorldPosition возвращает позицию в координатах сцены с учетом родителей
func WorldPosition(r Renderable) mgl64.Vec3 {
	pos := r.Position()
	for p := r.Parent(); p != nil; p = p.Parent() {
		scaled := mgl64.Vec3{pos[0] * p.Scale()[0], pos[1] * p.Scale()[1], pos[2] * p.Scale()[2]}
		pos = p.Quaternion().Normalize().Rotate(scaled).Add(p.Position())
	}
	return pos
}

// WorldScale произведение масштабов объекта и всех его предков
func WorldScale(r Renderable) mgl64.Vec3 {
	s := r.Scale()
	for p := r.Parent(); p != nil; p = p.Parent() {
		ps := p.Scale()
		s = mgl64.Vec3{s[0] * ps[0], s[1] * ps[1], s[2] * ps[2]}
	}
	return s
}

// PlanSize размер объекта в плане (x, z) с учетом масштаба. Вращение не учитывается.
// У групп и внешних моделей без геометрии размер единичный.
func PlanSize(r Renderable) mgl64.Vec2 {
	size := mgl64.Vec2{1, 1}
	if mesh, ok := r.(interface{ Geometry() *Geometry }); ok {
		if g := mesh.Geometry(); g != nil {
			size = mgl64.Vec2{math.Max(g.Width, 2*g.Radius), math.Max(g.Depth, 2*g.Radius)}
		}
	}
	scale := WorldScale(r)
	return mgl64.Vec2{math.Abs(size[0] * scale[0]), math.Abs(size[1] * scale[2])}
}

// VisibleInScene виден ли объект вместе со всеми предками
func VisibleInScene(r Renderable) bool {
	for n := r; n != nil; n = n.Parent() {
		if !n.Visible() {
			return false
		}
	}
	return true
}

// eulerFromQuat раскладывает кватернион на углы Эйлера XYZ через матрицу вращения
func eulerFromQuat(q mgl64.Quat) mgl64.Vec3 {
	m := q.Normalize().Mat4()
	m11, m12, m13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m22, m23 := m.At(1, 1), m.At(1, 2)
	m32, m33 := m.At(2, 1), m.At(2, 2)

	y := math.Asin(mgl64.Clamp(m13, -1, 1))
	if math.Abs(m13) < 0.9999999 {
		return mgl64.Vec3{math.Atan2(-m23, m33), y, math.Atan2(-m12, m11)}
	}
	// Шарнирный замок: z обнуляется
	return mgl64.Vec3{math.Atan2(m32, m22), y, 0}
}

// PointLight точечный источник света
type PointLight struct {
	*Node
	Color     entity.Color
	Distance  float64
	intensity float64
}

// NewPointLight создает точечный источник света, отбрасывающий тени
func NewPointLight(color entity.Color, intensity, distance float64) *PointLight {
	n := NewNode("point_light")
	n.castShadow = true
	return &PointLight{Node: n, Color: color, Distance: distance, intensity: intensity}
}

func (l *PointLight) Intensity() float64     { return l.intensity }
func (l *PointLight) SetIntensity(v float64) { l.intensity = v }

// Clone копирует источник света без родителя
func (l *PointLight) Clone() *PointLight {
	return &PointLight{Node: l.Node.Clone(), Color: l.Color, Distance: l.Distance, intensity: l.intensity}
}

// Camera камера с точкой наблюдения
type Camera struct {
	*Node
	target mgl64.Vec3
}

// NewCamera создает камеру в начале координат
func NewCamera() *Camera {
	return &Camera{Node: NewNode("camera")}
}

// LookAt поворачивает камеру к цели
func (c *Camera) LookAt(target mgl64.Vec3) {
	c.target = target
	if c.Position().Sub(target).Len() < 1e-9 {
		return
	}
	c.SetQuaternion(mgl64.QuatLookAtV(c.Position(), target, mgl64.Vec3{0, 1, 0}))
}

// Target возвращает последнюю точку наблюдения
func (c *Camera) Target() mgl64.Vec3 {
	return c.target
}
