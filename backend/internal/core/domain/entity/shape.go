package entity

// ShapeKind вид шаблона формы
type ShapeKind string

const (
	ShapeKindPrimitive     ShapeKind = "primitive"
	ShapeKindMesh          ShapeKind = "mesh"
	ShapeKindExternalAsset ShapeKind = "external_asset"
	ShapeKindParametric    ShapeKind = "parametric"
)

// PrimitiveType тип примитивной геометрии
type PrimitiveType string

const (
	PrimitiveBox      PrimitiveType = "box"
	PrimitiveSphere   PrimitiveType = "sphere"
	PrimitiveCylinder PrimitiveType = "cylinder"
	PrimitiveCone     PrimitiveType = "cone"
	PrimitivePlane    PrimitiveType = "plane"
	PrimitiveTorus    PrimitiveType = "torus"
)

// ColliderType тип коллайдера из физических подсказок
type ColliderType string

const (
	ColliderBox      ColliderType = "box"
	ColliderSphere   ColliderType = "sphere"
	ColliderCylinder ColliderType = "cylinder"
	ColliderMesh     ColliderType = "mesh"
	ColliderNone     ColliderType = "none"
)

// Dimensions параметры примитива. Нулевые значения заменяются значениями по умолчанию фабрики.
type Dimensions struct {
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Depth      float64 `json:"depth,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	RadiusTube float64 `json:"radiusTube,omitempty"`
	Segments   int     `json:"segments,omitempty"`
}

// Material описание материала формы
type Material struct {
	Color             *Color   `json:"color,omitempty"`
	Metalness         *float64 `json:"metalness,omitempty" jsonschema:"minimum=0,maximum=1"`
	Roughness         *float64 `json:"roughness,omitempty" jsonschema:"minimum=0,maximum=1"`
	Emissive          *Color   `json:"emissive,omitempty"`
	EmissiveIntensity *float64 `json:"emissiveIntensity,omitempty"`
	Transparent       *bool    `json:"transparent,omitempty"`
	Opacity           *float64 `json:"opacity,omitempty" jsonschema:"minimum=0,maximum=1"`
}

// PhysicsHints физические подсказки. Движок физики их не исполняет, они только хранятся.
type PhysicsHints struct {
	Mass        *float64     `json:"mass,omitempty"`
	Friction    *float64     `json:"friction,omitempty"`
	Restitution *float64     `json:"restitution,omitempty"`
	Collider    ColliderType `json:"collider,omitempty" jsonschema:"enum=box,enum=sphere,enum=cylinder,enum=mesh,enum=none"`
}

// ShapeDefinition неизменяемый шаблон формы. Новая форма - новый shapeId.
type ShapeDefinition struct {
	ShapeID       string        `json:"shapeId" jsonschema:"title=Shape ID,minLength=1,required"`
	Kind          ShapeKind     `json:"kind" jsonschema:"enum=primitive,enum=mesh,enum=external_asset,enum=parametric,required"`
	PrimitiveType PrimitiveType `json:"primitiveType,omitempty" jsonschema:"enum=box,enum=sphere,enum=cylinder,enum=cone,enum=plane,enum=torus"`
	Dimensions    *Dimensions   `json:"dimensions,omitempty"`
	SourceURL     string        `json:"sourceUrl,omitempty" jsonschema:"description=URL to .glb/.gltf or library://path"`
	Material      *Material     `json:"material,omitempty"`
	Physics       *PhysicsHints `json:"physics,omitempty"`
}

// Clone возвращает глубокую копию шаблона
func (s ShapeDefinition) Clone() ShapeDefinition {
	out := s
	if s.Dimensions != nil {
		d := *s.Dimensions
		out.Dimensions = &d
	}
	if s.Material != nil {
		m := *s.Material
		m.Color = cloneColor(s.Material.Color)
		m.Emissive = cloneColor(s.Material.Emissive)
		m.Metalness = cloneFloat(s.Material.Metalness)
		m.Roughness = cloneFloat(s.Material.Roughness)
		m.EmissiveIntensity = cloneFloat(s.Material.EmissiveIntensity)
		m.Opacity = cloneFloat(s.Material.Opacity)
		if s.Material.Transparent != nil {
			t := *s.Material.Transparent
			m.Transparent = &t
		}
		out.Material = &m
	}
	if s.Physics != nil {
		p := *s.Physics
		p.Mass = cloneFloat(s.Physics.Mass)
		p.Friction = cloneFloat(s.Physics.Friction)
		p.Restitution = cloneFloat(s.Physics.Restitution)
		out.Physics = &p
	}
	return out
}

func cloneColor(c *Color) *Color {
	if c == nil {
		return nil
	}
	cc := *c
	return &cc
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
