package world

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl64"

	"roomie/backend/internal/core/domain/entity"
)

var (
	// ErrShapeNotFound форма не зарегистрирована в каталоге
	ErrShapeNotFound = errors.New("shape not found")
	// ErrInstanceNotFound экземпляр не зарегистрирован в реестре
	ErrInstanceNotFound = errors.New("instance not found")
	// ErrNilRenderable попытка зарегистрировать экземпляр без объекта сцены
	ErrNilRenderable = errors.New("renderable is nil")
)

// Renderable непрозрачный объект сцены, которым владеет рендерер.
// Реализации должны быть сравнимыми (указатели): реестр хранит
// идентичность объектов в отдельной таблице.
type Renderable interface {
	Position() mgl64.Vec3
	SetPosition(p mgl64.Vec3)

	// Quaternion и Euler два согласованных представления одного вращения
	Quaternion() mgl64.Quat
	SetQuaternion(q mgl64.Quat)
	Euler() mgl64.Vec3
	SetEuler(e mgl64.Vec3)

	Scale() mgl64.Vec3
	SetScale(s mgl64.Vec3)

	Visible() bool
	SetVisible(v bool)
	CastShadow() bool
	ReceiveShadow() bool
	SetShadows(cast, receive bool)

	// Иерархия: лампы и камеры монтируются как дочерние объекты
	Add(child Renderable)
	Remove(child Renderable)
	Parent() Renderable
	Children() []Renderable
}

// EmissiveMesh объект с материалом, поддерживающим свечение
type EmissiveMesh interface {
	HasEmissive() bool
	EmissiveIntensity() float64
	SetEmissiveIntensity(v float64)
}

// Light точечный источник света, монтируемый в объект сцены
type Light interface {
	Renderable
	Intensity() float64
	SetIntensity(v float64)
}

// SceneSink контейнер сцены, в который добавляются корневые объекты экземпляров
type SceneSink interface {
	Add(child Renderable)
	Remove(child Renderable)
}

// RenderableFactory строит объект сцены по шаблону формы
type RenderableFactory interface {
	CreateRenderable(ctx context.Context, shape *entity.ShapeDefinition) (Renderable, error)
}

// LightFactory создает источники света для поведений
type LightFactory interface {
	CreatePointLight(color entity.Color, intensity, distance float64) Light
}

// Traverse обходит объект и всех его потомков в глубину, начиная с самого объекта
func Traverse(r Renderable, fn func(Renderable)) {
	if r == nil {
		return
	}
	fn(r)
	for _, child := range r.Children() {
		Traverse(child, fn)
	}
}

// Detach отсоединяет объект от родителя, если он есть
func Detach(r Renderable) {
	if r == nil {
		return
	}
	if parent := r.Parent(); parent != nil {
		parent.Remove(r)
	}
}
