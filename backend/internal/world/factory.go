package world

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/sync/singleflight"

	"roomie/backend/internal/core/domain/entity"
)

// ErrAssetUnsupported загрузчик не умеет разрешать такой sourceUrl
var ErrAssetUnsupported = errors.New("unsupported asset source")

// ErrAssetFallback модель не загрузилась, вместе с ошибкой возвращается заглушка
var ErrAssetFallback = errors.New("asset replaced with fallback")

// Цвет материала по умолчанию и пурпурный цвет заглушки
var (
	defaultMaterialColor  = entity.Color{R: 0x25 / 255.0, G: 0x63 / 255.0, B: 0xeb / 255.0}
	fallbackMaterialColor = entity.Color{R: 1, G: 0, B: 1}
)

// AssetLoader загружает внешнюю модель по sourceUrl
type AssetLoader interface {
	Load(ctx context.Context, sourceURL string) (*Node, error)
}

// Factory строит объекты сцены по шаблонам форм и кэширует загруженные модели
type Factory struct {
	loader AssetLoader
	logger *log.Logger

	cache map[string]*Node
	mu    sync.RWMutex
	group singleflight.Group
}

// NewFactory создает фабрику. loader может быть nil: тогда внешние модели заменяются заглушкой.
func NewFactory(loader AssetLoader, logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &Factory{
		loader: loader,
		logger: logger,
		cache:  make(map[string]*Node),
	}
}

// CreateRenderable строит объект сцены для шаблона
func (f *Factory) CreateRenderable(ctx context.Context, shape *entity.ShapeDefinition) (Renderable, error) {
	if shape == nil {
		return nil, fmt.Errorf("create renderable: shape is nil")
	}

	switch shape.Kind {
	case entity.ShapeKindPrimitive:
		return f.createPrimitive(shape), nil
	case entity.ShapeKindMesh, entity.ShapeKindExternalAsset:
		return f.createExternalAsset(ctx, shape)
	default:
		f.logger.Printf("[Factory] ПРЕДУПРЕЖДЕНИЕ: неизвестный вид формы %q у %s, используется заглушка", shape.Kind, shape.ShapeID)
		return newFallbackMesh(shape.ShapeID), nil
	}
}

// CreatePointLight создает точечный источник света для поведений
func (f *Factory) CreatePointLight(color entity.Color, intensity, distance float64) Light {
	return NewPointLight(color, intensity, distance)
}

// ClearAssetCache сбрасывает кэш загруженных моделей
func (f *Factory) ClearAssetCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[string]*Node)
}

// CachedAssets возвращает число моделей в кэше
func (f *Factory) CachedAssets() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

func (f *Factory) createPrimitive(shape *entity.ShapeDefinition) *Node {
	var dims entity.Dimensions
	if shape.Dimensions != nil {
		dims = *shape.Dimensions
	}

	g := Geometry{Primitive: shape.PrimitiveType}
	switch shape.PrimitiveType {
	case entity.PrimitiveBox:
		g.Width, g.Height, g.Depth = orFloat(dims.Width, 1), orFloat(dims.Height, 1), orFloat(dims.Depth, 1)
	case entity.PrimitiveSphere:
		g.Radius, g.Segments = orFloat(dims.Radius, 0.5), orInt(dims.Segments, 32)
	case entity.PrimitiveCylinder, entity.PrimitiveCone:
		g.Radius, g.Height, g.Segments = orFloat(dims.Radius, 0.5), orFloat(dims.Height, 1), orInt(dims.Segments, 32)
	case entity.PrimitivePlane:
		g.Width, g.Height = orFloat(dims.Width, 1), orFloat(dims.Height, 1)
	case entity.PrimitiveTorus:
		g.Radius, g.RadiusTube, g.Segments = orFloat(dims.Radius, 0.5), orFloat(dims.RadiusTube, 0.2), orInt(dims.Segments, 16)
	default:
		f.logger.Printf("[Factory] ПРЕДУПРЕЖДЕНИЕ: неизвестный примитив %q у %s, используется куб", shape.PrimitiveType, shape.ShapeID)
		g = Geometry{Primitive: entity.PrimitiveBox, Width: 1, Height: 1, Depth: 1}
	}

	return NewMesh(shape.ShapeID, g, materialFor(shape.Material))
}

func (f *Factory) createExternalAsset(ctx context.Context, shape *entity.ShapeDefinition) (Renderable, error) {
	if shape.SourceURL == "" {
		f.logger.Printf("[Factory] ПРЕДУПРЕЖДЕНИЕ: у %s нет sourceUrl, используется заглушка", shape.ShapeID)
		return newFallbackMesh(shape.ShapeID), nil
	}

	f.mu.RLock()
	cached, ok := f.cache[shape.SourceURL]
	f.mu.RUnlock()
	if ok {
		return cached.Clone(), nil
	}

	if f.loader == nil {
		f.logger.Printf("[Factory] ПРЕДУПРЕЖДЕНИЕ: загрузчик не настроен, %s заменен заглушкой", shape.SourceURL)
		return newFallbackMesh(shape.ShapeID), nil
	}

	// Одновременные запросы одного sourceUrl разделяют одну загрузку
	v, err, _ := f.group.Do(shape.SourceURL, func() (interface{}, error) {
		f.mu.RLock()
		cached, ok := f.cache[shape.SourceURL]
		f.mu.RUnlock()
		if ok {
			return cached, nil
		}

		model, err := f.loader.Load(ctx, shape.SourceURL)
		if err != nil {
			return nil, err
		}
		Traverse(model, func(r Renderable) {
			if n, ok := r.(*Node); ok && n.Geometry() != nil {
				n.SetShadows(true, true)
			}
		})
		f.mu.Lock()
		f.cache[shape.SourceURL] = model
		f.mu.Unlock()
		f.logger.Printf("[Factory] Загружена модель %s", shape.SourceURL)
		return model, nil
	})
	if err != nil {
		f.logger.Printf("[Factory] ПРЕДУПРЕЖДЕНИЕ: не удалось загрузить %s: %v, используется заглушка", shape.SourceURL, err)
		return newFallbackMesh(shape.ShapeID), fmt.Errorf("load asset %s: %w: %w", shape.SourceURL, err, ErrAssetFallback)
	}
	return v.(*Node).Clone(), nil
}

func materialFor(mat *entity.Material) NodeMaterial {
	out := NodeMaterial{
		Color:     defaultMaterialColor,
		Metalness: 0.2,
		Roughness: 0.8,
		Opacity:   1,
	}
	if mat == nil {
		return out
	}
	if mat.Color != nil {
		out.Color = *mat.Color
	}
	if mat.Metalness != nil {
		out.Metalness = *mat.Metalness
	}
	if mat.Roughness != nil {
		out.Roughness = *mat.Roughness
	}
	if mat.Transparent != nil {
		out.Transparent = *mat.Transparent
	}
	if mat.Opacity != nil {
		out.Opacity = *mat.Opacity
	}
	if mat.Emissive != nil {
		e := *mat.Emissive
		out.Emissive = &e
		if mat.EmissiveIntensity != nil {
			out.EmissiveIntensity = *mat.EmissiveIntensity
		}
	}
	return out
}

func newFallbackMesh(name string) *Node {
	return NewMesh(name, Geometry{Primitive: entity.PrimitiveBox, Width: 1, Height: 1, Depth: 1}, NodeMaterial{
		Color:     fallbackMaterialColor,
		Metalness: 0.2,
		Roughness: 0.8,
		Opacity:   1,
	})
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// LibraryLoader разрешает адреса вида library://<name> во встроенные составные модели.
// Разбор glTF не поддерживается.
type LibraryLoader struct {
	models map[string]func() *Node
}

// NewLibraryLoader создает загрузчик со встроенной библиотекой моделей
func NewLibraryLoader() *LibraryLoader {
	return &LibraryLoader{
		models: map[string]func() *Node{
			"lamp": libraryLamp,
			"car":  libraryCar,
			"pawn": libraryPawn,
		},
	}
}

// Load возвращает новую копию встроенной модели
func (l *LibraryLoader) Load(ctx context.Context, sourceURL string) (*Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, ok := strings.CutPrefix(sourceURL, "library://")
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetUnsupported, sourceURL)
	}
	build, ok := l.models[strings.Trim(name, "/")]
	if !ok {
		return nil, fmt.Errorf("library asset %q not found", name)
	}
	return build(), nil
}

func libraryLamp() *Node {
	root := NewNode("lamp")
	base := NewMesh("lamp_base", Geometry{Primitive: entity.PrimitiveCylinder, Radius: 0.3, Height: 0.1, Segments: 32},
		NodeMaterial{Color: entity.Color{R: 0.2, G: 0.2, B: 0.2}, Metalness: 0.6, Roughness: 0.4, Opacity: 1})
	stem := NewMesh("lamp_stem", Geometry{Primitive: entity.PrimitiveCylinder, Radius: 0.05, Height: 1.2, Segments: 16},
		NodeMaterial{Color: entity.Color{R: 0.2, G: 0.2, B: 0.2}, Metalness: 0.6, Roughness: 0.4, Opacity: 1})
	stem.SetPosition(mgl64.Vec3{0, 0.6, 0})
	warm := entity.Color{R: 1, G: 0.9, B: 0.7}
	shade := NewMesh("lamp_shade", Geometry{Primitive: entity.PrimitiveCone, Radius: 0.4, Height: 0.4, Segments: 32},
		NodeMaterial{Color: warm, Metalness: 0.1, Roughness: 0.9, Opacity: 1, Emissive: &warm, EmissiveIntensity: 1})
	shade.SetPosition(mgl64.Vec3{0, 1.3, 0})
	root.Add(base)
	root.Add(stem)
	root.Add(shade)
	return root
}

func libraryCar() *Node {
	root := NewNode("car")
	body := NewMesh("car_body", Geometry{Primitive: entity.PrimitiveBox, Width: 2, Height: 0.6, Depth: 4},
		NodeMaterial{Color: entity.Color{R: 0.8, G: 0.1, B: 0.1}, Metalness: 0.5, Roughness: 0.5, Opacity: 1})
	body.SetPosition(mgl64.Vec3{0, 0.5, 0})
	cabin := NewMesh("car_cabin", Geometry{Primitive: entity.PrimitiveBox, Width: 1.6, Height: 0.6, Depth: 2},
		NodeMaterial{Color: entity.Color{R: 0.7, G: 0.8, B: 0.9}, Metalness: 0.3, Roughness: 0.2, Opacity: 0.8, Transparent: true})
	cabin.SetPosition(mgl64.Vec3{0, 1.1, -0.2})
	root.Add(body)
	root.Add(cabin)
	return root
}

func libraryPawn() *Node {
	root := NewNode("pawn")
	base := NewMesh("pawn_base", Geometry{Primitive: entity.PrimitiveCylinder, Radius: 0.3, Height: 0.2, Segments: 32},
		NodeMaterial{Color: entity.Color{R: 0.9, G: 0.9, B: 0.9}, Metalness: 0.2, Roughness: 0.8, Opacity: 1})
	head := NewMesh("pawn_head", Geometry{Primitive: entity.PrimitiveSphere, Radius: 0.2, Segments: 32},
		NodeMaterial{Color: entity.Color{R: 0.9, G: 0.9, B: 0.9}, Metalness: 0.2, Roughness: 0.8, Opacity: 1})
	head.SetPosition(mgl64.Vec3{0, 0.5, 0})
	root.Add(base)
	root.Add(head)
	return root
}
