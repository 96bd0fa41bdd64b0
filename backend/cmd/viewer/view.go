package main

import (
	"math"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"

	"roomie/backend/internal/core/domain/entity"
	"roomie/backend/internal/world"
)

const (
	cellAspect  = 2.0 // клетка терминала примерно вдвое выше своей ширины
	defaultZoom = 2.0
	minZoom     = 0.25
	maxZoom     = 8.0
)

var (
	floorColor   = colorful.Color{R: 0.08, G: 0.08, B: 0.1}
	missingColor = colorful.Color{R: 1, G: 0, B: 1}
)

type cell struct {
	ch    rune
	color colorful.Color
}

// sprite проекция меша на пол
type sprite struct {
	center mgl64.Vec2
	half   mgl64.Vec2
	top    float64
	glyph  rune
	color  colorful.Color
}

// glow пятно света точечной лампы
type glow struct {
	center   mgl64.Vec2
	radius   float64
	color    colorful.Color
	strength float64
}

// View вид сверху на пол комнаты. Мировые x идут по колонкам, z по строкам.
type View struct {
	Center mgl64.Vec2
	Zoom   float64 // клеток по вертикали на единицу мира

	width, height int
	cells         []cell
}

// NewView создает вид с центром в начале координат
func NewView(width, height int) *View {
	v := &View{Zoom: defaultZoom}
	v.Resize(width, height)
	return v
}

func (v *View) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	v.width, v.height = width, height
	v.cells = make([]cell, width*height)
}

func (v *View) Size() (int, int) {
	return v.width, v.height
}

// ZoomBy меняет масштаб в пределах [minZoom, maxZoom]
func (v *View) ZoomBy(factor float64) {
	v.Zoom = math.Max(minZoom, math.Min(maxZoom, v.Zoom*factor))
}

// ToScreen клетка, в которую попадает точка пола
func (v *View) ToScreen(x, z float64) (col, row int) {
	col = int(math.Floor((x-v.Center[0])*v.Zoom*cellAspect)) + v.width/2
	row = int(math.Floor((z-v.Center[1])*v.Zoom)) + v.height/2
	return col, row
}

// ToWorld центр клетки в координатах пола
func (v *View) ToWorld(col, row int) (x, z float64) {
	x = v.Center[0] + (float64(col-v.width/2)+0.5)/(v.Zoom*cellAspect)
	z = v.Center[1] + (float64(row-v.height/2)+0.5)/v.Zoom
	return x, z
}

// At содержимое клетки кадра
func (v *View) At(col, row int) (rune, colorful.Color) {
	if !v.inside(col, row) {
		return 0, colorful.Color{}
	}
	c := v.cells[row*v.width+col]
	return c.ch, c.color
}

func (v *View) inside(col, row int) bool {
	return col >= 0 && row >= 0 && col < v.width && row < v.height
}

// Render рисует видимые меши сцены снизу вверх, затем пятна света
func (v *View) Render(scene world.Renderable) {
	for i := range v.cells {
		v.cells[i] = cell{ch: ' ', color: floorColor}
	}

	sprites, glows := collect(scene)
	sort.SliceStable(sprites, func(i, j int) bool { return sprites[i].top < sprites[j].top })
	for _, s := range sprites {
		v.fill(s)
	}
	for _, g := range glows {
		v.light(g)
	}
}

func collect(scene world.Renderable) ([]sprite, []glow) {
	var (
		sprites []sprite
		glows   []glow
	)
	world.Traverse(scene, func(r world.Renderable) {
		if !world.VisibleInScene(r) {
			return
		}
		pos := world.WorldPosition(r)
		plan := mgl64.Vec2{pos[0], pos[2]}

		switch n := r.(type) {
		case *world.PointLight:
			if n.Intensity() <= 0 {
				return
			}
			glows = append(glows, glow{
				center:   plan,
				radius:   math.Max(n.Distance/4, 1),
				color:    toColorful(n.Color),
				strength: math.Min(n.Intensity()/2, 1),
			})
		case *world.Node:
			g := n.Geometry()
			if g == nil {
				return
			}
			sprites = append(sprites, sprite{
				center: plan,
				half:   world.PlanSize(n).Mul(0.5),
				top:    pos[1] + g.Height*world.WorldScale(n)[1]/2,
				glyph:  glyphFor(g.Primitive),
				color:  shade(n.Material()),
			})
		}
	})
	return sprites, glows
}

// fill закрашивает прямоугольник меша, минимум одну клетку под центром
func (v *View) fill(s sprite) {
	const eps = 1e-9
	c0, r0 := v.ToScreen(s.center[0]-s.half[0], s.center[1]-s.half[1])
	c1, r1 := v.ToScreen(s.center[0]+s.half[0]-eps, s.center[1]+s.half[1]-eps)
	if c1 < c0 || r1 < r0 {
		c0, r0 = v.ToScreen(s.center[0], s.center[1])
		c1, r1 = c0, r0
	}
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if v.inside(col, row) {
				v.cells[row*v.width+col] = cell{ch: s.glyph, color: s.color}
			}
		}
	}
}

func (v *View) light(g glow) {
	c0, r0 := v.ToScreen(g.center[0]-g.radius, g.center[1]-g.radius)
	c1, r1 := v.ToScreen(g.center[0]+g.radius, g.center[1]+g.radius)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			if !v.inside(col, row) {
				continue
			}
			x, z := v.ToWorld(col, row)
			d := mgl64.Vec2{x, z}.Sub(g.center).Len()
			if d >= g.radius {
				continue
			}
			k := g.strength * (1 - d/g.radius)
			c := &v.cells[row*v.width+col]
			c.color = c.color.BlendRgb(g.color, k*0.6).Clamped()
			if c.ch == ' ' && k > 0.2 {
				c.ch = '·'
			}
		}
	}
}

// Flush переносит кадр на экран, строка статуса идет последней
func (v *View) Flush(screen tcell.Screen, status string) {
	bg := toTcell(floorColor)
	for row := 0; row < v.height; row++ {
		for col := 0; col < v.width; col++ {
			c := v.cells[row*v.width+col]
			screen.SetContent(col, row, c.ch, nil, tcell.StyleDefault.Foreground(toTcell(c.color)).Background(bg))
		}
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	col := 0
	for _, ch := range status {
		if col >= v.width {
			break
		}
		screen.SetContent(col, v.height, ch, nil, style)
		col++
	}
	for ; col < v.width; col++ {
		screen.SetContent(col, v.height, ' ', nil, style)
	}
	screen.Show()
}

func glyphFor(p entity.PrimitiveType) rune {
	switch p {
	case entity.PrimitiveSphere:
		return '●'
	case entity.PrimitiveCylinder, entity.PrimitiveCone:
		return '▓'
	case entity.PrimitivePlane:
		return '░'
	case entity.PrimitiveTorus:
		return 'o'
	default:
		return '█'
	}
}

// shade цвет меша: базовый цвет, смешанный со свечением и прозрачностью.
// Меш без материала рисуется пурпурным, как и запасной меш фабрики.
func shade(mat *world.NodeMaterial) colorful.Color {
	if mat == nil {
		return missingColor
	}
	c := toColorful(mat.Color)
	if mat.Emissive != nil && mat.EmissiveIntensity > 0 {
		c = c.BlendRgb(toColorful(*mat.Emissive), math.Min(mat.EmissiveIntensity/2, 1))
	}
	if mat.Transparent {
		c = floorColor.BlendRgb(c, mat.Opacity)
	}
	return c.Clamped()
}

func toColorful(c entity.Color) colorful.Color {
	return colorful.Color{R: c.R, G: c.G, B: c.B}
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}
