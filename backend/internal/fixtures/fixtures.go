// Package fixtures содержит встроенные blueprint'ы для проверки комнаты без оркестратора
package fixtures

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"roomie/backend/internal/core/domain/entity"
)

// Имена встроенных blueprint'ов
const (
	Chessboard = "chessboard"
	Vehicle    = "vehicle"
	Lamp       = "lamp"
)

var builders = map[string]func() *entity.BlueprintResponse{
	Chessboard: ChessboardBlueprint,
	Vehicle:    VehicleBlueprint,
	Lamp:       LampBlueprint,
}

// Names возвращает имена встроенных blueprint'ов по алфавиту
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ByName строит новый экземпляр blueprint'а по имени
func ByName(name string) (*entity.BlueprintResponse, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown fixture %q", name)
	}
	return build(), nil
}

func vec(x, y, z float64) entity.Vector3 {
	return entity.Vector3{X: x, Y: y, Z: z}
}

func ptr[T any](v T) *T {
	return &v
}

func primitive(id string, kind entity.PrimitiveType, dims entity.Dimensions, color entity.Color, metalness, roughness float64) entity.ShapeDefinition {
	return entity.ShapeDefinition{
		ShapeID:       id,
		Kind:          entity.ShapeKindPrimitive,
		PrimitiveType: kind,
		Dimensions:    &dims,
		Material: &entity.Material{
			Color:     &color,
			Metalness: ptr(metalness),
			Roughness: ptr(roughness),
		},
	}
}

func placed(id, shapeID, name string, position entity.Vector3, shadows bool, tags ...string) entity.SceneObjectInstance {
	return entity.SceneObjectInstance{
		InstanceID:    id,
		ShapeID:       shapeID,
		Name:          name,
		Position:      position,
		Rotation:      entity.EulerRotation(0, 0, 0),
		Scale:         vec(1, 1, 1),
		CastShadow:    ptr(shadows),
		ReceiveShadow: ptr(true),
		Tags:          tags,
	}
}

// ChessboardBlueprint доска 8x8 с восемью белыми и восемью черными пешками
func ChessboardBlueprint() *entity.BlueprintResponse {
	bp := entity.TextOnlyBlueprint("Created a chess board with white and black pawns. Click on pieces to select them!")

	bp.Geometry.Shapes = []entity.ShapeDefinition{
		primitive("chess-board", entity.PrimitiveBox, entity.Dimensions{Width: 8, Height: 0.2, Depth: 8},
			entity.Color{R: 0.8, G: 0.7, B: 0.6}, 0.1, 0.8),
		primitive("chess-pawn-white", entity.PrimitiveCylinder, entity.Dimensions{Radius: 0.3, Height: 0.8},
			entity.Color{R: 0.9, G: 0.9, B: 0.9}, 0.2, 0.6),
		primitive("chess-pawn-black", entity.PrimitiveCylinder, entity.Dimensions{Radius: 0.3, Height: 0.8},
			entity.Color{R: 0.1, G: 0.1, B: 0.1}, 0.2, 0.6),
	}

	bp.Geometry.Instances = append(bp.Geometry.Instances,
		placed("board-1", "chess-board", "Chess Board", vec(0, 0.1, 0), false, "chess", "board"))

	bp.Behavior.Behaviors = append(bp.Behavior.Behaviors, entity.BehaviorDefinition{
		BehaviorID:        "chess-board-behavior",
		Type:              entity.BehaviorChessBoard,
		TargetInstanceIDs: []string{"board-1"},
		Config: map[string]interface{}{
			"gridSize":    8.0,
			"squareSize":  1.0,
			"currentTurn": "white",
		},
		Enabled: ptr(true),
	})

	rows := []struct {
		team  string
		gridY int
		z     float64
	}{
		{"white", 1, -2.5},
		{"black", 6, 2.5},
	}
	for _, row := range rows {
		for i := 0; i < 8; i++ {
			id := fmt.Sprintf("%s-pawn-%d", row.team, i)
			pawn := placed(id, "chess-pawn-"+row.team, fmt.Sprintf("%s Pawn %d", title(row.team), i+1),
				vec(-3.5+float64(i), 0.5, row.z), true, "chess", "piece", row.team, "pawn")
			pawn.Metadata = map[string]interface{}{
				"team":      row.team,
				"pieceType": "pawn",
				"gridX":     float64(i),
				"gridY":     float64(row.gridY),
			}
			bp.Geometry.Instances = append(bp.Geometry.Instances, pawn)

			bp.Behavior.Behaviors = append(bp.Behavior.Behaviors, entity.BehaviorDefinition{
				BehaviorID:        id + "-behavior",
				Type:              entity.BehaviorChessPiece,
				TargetInstanceIDs: []string{id},
				Config: map[string]interface{}{
					"pieceType":    "pawn",
					"team":         row.team,
					"gridPosition": map[string]interface{}{"x": float64(i), "y": float64(row.gridY)},
				},
				Enabled: ptr(true),
			})
		}
	}
	return bp
}

func title(team string) string {
	if team == "" {
		return team
	}
	return strings.ToUpper(team[:1]) + team[1:]
}

// VehicleBlueprint красная машина: кузов, кабина и четыре колеса
func VehicleBlueprint() *entity.BlueprintResponse {
	bp := entity.TextOnlyBlueprint("Created a red car! Press E to enter drive mode, then use WASD to drive.")

	red := entity.Color{R: 0.8, G: 0.1, B: 0.1}
	bp.Geometry.Shapes = []entity.ShapeDefinition{
		primitive("car-body", entity.PrimitiveBox, entity.Dimensions{Width: 2, Height: 1, Depth: 4}, red, 0.6, 0.3),
		primitive("car-cabin", entity.PrimitiveBox, entity.Dimensions{Width: 1.8, Height: 0.8, Depth: 2}, red, 0.6, 0.3),
		primitive("car-wheel", entity.PrimitiveCylinder, entity.Dimensions{Radius: 0.4, Height: 0.3},
			entity.Color{R: 0.1, G: 0.1, B: 0.1}, 0.3, 0.7),
	}

	bp.Geometry.Instances = []entity.SceneObjectInstance{
		placed("car-body-1", "car-body", "Car Body", vec(5, 0.8, 0), true, "vehicle", "car", "body"),
		placed("car-cabin-1", "car-cabin", "Car Cabin", vec(5, 1.7, -0.5), true, "vehicle", "car", "cabin"),
	}

	wheels := []struct {
		id, name string
		x, z     float64
	}{
		{"car-wheel-fl", "Front Left Wheel", 4.2, 1.2},
		{"car-wheel-fr", "Front Right Wheel", 5.8, 1.2},
		{"car-wheel-rl", "Rear Left Wheel", 4.2, -1.2},
		{"car-wheel-rr", "Rear Right Wheel", 5.8, -1.2},
	}
	targets := []string{"car-body-1", "car-cabin-1"}
	for _, w := range wheels {
		wheel := placed(w.id, "car-wheel", w.name, vec(w.x, 0.4, w.z), true, "vehicle", "car", "wheel")
		wheel.Rotation = entity.EulerRotation(0, 0, math.Pi/2)
		bp.Geometry.Instances = append(bp.Geometry.Instances, wheel)
		targets = append(targets, w.id)
	}

	bp.Behavior.Behaviors = []entity.BehaviorDefinition{{
		BehaviorID:        "car-vehicle-behavior",
		Type:              entity.BehaviorVehicle,
		TargetInstanceIDs: targets,
		Config: map[string]interface{}{
			"maxSpeed":     5.0,
			"turnSpeed":    2.0,
			"acceleration": 2.0,
			"braking":      3.0,
		},
		Enabled: ptr(true),
	}}
	return bp
}

// LampBlueprint лампа из трех частей; клик по плафону включает и выключает свет
func LampBlueprint() *entity.BlueprintResponse {
	bp := entity.TextOnlyBlueprint("Created a lamp! Click on the bulb to toggle it on/off.")

	grey := entity.Color{R: 0.3, G: 0.3, B: 0.3}
	warm := entity.Color{R: 1, G: 0.9, B: 0.7}

	bulb := primitive("lamp-bulb", entity.PrimitiveSphere, entity.Dimensions{Radius: 0.3}, warm, 0, 1)
	bulb.Material.Emissive = &warm
	bulb.Material.EmissiveIntensity = ptr(1.0)

	bp.Geometry.Shapes = []entity.ShapeDefinition{
		primitive("lamp-base", entity.PrimitiveCylinder, entity.Dimensions{Radius: 0.3, Height: 0.1}, grey, 0.8, 0.2),
		primitive("lamp-pole", entity.PrimitiveCylinder, entity.Dimensions{Radius: 0.05, Height: 2}, grey, 0.8, 0.2),
		bulb,
	}

	bulbInstance := placed("lamp-bulb-1", "lamp-bulb", "Lamp Bulb", vec(-5, 2.3, 0), false, "lamp", "furniture", "light")
	bulbInstance.ReceiveShadow = ptr(false)

	bp.Geometry.Instances = []entity.SceneObjectInstance{
		placed("lamp-base-1", "lamp-base", "Lamp Base", vec(-5, 0.05, 0), true, "lamp", "furniture"),
		placed("lamp-pole-1", "lamp-pole", "Lamp Pole", vec(-5, 1.05, 0), true, "lamp", "furniture"),
		bulbInstance,
	}

	bp.Behavior.Behaviors = []entity.BehaviorDefinition{{
		BehaviorID:        "lamp-toggle-behavior",
		Type:              entity.BehaviorLightToggle,
		TargetInstanceIDs: []string{"lamp-bulb-1"},
		Config: map[string]interface{}{
			"lightColor":     map[string]interface{}{"r": 1.0, "g": 0.9, "b": 0.7},
			"lightIntensity": 2.0,
			"lightDistance":  10.0,
			"isOn":           true,
		},
		Enabled: ptr(true),
	}}
	return bp
}
