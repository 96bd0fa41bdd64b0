package entity

// BehaviorType закрытый набор тегов вариантов поведения
type BehaviorType string

const (
	BehaviorLightToggle BehaviorType = "light_toggle"
	BehaviorVehicle     BehaviorType = "vehicle"
	BehaviorChessBoard  BehaviorType = "chess_board"
	BehaviorChessPiece  BehaviorType = "chess_piece"

	// Зарезервированы под будущие варианты, реализации нет
	BehaviorPhysics   BehaviorType = "physics"
	BehaviorAnimation BehaviorType = "animation"
	BehaviorCustom    BehaviorType = "custom"
)

// KnownBehaviorTypes все теги, допустимые в blueprint'е
var KnownBehaviorTypes = []BehaviorType{
	BehaviorLightToggle,
	BehaviorVehicle,
	BehaviorChessBoard,
	BehaviorChessPiece,
	BehaviorPhysics,
	BehaviorAnimation,
	BehaviorCustom,
}

// IsKnown проверяет, входит ли тег в перечисление
func (t BehaviorType) IsKnown() bool {
	for _, known := range KnownBehaviorTypes {
		if t == known {
			return true
		}
	}
	return false
}

// BehaviorDefinition декларативное описание поведения, привязанного к экземплярам
type BehaviorDefinition struct {
	BehaviorID        string                 `json:"behaviorId" jsonschema:"title=Behavior ID,minLength=1,required"`
	Type              BehaviorType           `json:"type" jsonschema:"enum=light_toggle,enum=vehicle,enum=chess_board,enum=chess_piece,enum=physics,enum=animation,enum=custom,required"`
	TargetInstanceIDs []string               `json:"targetInstanceIds" jsonschema:"required"`
	Config            map[string]interface{} `json:"config,omitempty" jsonschema:"description=Behavior-specific configuration interpreted per type"`
	Enabled           *bool                  `json:"enabled,omitempty"`
	Priority          *float64               `json:"priority,omitempty"`
}

// IsEnabled возвращает флаг включения, по умолчанию true
func (b BehaviorDefinition) IsEnabled() bool {
	return boolOrTrue(b.Enabled)
}
