package entity

// Geometry формы и экземпляры blueprint'а
type Geometry struct {
	Shapes    []ShapeDefinition     `json:"shapes" jsonschema:"required"`
	Instances []SceneObjectInstance `json:"instances" jsonschema:"required"`
}

// BehaviorSet поведения blueprint'а
type BehaviorSet struct {
	Behaviors []BehaviorDefinition `json:"behaviors" jsonschema:"required"`
}

// BlueprintResponse полный ответ оркестратора
type BlueprintResponse struct {
	Geometry Geometry    `json:"geometry" jsonschema:"required"`
	Behavior BehaviorSet `json:"behavior" jsonschema:"required"`
	Message  string      `json:"message" jsonschema:"description=Natural language narration shown to the user,required"`
}

// TextOnlyBlueprint создает пустой blueprint, который несет только сообщение
func TextOnlyBlueprint(message string) *BlueprintResponse {
	return &BlueprintResponse{
		Geometry: Geometry{Shapes: []ShapeDefinition{}, Instances: []SceneObjectInstance{}},
		Behavior: BehaviorSet{Behaviors: []BehaviorDefinition{}},
		Message:  message,
	}
}

// ApplyBlueprintResult структурированный результат применения blueprint'а
type ApplyBlueprintResult struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message"`
	NewInstanceIDs     []string `json:"newInstanceIds"`
	UpdatedInstanceIDs []string `json:"updatedInstanceIds"`
	Errors             []string `json:"errors"`
}
