// Package validation проверяет blueprint'ы до того, как они попадут в ядро.
// Ядро само по себе ничего не валидирует: оно изолирует ошибки по элементам.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"roomie/backend/internal/core/domain/entity"
)

// ErrInvalidJSON ответ не является JSON
var ErrInvalidJSON = errors.New("invalid JSON response")

// Validate проверяет уже декодированный blueprint: обязательные идентификаторы,
// перечисления и диапазоны материалов.
func Validate(bp *entity.BlueprintResponse) []string {
	c := &checker{}
	if bp == nil {
		c.addf("", "Expected object, received null")
		return c.issues
	}

	for i, shape := range bp.Geometry.Shapes {
		path := join("geometry.shapes", i)
		if shape.ShapeID == "" {
			c.addf(join(path, "shapeId"), "Required")
		}
		c.enumValue(string(shape.Kind), join(path, "kind"), shapeKinds)
		if shape.PrimitiveType != "" {
			c.enumValue(string(shape.PrimitiveType), join(path, "primitiveType"), primitiveTypes)
		}
		if m := shape.Material; m != nil {
			mp := join(path, "material")
			checkColor(c, m.Color, join(mp, "color"))
			checkColor(c, m.Emissive, join(mp, "emissive"))
			checkUnit(c, m.Metalness, join(mp, "metalness"))
			checkUnit(c, m.Roughness, join(mp, "roughness"))
			checkUnit(c, m.Opacity, join(mp, "opacity"))
		}
		if p := shape.Physics; p != nil && p.Collider != "" {
			c.enumValue(string(p.Collider), join(path, "physics.collider"), colliderTypes)
		}
	}

	for i, inst := range bp.Geometry.Instances {
		path := join("geometry.instances", i)
		if inst.InstanceID == "" {
			c.addf(join(path, "instanceId"), "Required")
		}
		if inst.ShapeID == "" {
			c.addf(join(path, "shapeId"), "Required")
		}
	}

	for i, b := range bp.Behavior.Behaviors {
		path := join("behavior.behaviors", i)
		if b.BehaviorID == "" {
			c.addf(join(path, "behaviorId"), "Required")
		}
		c.enumValue(string(b.Type), join(path, "type"), behaviorTypes)
		if b.TargetInstanceIDs == nil {
			c.addf(join(path, "targetInstanceIds"), "Required")
		}
	}

	return c.issues
}

func checkColor(c *checker, col *entity.Color, path string) {
	if col == nil {
		return
	}
	c.unitRange(col.R, join(path, "r"))
	c.unitRange(col.G, join(path, "g"))
	c.unitRange(col.B, join(path, "b"))
}

func checkUnit(c *checker, v *float64, path string) {
	if v != nil {
		c.unitRange(*v, path)
	}
}

// ValidateInstanceShapeReferences проверяет, что каждый экземпляр ссылается
// на форму из этого же blueprint'а
func ValidateInstanceShapeReferences(bp *entity.BlueprintResponse) []string {
	if bp == nil {
		return nil
	}
	shapes := make(map[string]struct{}, len(bp.Geometry.Shapes))
	for _, s := range bp.Geometry.Shapes {
		shapes[s.ShapeID] = struct{}{}
	}

	var issues []string
	for _, inst := range bp.Geometry.Instances {
		if _, ok := shapes[inst.ShapeID]; !ok {
			issues = append(issues, fmt.Sprintf("Instance %s references non-existent shape %s", inst.InstanceID, inst.ShapeID))
		}
	}
	return issues
}

// ValidateBehaviorReferences проверяет, что цели поведений есть среди экземпляров blueprint'а
func ValidateBehaviorReferences(bp *entity.BlueprintResponse) []string {
	if bp == nil {
		return nil
	}
	instances := make(map[string]struct{}, len(bp.Geometry.Instances))
	for _, inst := range bp.Geometry.Instances {
		instances[inst.InstanceID] = struct{}{}
	}

	var issues []string
	for _, b := range bp.Behavior.Behaviors {
		for _, target := range b.TargetInstanceIDs {
			if _, ok := instances[target]; !ok {
				issues = append(issues, fmt.Sprintf("Behavior %s references non-existent instance %s", b.BehaviorID, target))
			}
		}
	}
	return issues
}

// ValidateComplete разбирает JSON, проверяет структуру и ссылки.
// Blueprint возвращается только если замечаний нет.
func ValidateComplete(raw []byte) (*entity.BlueprintResponse, []string) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, []string{fmt.Sprintf("root: %v", err)}
	}
	if issues := ValidateSchema(generic); len(issues) > 0 {
		return nil, issues
	}

	var bp entity.BlueprintResponse
	if err := json.Unmarshal(raw, &bp); err != nil {
		return nil, []string{fmt.Sprintf("root: %v", err)}
	}

	var issues []string
	issues = append(issues, Validate(&bp)...)
	issues = append(issues, ValidateInstanceShapeReferences(&bp)...)
	issues = append(issues, ValidateBehaviorReferences(&bp)...)
	if len(issues) > 0 {
		return nil, issues
	}
	return &bp, nil
}

// DecodeResponse декодирует ответ оркестратора. Массив разворачивается до первого
// элемента. Если полезная нагрузка не является blueprint'ом, возвращается blueprint
// только с сообщением: строка как есть, иначе исходный JSON. Замечания схемы
// возвращаются вместе с таким blueprint'ом. Ошибка только для невалидного JSON.
func DecodeResponse(raw []byte) (*entity.BlueprintResponse, []string, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	payload := raw
	if arr, ok := generic.([]interface{}); ok {
		if len(arr) == 0 {
			generic = nil
		} else {
			generic = arr[0]
		}
		encoded, err := json.Marshal(generic)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		payload = encoded
	}

	issues := ValidateSchema(generic)
	if len(issues) == 0 {
		var bp entity.BlueprintResponse
		if err := json.Unmarshal(payload, &bp); err == nil {
			return &bp, nil, nil
		}
	}

	if s, ok := generic.(string); ok {
		return entity.TextOnlyBlueprint(s), issues, nil
	}
	return entity.TextOnlyBlueprint(string(bytes.TrimSpace(payload))), issues, nil
}
