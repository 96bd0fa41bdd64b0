package entity

import "fmt"

// SceneObjectInstance размещенный в сцене экземпляр формы
type SceneObjectInstance struct {
	InstanceID string `json:"instanceId" jsonschema:"title=Instance ID,minLength=1,required"`
	ShapeID    string `json:"shapeId" jsonschema:"title=Shape ID,description=References a ShapeDefinition,minLength=1,required"`
	Name       string `json:"name,omitempty"`

	// Трансформация
	Position Vector3  `json:"position" jsonschema:"required"`
	Rotation Rotation `json:"rotation" jsonschema:"required"`
	Scale    Vector3  `json:"scale" jsonschema:"required"`

	// Состояние. Отсутствующее значение означает true.
	Visible       *bool `json:"visible,omitempty"`
	CastShadow    *bool `json:"castShadow,omitempty"`
	ReceiveShadow *bool `json:"receiveShadow,omitempty"`

	Tags     []string               `json:"tags,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IsVisible возвращает видимость с учетом значения по умолчанию
func (i SceneObjectInstance) IsVisible() bool {
	return boolOrTrue(i.Visible)
}

// CastsShadow возвращает флаг отбрасывания тени с учетом значения по умолчанию
func (i SceneObjectInstance) CastsShadow() bool {
	return boolOrTrue(i.CastShadow)
}

// ReceivesShadow возвращает флаг приема тени с учетом значения по умолчанию
func (i SceneObjectInstance) ReceivesShadow() bool {
	return boolOrTrue(i.ReceiveShadow)
}

// HasTag проверяет наличие тега
func (i SceneObjectInstance) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MetadataString возвращает строковое значение метаданных, числа приводятся к строке
func (i SceneObjectInstance) MetadataString(key string) (string, bool) {
	v, ok := i.Metadata[key]
	if !ok || v == nil {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

func boolOrTrue(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

// Clone возвращает копию определения с собственными тегами, метаданными и флагами
func (i SceneObjectInstance) Clone() SceneObjectInstance {
	out := i
	if i.Rotation.W != nil {
		w := *i.Rotation.W
		out.Rotation.W = &w
	}
	out.Visible = cloneBool(i.Visible)
	out.CastShadow = cloneBool(i.CastShadow)
	out.ReceiveShadow = cloneBool(i.ReceiveShadow)
	if i.Tags != nil {
		out.Tags = append([]string(nil), i.Tags...)
	}
	if i.Metadata != nil {
		out.Metadata = make(map[string]interface{}, len(i.Metadata))
		for k, v := range i.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}
