package game

import (
	"roomie/backend/internal/core/domain/entity"
)

// Чтение открытого config поведения. Числа и строки подменяются значением
// по умолчанию, если отсутствуют или равны нулю/пустой строке; bool только если отсутствуют.

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func numberOr(cfg map[string]interface{}, key string, def float64) float64 {
	if v, ok := toFloat(cfg[key]); ok && v != 0 {
		return v
	}
	return def
}

func stringOr(cfg map[string]interface{}, key, def string) string {
	if s, ok := cfg[key].(string); ok && s != "" {
		return s
	}
	return def
}

func boolOr(cfg map[string]interface{}, key string, def bool) bool {
	if b, ok := cfg[key].(bool); ok {
		return b
	}
	return def
}

func field(m map[string]interface{}, key string) float64 {
	v, _ := toFloat(m[key])
	return v
}

func vectorOr(cfg map[string]interface{}, key string, def entity.Vector3) entity.Vector3 {
	switch v := cfg[key].(type) {
	case entity.Vector3:
		return v
	case *entity.Vector3:
		if v != nil {
			return *v
		}
	case map[string]interface{}:
		return entity.Vector3{X: field(v, "x"), Y: field(v, "y"), Z: field(v, "z")}
	}
	return def
}

func colorOr(cfg map[string]interface{}, key string, def entity.Color) entity.Color {
	switch v := cfg[key].(type) {
	case entity.Color:
		return v
	case *entity.Color:
		if v != nil {
			return *v
		}
	case map[string]interface{}:
		return entity.Color{R: field(v, "r"), G: field(v, "g"), B: field(v, "b")}
	}
	return def
}

// GridPosition клетка шахматной доски
type GridPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func gridOr(cfg map[string]interface{}, key string, def GridPosition) GridPosition {
	switch v := cfg[key].(type) {
	case GridPosition:
		return v
	case map[string]interface{}:
		return GridPosition{X: int(field(v, "x")), Y: int(field(v, "y"))}
	}
	return def
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
