package validation

import (
	"fmt"
	"strconv"
	"strings"
)

// Допустимые значения перечислений протокола
var (
	shapeKinds     = []string{"primitive", "mesh", "external_asset", "parametric"}
	primitiveTypes = []string{"box", "sphere", "cylinder", "cone", "plane", "torus"}
	colliderTypes  = []string{"box", "sphere", "cylinder", "mesh", "none"}
	behaviorTypes  = []string{"light_toggle", "vehicle", "chess_board", "chess_piece", "physics", "animation", "custom"}
)

// checker накапливает замечания в виде "путь: сообщение"
type checker struct {
	issues []string
}

func (c *checker) addf(path, format string, args ...interface{}) {
	if path == "" {
		path = "root"
	}
	c.issues = append(c.issues, path+": "+fmt.Sprintf(format, args...))
}

func join(path string, key interface{}) string {
	var k string
	switch v := key.(type) {
	case int:
		k = strconv.Itoa(v)
	default:
		k = fmt.Sprint(v)
	}
	if path == "" {
		return k
	}
	return path + "." + k
}

func typeName(v interface{}) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// field возвращает значение ключа; отсутствие обязательного ключа записывается
func (c *checker) field(obj map[string]interface{}, path, key string, required bool) (interface{}, bool) {
	v, ok := obj[key]
	if !ok {
		if required {
			c.addf(join(path, key), "Required")
		}
		return nil, false
	}
	return v, true
}

func (c *checker) object(v interface{}, path string) (map[string]interface{}, bool) {
	obj, ok := v.(map[string]interface{})
	if !ok {
		c.addf(path, "Expected object, received %s", typeName(v))
	}
	return obj, ok
}

func (c *checker) array(v interface{}, path string) ([]interface{}, bool) {
	arr, ok := v.([]interface{})
	if !ok {
		c.addf(path, "Expected array, received %s", typeName(v))
	}
	return arr, ok
}

func (c *checker) str(obj map[string]interface{}, path, key string, required bool) {
	v, ok := c.field(obj, path, key, required)
	if !ok {
		return
	}
	if _, isStr := v.(string); !isStr {
		c.addf(join(path, key), "Expected string, received %s", typeName(v))
	}
}

func (c *checker) boolean(obj map[string]interface{}, path, key string) {
	v, ok := c.field(obj, path, key, false)
	if !ok {
		return
	}
	if _, isBool := v.(bool); !isBool {
		c.addf(join(path, key), "Expected boolean, received %s", typeName(v))
	}
}

// number проверяет число и, если заданы границы, диапазон [0, 1]
func (c *checker) number(obj map[string]interface{}, path, key string, required, unit bool) {
	v, ok := c.field(obj, path, key, required)
	if !ok {
		return
	}
	n, isNum := v.(float64)
	if !isNum {
		c.addf(join(path, key), "Expected number, received %s", typeName(v))
		return
	}
	if unit {
		c.unitRange(n, join(path, key))
	}
}

func (c *checker) unitRange(n float64, path string) {
	if n < 0 {
		c.addf(path, "Number must be greater than or equal to 0")
	}
	if n > 1 {
		c.addf(path, "Number must be less than or equal to 1")
	}
}

func (c *checker) enum(obj map[string]interface{}, path, key string, required bool, allowed []string) {
	v, ok := c.field(obj, path, key, required)
	if !ok {
		return
	}
	s, isStr := v.(string)
	if !isStr {
		c.addf(join(path, key), "Expected string, received %s", typeName(v))
		return
	}
	c.enumValue(s, join(path, key), allowed)
}

func (c *checker) enumValue(s, path string, allowed []string) {
	for _, a := range allowed {
		if s == a {
			return
		}
	}
	c.addf(path, "Invalid enum value. Expected '%s', received '%s'", strings.Join(allowed, "' | '"), s)
}

func (c *checker) vector(obj map[string]interface{}, path, key string, required bool) {
	v, ok := c.field(obj, path, key, required)
	if !ok {
		return
	}
	vec, ok := c.object(v, join(path, key))
	if !ok {
		return
	}
	for _, axis := range []string{"x", "y", "z"} {
		c.number(vec, join(path, key), axis, true, false)
	}
}

func (c *checker) color(obj map[string]interface{}, path, key string) {
	v, ok := c.field(obj, path, key, false)
	if !ok {
		return
	}
	col, ok := c.object(v, join(path, key))
	if !ok {
		return
	}
	for _, ch := range []string{"r", "g", "b"} {
		c.number(col, join(path, key), ch, true, true)
	}
}

// rotation принимает кватернион (x, y, z, w) или углы Эйлера (x, y, z)
func (c *checker) rotation(obj map[string]interface{}, path string) {
	v, ok := c.field(obj, path, "rotation", true)
	if !ok {
		return
	}
	rot, ok := c.object(v, join(path, "rotation"))
	if !ok {
		return
	}
	keys := []string{"x", "y", "z"}
	if _, hasW := rot["w"]; hasW {
		keys = append(keys, "w")
	}
	for _, k := range keys {
		c.number(rot, join(path, "rotation"), k, true, false)
	}
}

func (c *checker) stringArray(obj map[string]interface{}, path, key string, required bool) {
	v, ok := c.field(obj, path, key, required)
	if !ok {
		return
	}
	arr, ok := c.array(v, join(path, key))
	if !ok {
		return
	}
	for i, item := range arr {
		if _, isStr := item.(string); !isStr {
			c.addf(join(join(path, key), i), "Expected string, received %s", typeName(item))
		}
	}
}

func (c *checker) record(obj map[string]interface{}, path, key string) {
	v, ok := c.field(obj, path, key, false)
	if !ok {
		return
	}
	c.object(v, join(path, key))
}

func (c *checker) shape(v interface{}, path string) {
	obj, ok := c.object(v, path)
	if !ok {
		return
	}
	c.str(obj, path, "shapeId", true)
	c.enum(obj, path, "kind", true, shapeKinds)
	c.enum(obj, path, "primitiveType", false, primitiveTypes)
	c.str(obj, path, "sourceUrl", false)

	if d, ok := c.field(obj, path, "dimensions", false); ok {
		if dims, ok := c.object(d, join(path, "dimensions")); ok {
			for _, k := range []string{"width", "height", "depth", "radius", "radiusTube", "segments"} {
				c.number(dims, join(path, "dimensions"), k, false, false)
			}
		}
	}

	if m, ok := c.field(obj, path, "material", false); ok {
		mp := join(path, "material")
		if mat, ok := c.object(m, mp); ok {
			c.color(mat, mp, "color")
			c.color(mat, mp, "emissive")
			c.number(mat, mp, "metalness", false, true)
			c.number(mat, mp, "roughness", false, true)
			c.number(mat, mp, "emissiveIntensity", false, false)
			c.boolean(mat, mp, "transparent")
			c.number(mat, mp, "opacity", false, true)
		}
	}

	if p, ok := c.field(obj, path, "physics", false); ok {
		pp := join(path, "physics")
		if phys, ok := c.object(p, pp); ok {
			for _, k := range []string{"mass", "friction", "restitution"} {
				c.number(phys, pp, k, false, false)
			}
			c.enum(phys, pp, "collider", false, colliderTypes)
		}
	}
}

func (c *checker) instance(v interface{}, path string) {
	obj, ok := c.object(v, path)
	if !ok {
		return
	}
	c.str(obj, path, "instanceId", true)
	c.str(obj, path, "shapeId", true)
	c.str(obj, path, "name", false)
	c.vector(obj, path, "position", true)
	c.rotation(obj, path)
	c.vector(obj, path, "scale", true)
	c.boolean(obj, path, "visible")
	c.boolean(obj, path, "castShadow")
	c.boolean(obj, path, "receiveShadow")
	c.stringArray(obj, path, "tags", false)
	c.record(obj, path, "metadata")
}

func (c *checker) behavior(v interface{}, path string) {
	obj, ok := c.object(v, path)
	if !ok {
		return
	}
	c.str(obj, path, "behaviorId", true)
	c.enum(obj, path, "type", true, behaviorTypes)
	c.stringArray(obj, path, "targetInstanceIds", true)
	c.record(obj, path, "config")
	c.boolean(obj, path, "enabled")
	c.number(obj, path, "priority", false, false)
}

// each проверяет обязательный массив элементов
func (c *checker) each(obj map[string]interface{}, path, key string, item func(v interface{}, path string)) {
	v, ok := c.field(obj, path, key, true)
	if !ok {
		return
	}
	arr, ok := c.array(v, join(path, key))
	if !ok {
		return
	}
	for i, elem := range arr {
		item(elem, join(join(path, key), i))
	}
}

// ValidateSchema проверяет разобранный JSON (результат json.Unmarshal в interface{})
// на соответствие формату BlueprintResponse. Возвращает замечания вида "путь: сообщение".
func ValidateSchema(data interface{}) []string {
	c := &checker{}

	root, ok := c.object(data, "")
	if !ok {
		return c.issues
	}

	if g, ok := c.field(root, "", "geometry", true); ok {
		if geometry, ok := c.object(g, "geometry"); ok {
			c.each(geometry, "geometry", "shapes", c.shape)
			c.each(geometry, "geometry", "instances", c.instance)
		}
	}
	if b, ok := c.field(root, "", "behavior", true); ok {
		if behavior, ok := c.object(b, "behavior"); ok {
			c.each(behavior, "behavior", "behaviors", c.behavior)
		}
	}
	c.str(root, "", "message", true)

	return c.issues
}
