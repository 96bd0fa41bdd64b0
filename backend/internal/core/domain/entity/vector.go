package entity

import "github.com/go-gl/mathgl/mgl64"

// Vector3 представляет трехмерный вектор
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Vec3 переводит вектор в представление mathgl
func (v Vector3) Vec3() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// Vector3From строит Vector3 из вектора mathgl
func Vector3From(v mgl64.Vec3) Vector3 {
	return Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// Quaternion представляет кватернион вращения
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// QuaternionFrom строит Quaternion из кватерниона mathgl
func QuaternionFrom(q mgl64.Quat) Quaternion {
	return Quaternion{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W}
}

// Rotation хранит вращение экземпляра в одной из двух форм:
// кватернион (поле w присутствует) или углы Эйлера XYZ (w отсутствует).
// Производители blueprint'ов присылают обе формы вперемешку.
type Rotation struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	Z float64  `json:"z"`
	W *float64 `json:"w,omitempty" jsonschema:"description=Present for quaternion rotations; absent for XYZ Euler angles in radians"`
}

// EulerRotation создает вращение в углах Эйлера
func EulerRotation(x, y, z float64) Rotation {
	return Rotation{X: x, Y: y, Z: z}
}

// QuaternionRotation создает вращение в виде кватерниона
func QuaternionRotation(x, y, z, w float64) Rotation {
	return Rotation{X: x, Y: y, Z: z, W: &w}
}

// IsQuaternion сообщает, задано ли вращение кватернионом
func (r Rotation) IsQuaternion() bool {
	return r.W != nil
}

// Quat возвращает кватернион как есть, без нормализации.
// Для углов Эйлера результат не определен, используйте Euler.
func (r Rotation) Quat() mgl64.Quat {
	w := 0.0
	if r.W != nil {
		w = *r.W
	}
	return mgl64.Quat{W: w, V: mgl64.Vec3{r.X, r.Y, r.Z}}
}

// Euler возвращает углы Эйлера (x, y, z) в радианах
func (r Rotation) Euler() mgl64.Vec3 {
	return mgl64.Vec3{r.X, r.Y, r.Z}
}

// Color цвет в диапазоне 0..1 по каждому каналу
type Color struct {
	R float64 `json:"r" jsonschema:"minimum=0,maximum=1"`
	G float64 `json:"g" jsonschema:"minimum=0,maximum=1"`
	B float64 `json:"b" jsonschema:"minimum=0,maximum=1"`
}
