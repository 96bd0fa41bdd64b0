package entity

// GameEventType тип игрового события
type GameEventType string

const (
	EventClick     GameEventType = "click"
	EventKeypress  GameEventType = "keypress"
	EventCollision GameEventType = "collision"
	EventTurn      GameEventType = "turn"
	EventCustom    GameEventType = "custom"
)

// Состояния клавиши в data.state события keypress
const (
	KeyStateDown = "down"
	KeyStateUp   = "up"
)

// GameEvent эфемерное событие от слоя ввода/выбора
type GameEvent struct {
	Type       GameEventType          `json:"type" jsonschema:"enum=click,enum=keypress,enum=collision,enum=turn,enum=custom,required"`
	InstanceID string                 `json:"instanceId,omitempty"`
	Key        string                 `json:"key,omitempty"`
	Position   *Vector3               `json:"position,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// ClickEvent создает событие клика по экземпляру
func ClickEvent(instanceID string) GameEvent {
	return GameEvent{Type: EventClick, InstanceID: instanceID}
}

// ClickAtEvent создает событие клика по точке (например, по поверхности доски)
func ClickAtEvent(instanceID string, position Vector3) GameEvent {
	return GameEvent{Type: EventClick, InstanceID: instanceID, Position: &position}
}

// KeyEvent создает событие клавиши с явным состоянием down/up
func KeyEvent(key, state string) GameEvent {
	return GameEvent{Type: EventKeypress, Key: key, Data: map[string]interface{}{"state": state}}
}

// KeyState возвращает состояние клавиши; пустая строка означает нажатие без состояния
func (e GameEvent) KeyState() string {
	if s, ok := e.Data["state"].(string); ok {
		return s
	}
	return ""
}
