package ws

import (
	"encoding/json"
	"math"
	"sync"

	"github.com/gorilla/websocket"
)

// SafeWriter обеспечивает потокобезопасную запись в WebSocket
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

// NewSafeWriter создает новый экземпляр SafeWriter
func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{
		conn: conn,
	}
}

// WriteJSON потокобезопасно отправляет JSON данные через WebSocket
func (w *SafeWriter) WriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		// Ошибка сериализации из-за NaN: для map заменяем NaN на 0 и пробуем еще раз
		mapData, ok := v.(map[string]interface{})
		if !ok {
			return err
		}
		sanitizeMapValues(mapData)
		if data, err = json.Marshal(mapData); err != nil {
			return err
		}
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// sanitizeMapValues рекурсивно обходит map и заменяет NaN значения на 0
func sanitizeMapValues(data map[string]interface{}) {
	for k, v := range data {
		data[k] = sanitizeValue(v)
	}
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0.0
		}
	case map[string]interface{}:
		sanitizeMapValues(val)
	case []interface{}:
		for i, item := range val {
			val[i] = sanitizeValue(item)
		}
	}
	return v
}

// Close закрывает соединение WebSocket
func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}
