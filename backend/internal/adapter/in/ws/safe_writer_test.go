package ws

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// echoServer принимает соединение и пересылает прочитанные сообщения в канал
func echoServer(t *testing.T, received chan<- string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(msg)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	return conn
}

func TestSafeWriter_WriteJSON_Concurrency(t *testing.T) {
	received := make(chan string, 10)
	conn := dial(t, echoServer(t, received))
	defer conn.Close()

	writer := NewSafeWriter(conn)

	// 10 горутин, каждая отправляет свое сообщение
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			time.Sleep(time.Duration(id) * time.Millisecond)

			msg := struct {
				ID  int    `json:"id"`
				Msg string `json:"msg"`
			}{ID: id, Msg: "Test message"}

			if err := writer.WriteJSON(msg); err != nil {
				t.Errorf("Error writing message: %v", err)
			}
		}(i)
	}
	wg.Wait()

	// Все сообщения должны дойти целыми и быть разными
	uniq := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		select {
		case msg := <-received:
			uniq[msg] = struct{}{}
		case <-time.After(2 * time.Second):
			t.Fatalf("Timed out after %d messages", i)
		}
	}
	if len(uniq) != 10 {
		t.Errorf("Expected 10 unique messages, got %d", len(uniq))
	}
}

func TestSafeWriter_SanitizesNaN(t *testing.T) {
	received := make(chan string, 1)
	conn := dial(t, echoServer(t, received))
	defer conn.Close()

	writer := NewSafeWriter(conn)
	err := writer.WriteJSON(map[string]interface{}{
		"x":      math.NaN(),
		"nested": map[string]interface{}{"y": math.Inf(1)},
		"list":   []interface{}{1.5, math.NaN()},
	})
	if err != nil {
		t.Fatalf("NaN values should be sanitized, got %v", err)
	}

	select {
	case msg := <-received:
		if msg != `{"list":[1.5,0],"nested":{"y":0},"x":0}` {
			t.Errorf("Unexpected payload %s", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for message")
	}

	// Структуры не переписываются, ошибка возвращается как есть
	if err := writer.WriteJSON(struct{ V float64 }{math.NaN()}); err == nil {
		t.Error("Expected error for NaN inside a struct")
	}
}

func TestSafeWriter_Close(t *testing.T) {
	conn := dial(t, echoServer(t, make(chan string, 1)))

	writer := NewSafeWriter(conn)
	if err := writer.Close(); err != nil {
		t.Errorf("Error closing connection: %v", err)
	}

	// Запись в закрытое соединение должна вернуть ошибку
	if err := writer.WriteJSON("test"); err == nil {
		t.Error("Expected error when writing to closed connection, got nil")
	}
}
