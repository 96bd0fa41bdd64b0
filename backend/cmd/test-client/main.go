package main

import (
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Отправляет blueprint из файла в комнату и печатает ответ сервера.
// По умолчанию файл считается ответом оркестратора (мягкий разбор),
// с -strict он проходит полную проверку как готовый blueprint.
func main() {
	var (
		serverURL = flag.String("url", "ws://localhost:8080/ws", "URL WebSocket сервера")
		path      = flag.String("file", "-", "Файл с JSON (- для stdin)")
		strict    = flag.Bool("strict", false, "Отправить как blueprint со строгой проверкой")
		snapshot  = flag.Bool("snapshot", true, "Запросить снимок комнаты после применения")
	)
	flag.Parse()

	payload, err := readPayload(*path)
	if err != nil {
		log.Fatalf("Ошибка чтения %s: %v", *path, err)
	}

	u, err := url.Parse(*serverURL)
	if err != nil {
		log.Fatalf("Неверный URL: %v", err)
	}

	log.Printf("Подключение к %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Ошибка подключения: %v", err)
	}
	defer conn.Close()

	log.Printf("Успешно подключен")

	sendType := "response"
	if *strict {
		sendType = "blueprint"
	}
	if err := conn.WriteJSON(map[string]interface{}{"type": sendType, "payload": payload}); err != nil {
		log.Fatalf("Ошибка отправки: %v", err)
	}

	// Приветствие, начальный снимок, ответ и, по желанию, свежий снимок
	requested := false
	for done := false; !done; {
		conn.SetReadDeadline(time.Now().Add(10 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Printf("Ошибка чтения сообщения: %v", err)
			break
		}

		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Ошибка разбора сообщения: %v", err)
			continue
		}

		msgType, ok := msg["type"].(string)
		if !ok {
			log.Printf("Сообщение без типа: %v", msg)
			continue
		}

		switch msgType {
		case "info":
			if sessionID, ok := msg["sessionId"].(string); ok {
				log.Printf("SESSION: %s, ROOM: %v", sessionID, msg["roomId"])
			} else if message, ok := msg["message"].(string); ok {
				log.Printf("INFO: %s", message)
			}

		case "apply_result":
			printIssues(msg)
			if result, ok := msg["result"].(map[string]interface{}); ok {
				log.Printf("APPLY: success=%v new=%v updated=%v errors=%v",
					result["success"], result["newInstanceIds"], result["updatedInstanceIds"], result["errors"])
			}
			if message, ok := msg["message"].(string); ok && message != "" {
				log.Printf("MESSAGE: %s", message)
			}
			if !*snapshot {
				done = true
			} else if err := conn.WriteJSON(map[string]string{"type": "snapshot"}); err != nil {
				log.Printf("Ошибка запроса снимка: %v", err)
				done = true
			} else {
				requested = true
			}

		case "snapshot":
			if state, ok := msg["state"].(map[string]interface{}); ok {
				instances, _ := state["instances"].([]interface{})
				behaviors, _ := state["behaviors"].([]interface{})
				log.Printf("SNAPSHOT: %d экземпляров, %d поведений", len(instances), len(behaviors))
			}
			done = requested

		case "error":
			log.Printf("ERROR: %v", msg["message"])
			printIssues(msg)
			done = true

		default:
			log.Printf("Сообщение типа %s: %v", msgType, msg)
		}
	}

	log.Printf("Тест завершен")
}

// readPayload читает файл целиком. Невалидный JSON отправляется строкой:
// сервер разберет его как текстовый ответ.
func readPayload(path string) (json.RawMessage, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if json.Valid(data) {
		return data, nil
	}
	return json.Marshal(string(data))
}

func printIssues(msg map[string]interface{}) {
	issues, _ := msg["issues"].([]interface{})
	for _, issue := range issues {
		log.Printf("ISSUE: %v", issue)
	}
}
