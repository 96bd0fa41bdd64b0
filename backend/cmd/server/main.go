package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomie/backend/internal/adapter/in/ws"
	"roomie/backend/internal/core/domain/service"
	"roomie/backend/internal/fixtures"
	"roomie/backend/internal/game"
	"roomie/backend/internal/telemetry"
	"roomie/backend/internal/world"
)

func main() {
	hostConfig := world.GetHostConfig()

	var (
		addr      = flag.String("addr", ":8080", "Адрес HTTP сервера")
		roomID    = flag.String("room", "", "ID комнаты (пусто: сгенерировать)")
		owner     = flag.String("owner", "", "ID владельца комнаты")
		fixture   = flag.String("fixture", "", "Встроенный blueprint для загрузки при старте (chessboard, lamp, vehicle)")
		tps       = flag.Int("tps", int(time.Second/hostConfig.TickRate), "Частота тиков в секунду")
		staticDir = flag.String("static", "./static", "Каталог со статикой клиента")
	)
	flag.Parse()

	logger := log.Default()

	room := service.NewRoomService(service.RoomOptions{
		RoomID:      *roomID,
		OwnerUserID: *owner,
		Loader:      world.NewLibraryLoader(),
		Telemetry:   telemetry.GlobalTelemetry,
		Logger:      logger,
	})

	if *fixture != "" {
		bp, err := fixtures.ByName(*fixture)
		if err != nil {
			log.Fatalf("[Server] %v", err)
		}
		result := room.ApplyBlueprint(context.Background(), bp)
		log.Printf("[Server] Загружен blueprint %s: создано %d, ошибок %d", *fixture, len(result.NewInstanceIDs), len(result.Errors))
	}

	adapter := ws.NewWSAdapter(room, logger)

	// GameTicker ведет поведения, рассылает снимки и печатает метрики
	ticker := game.NewGameTicker(*tps, logger)
	ticker.RegisterSystem(game.NewBehaviorUpdateSystem(room))
	ticker.RegisterSystem(game.NewSnapshotSyncSystem(room, adapter, hostConfig.SnapshotInterval, logger))
	ticker.RegisterSystem(game.NewGameMetricsSystem(ticker, telemetry.GlobalTelemetry, logger))

	if err := ticker.Start(context.Background()); err != nil {
		log.Fatalf("[Server] Не удалось запустить GameTicker: %v", err)
	}
	defer ticker.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", adapter.HandleWS)
	mux.HandleFunc("/telemetry", func(w http.ResponseWriter, r *http.Request) {
		data, err := telemetry.GlobalTelemetry.GetTelemetryJSON()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(data))
	})
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"ticker":  ticker.Stats(),
			"clients": adapter.ClientCount(),
			"room":    room.RoomID(),
		})
	})
	mux.Handle("/", http.FileServer(http.Dir(*staticDir)))

	server := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("[Server] Комната %s слушает %s", room.RoomID(), *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Server] Ошибка HTTP сервера: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Printf("[Server] Получен сигнал завершения")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("[Server] Ошибка при остановке: %v", err)
	}
	telemetry.GlobalTelemetry.PrintSummary()
}
