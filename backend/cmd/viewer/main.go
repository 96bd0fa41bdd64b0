package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"roomie/backend/internal/core/domain/service"
	"roomie/backend/internal/fixtures"
	"roomie/backend/internal/telemetry"
	"roomie/backend/internal/world"
)

func main() {
	var (
		fixture = flag.String("fixture", fixtures.Chessboard, fmt.Sprintf("Встроенный blueprint %v", fixtures.Names()))
		logPath = flag.String("log", "", "Файл для логов комнаты (пусто: не писать)")
		fps     = flag.Int("fps", 60, "Частота кадров")
	)
	flag.Parse()

	// Экран занят tcell, поэтому логи идут в файл или никуда
	logger := log.New(io.Discard, "", 0)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = log.New(f, "", log.LstdFlags)
	}

	bp, err := fixtures.ByName(*fixture)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	room := service.NewRoomService(service.RoomOptions{
		Loader:    world.NewLibraryLoader(),
		Telemetry: telemetry.NewTelemetryManager(),
		Logger:    logger,
	})

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer screen.Fini()
	screen.EnableMouse()

	sound, err := NewSound()
	if err != nil {
		// Не фатально, просмотрщик работает без звука
		logger.Printf("[Viewer] Звук недоступен: %v", err)
	}
	defer sound.Close()

	width, height := screen.Size()
	viewer := NewViewer(room, width, height, sound)
	result := room.ApplyBlueprint(context.Background(), bp)
	logger.Printf("[Viewer] Загружен blueprint %s: создано %d, ошибок %d", *fixture, len(result.NewInstanceIDs), len(result.Errors))

	run(screen, viewer, time.Second/time.Duration(max(*fps, 1)))
}

func run(screen tcell.Screen, viewer *Viewer, frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	for {
		select {
		case ev := <-events:
			if !viewer.HandleEvent(ev, time.Now()) {
				return
			}
		case now := <-ticker.C:
			viewer.Tick(now)
			viewer.Draw(screen)
		}
	}
}
