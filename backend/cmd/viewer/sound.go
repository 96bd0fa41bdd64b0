package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	hitTone    = 880.0
	missTone   = 220.0
)

// Sound короткие тоны-подтверждения на выбор объекта. Без звуковой карты молчит.
type Sound struct {
	enabled bool
}

// NewSound инициализирует динамик. Ошибка не фатальна: просмотрщик работает без звука.
func NewSound() (*Sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return &Sound{}, err
	}
	return &Sound{enabled: true}, nil
}

func (s *Sound) Hit()  { s.tone(hitTone, 50*time.Millisecond) }
func (s *Sound) Miss() { s.tone(missTone, 80*time.Millisecond) }

func (s *Sound) tone(freq float64, d time.Duration) {
	if s == nil || !s.enabled {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

func (s *Sound) Close() {
	if s != nil && s.enabled {
		speaker.Close()
		s.enabled = false
	}
}
