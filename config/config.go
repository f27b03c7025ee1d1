package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	GinMode        string        `env:"GIN_MODE" envDefault:"debug"`
	RoundInterval  time.Duration `env:"ROUND_INTERVAL" envDefault:"20s"`
	EmptyRoomGrace time.Duration `env:"EMPTY_ROOM_GRACE" envDefault:"30s"`
	MaxPlayers     int           `env:"MAX_PLAYERS" envDefault:"16"`
	TriviaURL      string        `env:"TRIVIA_URL" envDefault:"https://opentdb.com/api.php?amount=1&type=multiple"`
	TriviaTimeout  time.Duration `env:"TRIVIA_TIMEOUT" envDefault:"5s"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
