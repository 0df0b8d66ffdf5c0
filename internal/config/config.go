package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the environment-backed configuration of the client process.
type Config struct {
	ServerURL  string `env:"SERVER_URL" envDefault:"http://localhost:8080"`
	SocketURL  string `env:"SOCKET_URL" envDefault:"ws://localhost:8080/ws"`
	GameID     int    `env:"GAME_ID"`
	PlayerID   int    `env:"PLAYER_ID"`
	PlayerName string `env:"PLAYER_NAME" envDefault:"invitado"`
	DebugAddr  string `env:"DEBUG_ADDR" envDefault:":8090"`
	Debug      bool   `env:"DEBUG" envDefault:"false"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
