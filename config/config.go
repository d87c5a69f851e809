package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server configuration, loaded from the environment
// (godotenv feeds .env files in before parsing).
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	Prod          bool   `env:"PROD" envDefault:"false"`
	ClientBaseURL string `env:"CLIENT_BASE_URL" envDefault:"http://localhost:3000"`

	// Idle-room expiry policy: a room whose whole roster is disconnected
	// for longer than IdleRoomTTL is abandoned; terminal rooms idle past
	// the TTL are deleted.
	IdleRoomTTL     time.Duration `env:"IDLE_ROOM_TTL" envDefault:"10m"`
	JanitorInterval time.Duration `env:"JANITOR_INTERVAL" envDefault:"1m"`

	// TurnTimeLimit overrides every game type's own turn limit when set.
	TurnTimeLimit time.Duration `env:"TURN_TIME_LIMIT" envDefault:"0"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
