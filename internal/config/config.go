// internal/config/config.go
package config

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/oh-hell/judgment/internal/game"
)

// Config is the process configuration, populated from the environment.
// A .env file is loaded by godotenv/autoload in main.
type Config struct {
	Port     string `env:"JUDGMENT_PORT" envDefault:"8080"`
	LogLevel string `env:"JUDGMENT_LOG_LEVEL" envDefault:"info"`

	PredictPromptDelay     time.Duration `env:"JUDGMENT_DELAY_PREDICT_PROMPT" envDefault:"1200ms"`
	TurnNotifyDelay        time.Duration `env:"JUDGMENT_DELAY_TURN_NOTIFY" envDefault:"500ms"`
	TrickDisplayDelay      time.Duration `env:"JUDGMENT_DELAY_TRICK_DISPLAY" envDefault:"2s"`
	InterRoundDelay        time.Duration `env:"JUDGMENT_DELAY_INTER_ROUND" envDefault:"3s"`
	GameRestartDelay       time.Duration `env:"JUDGMENT_DELAY_GAME_RESTART" envDefault:"5s"`
	DisconnectRestartDelay time.Duration `env:"JUDGMENT_DELAY_DISCONNECT_RESTART" envDefault:"2s"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Delays converts the configured pauses into the engine's Delays block.
func (c Config) Delays() game.Delays {
	return game.Delays{
		PredictPrompt:     c.PredictPromptDelay,
		TurnNotify:        c.TurnNotifyDelay,
		TrickDisplay:      c.TrickDisplayDelay,
		InterRound:        c.InterRoundDelay,
		GameRestart:       c.GameRestartDelay,
		DisconnectRestart: c.DisconnectRestartDelay,
	}
}
