// Package internal holds the process configuration.
package internal

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH"`

	JWTSecret string `env:"JWT_SECRET,required=true"`
	JWTIssuer string `env:"JWT_ISSUER,default=dm-lab"`

	MaxPendingRequests    int  `env:"MAX_PENDING_REQUESTS,default=3"`
	AllowRepeatedRequests bool `env:"ALLOW_REPEATED_REQUESTS,default=false"`
	MaxContentLength      int  `env:"MAX_CONTENT_LENGTH,default=2000"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	WSWriteTimeout       time.Duration `env:"WS_WRITE_TIMEOUT,default=10s"`
	WSPongTimeout        time.Duration `env:"WS_PONG_TIMEOUT,default=60s"`
	WSPingInterval       time.Duration `env:"WS_PING_INTERVAL,default=30s"`

	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`

	EnableModeration bool   `env:"ENABLE_MODERATION,default=false"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`

	RedisURL     string `env:"REDIS_URL"`
	RelayChannel string `env:"RELAY_CHANNEL,default=dm-lab:events"`
}

// Load reads an optional .env file then the environment. Variables already set win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must hold at least 32 bytes")
	}
	if c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	}
	if c.WSPingInterval <= 0 || c.WSPongTimeout <= 0 {
		return fmt.Errorf("WS_PING_INTERVAL (%s) and WS_PONG_TIMEOUT (%s) must be positive", c.WSPingInterval, c.WSPongTimeout)
	}
	if c.WSPingInterval >= c.WSPongTimeout {
		return fmt.Errorf("WS_PING_INTERVAL (%s) must be shorter than WS_PONG_TIMEOUT (%s)", c.WSPingInterval, c.WSPongTimeout)
	}
	if c.EnableModeration {
		if _, err := CharacterRune(c.CharReplacement); err != nil {
			return err
		}
	}
	return nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
