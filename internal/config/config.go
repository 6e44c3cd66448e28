package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/rocketscienceinc/connectz-backend/internal/engine"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	Redis      Redis  `yaml:"redis"`
	Engine     Engine `yaml:"engine"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Engine struct {
	BoardSize        int           `yaml:"board-size" env-default:"10"`
	WinLength        int           `yaml:"win-length" env-default:"5"`
	MaxSearchDepth   int           `yaml:"max-search-depth" env-default:"3"`
	SearchTimeBudget time.Duration `yaml:"search-time-budget" env-default:"0s"`
	CandidateRadius  int           `yaml:"candidate-radius" env-default:"2"`
	Parallel         bool          `yaml:"parallel" env-default:"false"`
	QuickWinExit     bool          `yaml:"quick-win-exit"`
}

// Load reads the yaml file at path; environment variables override it.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// ToEngineConfig validates the engine section.
func (that *Engine) ToEngineConfig() (engine.Config, error) {
	config := engine.Config{
		BoardSize:        that.BoardSize,
		WinLength:        that.WinLength,
		MaxSearchDepth:   that.MaxSearchDepth,
		SearchTimeBudget: that.SearchTimeBudget,
		CandidateRadius:  that.CandidateRadius,
		Parallel:         that.Parallel,
		QuickWinExit:     that.QuickWinExit,
	}

	if err := config.Validate(); err != nil {
		return engine.Config{}, fmt.Errorf("invalid engine section: %w", err)
	}

	return config, nil
}
