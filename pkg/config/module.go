package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DEFAULT []byte

type Arena struct {
	// The arena is a circle; knives leaving it are destroyed.
	CenterX float64 `yaml:"centerX" json:"centerX"`
	CenterY float64 `yaml:"centerY" json:"centerY"`
	Radius  float64 `yaml:"radius" json:"radius"`

	PlayerRadius float64 `yaml:"playerRadius" json:"playerRadius"`
	KnifeRadius  float64 `yaml:"knifeRadius" json:"knifeRadius"`

	// Vertical distance from the center to each spawn point.
	SpawnOffset float64 `yaml:"spawnOffset" json:"spawnOffset"`
}

type Config struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`

	CountdownSeconds int `yaml:"countdownSeconds" json:"countdownSeconds"`
	TickHz           int `yaml:"tickHz" json:"tickHz"`

	Arena Arena `yaml:"arena" json:"arena"`
}

func Default() Config {
	var config Config
	// The embedded default is checked by TestProcess; a failure here is a
	// build defect.
	if err := yaml.Unmarshal(DEFAULT, &config); err != nil {
		panic(err)
	}
	return config
}

func readFile(path string, config *Config) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config %s does not exist", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, config)
	case ".json":
		return json.Unmarshal(data, config)
	}

	return fmt.Errorf("unrecognized config extension: %s", path)
}

func fromEnv(config *Config) error {
	if host, ok := os.LookupEnv("KNIFEARENA_HOST"); ok {
		config.Host = host
	}

	if port, ok := os.LookupEnv("KNIFEARENA_PORT"); ok {
		value, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid KNIFEARENA_PORT: %s", port)
		}
		config.Port = value
	}

	return nil
}

func validate(config *Config) error {
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port: %d", config.Port)
	}

	if config.TickHz <= 0 {
		return fmt.Errorf("tickHz must be positive")
	}

	if config.CountdownSeconds <= 0 {
		return fmt.Errorf("countdownSeconds must be positive")
	}

	if config.Arena.Radius <= 0 {
		return fmt.Errorf("arena radius must be positive")
	}

	return nil
}

// Process builds the server configuration from the defaults, any provided
// config files (applied in order), and environment overrides.
func Process(paths []string) (Config, error) {
	config := Default()

	for _, path := range paths {
		if err := readFile(path, &config); err != nil {
			return config, err
		}
	}

	if err := fromEnv(&config); err != nil {
		return config, err
	}

	if err := validate(&config); err != nil {
		return config, err
	}

	return config, nil
}
