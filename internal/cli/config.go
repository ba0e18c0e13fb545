package cli

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tipresias/tipresias-sub001/driver"
)

// FileConfig is the YAML shape of a connection config file.
//
// Either url carries a full DSN (scheme://secret@host:port), or the
// individual fields spell the parts out. The DSN wins when both are
// present.
type FileConfig struct {
	URL            string `yaml:"url"`
	Scheme         string `yaml:"scheme"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Secret         string `yaml:"secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LoadFileConfig reads and parses a YAML connection config.
func LoadFileConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// resolveConnection picks the connection parameters for a command. A
// --url flag beats the config file; the config file's url field beats
// its individual fields.
func resolveConnection(opts *RootOptions, url string) (driver.Config, error) {
	if url != "" {
		return driver.ParseDSN(url)
	}

	if opts.Config == "" {
		return driver.Config{}, fmt.Errorf("no connection target: pass --url or --config")
	}

	fileCfg, err := LoadFileConfig(opts.Config)
	if err != nil {
		return driver.Config{}, err
	}

	if fileCfg.URL != "" {
		cfg, err := driver.ParseDSN(fileCfg.URL)
		if err != nil {
			return driver.Config{}, err
		}
		if fileCfg.TimeoutSeconds > 0 {
			cfg.Timeout = time.Duration(fileCfg.TimeoutSeconds) * time.Second
		}
		return cfg, nil
	}

	if fileCfg.Secret == "" {
		return driver.Config{}, fmt.Errorf("config file %s has no secret", opts.Config)
	}
	if fileCfg.Host == "" {
		return driver.Config{}, fmt.Errorf("config file %s has no host", opts.Config)
	}

	cfg := driver.Config{
		Scheme: fileCfg.Scheme,
		Host:   fileCfg.Host,
		Port:   fileCfg.Port,
		Secret: fileCfg.Secret,
	}
	if fileCfg.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(fileCfg.TimeoutSeconds) * time.Second
	}
	return cfg, nil
}
