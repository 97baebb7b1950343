package config

import (
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/filex"
	"github.com/spf13/pflag"
)

// EnvVar names a config file when --config is not given.
const EnvVar = "SPENDKEEPER_CLIENT_CONFIG"

// Config holds runtime settings for the CLI.
type Config struct {
	ServerEndpointAddr string
	DataDir            string
	RequestTimeout     time.Duration
	Verbose            bool
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DataDir = "~/.spendkeeper"
	c.RequestTimeout = 10 * time.Second
	c.Verbose = false
}

// Load builds a Config from defaults, the JSON file and the flags of fs that
// were set explicitly. fs must carry the flags from RegisterFlags.
func Load(fs *pflag.FlagSet) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, err := configPath(fs)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := parseJson(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}

	dir, err := filex.ExpandHome(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dir
	return cfg, nil
}
