package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/spendkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Absent keys leave the
// current value untouched.
type JsonConfig struct {
	ServerEndpointAddr string          `json:"server_endpoint_addr"`
	DataDir            string          `json:"data_dir"`
	RequestTimeout     *timex.Duration `json:"request_timeout"`
	Verbose            *bool           `json:"verbose"`
}

func parseJson(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.Verbose != nil {
		cfg.Verbose = *jc.Verbose
	}
	return nil
}
