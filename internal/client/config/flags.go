package config

import (
	"os"

	"github.com/spf13/pflag"
)

// Flag names shared by RegisterFlags and Load.
const (
	FlagConfig  = "config"
	FlagServer  = "server"
	FlagDataDir = "data-dir"
	FlagTimeout = "timeout"
	FlagVerbose = "verbose"
)

// RegisterFlags declares the configuration flags on fs, with the built-in
// defaults shown in help output.
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP(FlagConfig, "c", "", "JSON config file (or $"+EnvVar+")")
	fs.StringP(FlagServer, "a", d.ServerEndpointAddr, "base URL of the spendkeeper API")
	fs.StringP(FlagDataDir, "d", d.DataDir, "directory holding the per-user stores")
	fs.DurationP(FlagTimeout, "t", d.RequestTimeout, "per-request timeout")
	fs.BoolP(FlagVerbose, "v", d.Verbose, "debug logging on stderr")
}

func configPath(fs *pflag.FlagSet) (string, error) {
	path, err := fs.GetString(FlagConfig)
	if err != nil {
		return "", err
	}
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	return path, nil
}

// applyFlags copies only the flags the user actually passed, so a default
// never masks a value from the JSON file.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	if fs.Changed(FlagServer) {
		if cfg.ServerEndpointAddr, err = fs.GetString(FlagServer); err != nil {
			return err
		}
	}
	if fs.Changed(FlagDataDir) {
		if cfg.DataDir, err = fs.GetString(FlagDataDir); err != nil {
			return err
		}
	}
	if fs.Changed(FlagTimeout) {
		if cfg.RequestTimeout, err = fs.GetDuration(FlagTimeout); err != nil {
			return err
		}
	}
	if fs.Changed(FlagVerbose) {
		if cfg.Verbose, err = fs.GetBool(FlagVerbose); err != nil {
			return err
		}
	}
	return nil
}
