// Package config loads runtime configuration for the spendkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by --config/-c or $SPENDKEEPER_CLIENT_CONFIG.
//  3. Command-line flags, applied only when given explicitly.
//
// Supported flags
//
//	-c, --config string     JSON config file
//	-a, --server string     base URL of the spendkeeper API
//	-d, --data-dir string   directory holding the per-user stores
//	-t, --timeout duration  per-request timeout
//	-v, --verbose           debug logging on stderr
//
// # JSON schema
//
// Durations go through timex.Duration, so "10s" and integer nanoseconds both
// work. Absent keys keep the default:
//
//	{
//	  "server_endpoint_addr": "http://127.0.0.1:8080",
//	  "data_dir": "~/.spendkeeper",
//	  "request_timeout": "10s"
//	}
package config
