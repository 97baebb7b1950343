package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/spendkeeper/internal/flagx"
	"github.com/dmitrijs2005/spendkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations are read
// with timex.Duration so both "168h" and integer nanoseconds work. Absent
// keys leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP      string          `json:"endpoint_addr_http"`
	EndpointAddrGRPC      string          `json:"endpoint_addr_grpc"`
	DatabaseDSN           string          `json:"database_dsn"`
	SecretKey             string          `json:"secret_key"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	UserIDMaxAttempts     int             `json:"user_id_max_attempts"`
	ExpensesFetchLimit    int             `json:"expenses_fetch_limit"`
	HealthCheckInterval   *timex.Duration `json:"health_check_interval"`
	ShutdownTimeout       *timex.Duration `json:"shutdown_timeout"`
	S3RootUser            string          `json:"s3_root_user"`
	S3RootPassword        string          `json:"s3_root_password"`
	S3Bucket              string          `json:"s3_bucket"`
	S3Region              string          `json:"s3_region"`
	S3BaseEndpoint        string          `json:"s3_base_endpoint"`
	ExportURLValidity     *timex.Duration `json:"export_url_validity"`
}

// parseJson overlays values from the file named by -c/-config (or
// $SPENDKEEPER_CONFIG). With no file configured it does nothing; an
// unreadable or malformed file panics.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	if c.UserIDMaxAttempts > 0 {
		config.UserIDMaxAttempts = c.UserIDMaxAttempts
	}
	if c.ExpensesFetchLimit > 0 {
		config.ExpensesFetchLimit = c.ExpensesFetchLimit
	}
	if c.TokenValidityDuration != nil {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.HealthCheckInterval != nil {
		config.HealthCheckInterval = c.HealthCheckInterval.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.ExportURLValidity != nil {
		config.ExportURLValidity = c.ExportURLValidity.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
