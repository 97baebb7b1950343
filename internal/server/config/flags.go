package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/flagx"
)

// parseFlags overlays Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-m string   gRPC health bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      token validity, hours
//	-n int      user id generation attempts
//	-l int      GET /expenses row limit
//	-i int      health check interval, seconds
//	-w int      shutdown timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-x int      export link validity, minutes
//
// Only the flags above are picked out of args (see flagx.FilterArgs), so the
// -c/-config flag handled by parseJson does not trip the parser.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-m", "-d", "-s", "-t", "-n", "-l", "-i", "-w", "-u", "-p", "-b", "-g", "-e", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "m", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token validity (in hours)")
	fs.IntVar(&config.UserIDMaxAttempts, "n", config.UserIDMaxAttempts, "user id generation attempts")
	fs.IntVar(&config.ExpensesFetchLimit, "l", config.ExpensesFetchLimit, "max expenses returned per fetch")
	healthInterval := fs.Int("i", int(config.HealthCheckInterval.Seconds()), "health check interval (in seconds)")
	shutdownTimeout := fs.Int("w", int(config.ShutdownTimeout.Seconds()), "shutdown timeout (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 export bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	exportValidity := fs.Int("x", int(config.ExportURLValidity.Minutes()), "export link validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
	config.HealthCheckInterval = time.Duration(*healthInterval) * time.Second
	config.ShutdownTimeout = time.Duration(*shutdownTimeout) * time.Second
	config.ExportURLValidity = time.Duration(*exportValidity) * time.Minute
}
