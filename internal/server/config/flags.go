package config

import (
	"flag"
	"os"
	"time"

	"github.com/DAC098/TJ2-sub001/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-t int      cookie session lifetime, minutes
//	-r int      handshake token session lifetime, minutes
//	-w int      per-request timeout, seconds
//	-f string   data directory for attachment content
//	-k string   server private key file
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-w", "-f", "-k", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	sessionDuration := fs.Int("t", int(config.SessionDuration.Minutes()), "session_duration (in minutes)")
	apiSessionDuration := fs.Int("r", int(config.ApiSessionDuration.Minutes()), "api_session_duration (in minutes)")
	requestTimeout := fs.Int("w", int(config.RequestTimeout.Seconds()), "request_timeout (in seconds)")

	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory")
	fs.StringVar(&config.PrivateKeyFile, "k", config.PrivateKeyFile, "server private key file")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionDuration = time.Duration(*sessionDuration) * time.Minute
	config.ApiSessionDuration = time.Duration(*apiSessionDuration) * time.Minute
	config.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
