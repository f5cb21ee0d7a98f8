package config

import (
	"flag"
	"os"
	"time"

	"github.com/dverbeek84/oaibridge/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
// Provenance (sysmeta) fields are JSON-file-only; flags cover what an
// operator changes between environments.
//
// Supported flags (short forms):
//
//	-o string   OAI-PMH provider base URL
//	-m string   metadata prefix requested from the provider
//	-i string   wire identifier prefix stripped to native ids
//	-d string   PostgreSQL DSN
//	-t int      HTTP timeout, seconds
//	-r int      page fetch retry attempts
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-l string   tracking log path
//	-k string   member-node auth token
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-o", "-m", "-i", "-d", "-t", "-r", "-u", "-p", "-b", "-g", "-e", "-l", "-k"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.OAIBaseURL, "o", config.OAIBaseURL, "OAI-PMH provider base URL")
	fs.StringVar(&config.MetadataPrefix, "m", config.MetadataPrefix, "metadata prefix")
	fs.StringVar(&config.IdentifierPrefix, "i", config.IdentifierPrefix, "wire identifier prefix")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	httpTimeout := fs.Int("t", int(config.HTTPTimeout.Seconds()), "http timeout (in seconds)")
	fs.IntVar(&config.FetchRetries, "r", config.FetchRetries, "page fetch retry attempts")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.TrackingLogPath, "l", config.TrackingLogPath, "tracking log path")
	fs.StringVar(&config.AuthToken, "k", config.AuthToken, "member-node auth token")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.HTTPTimeout = time.Duration(*httpTimeout) * time.Second
}
