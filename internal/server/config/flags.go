package config

import (
	"flag"
	"os"
	"time"

	"github.com/mediavault/mediavault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-n string   content-delivery domain for public cover URLs
//	-j string   JWKS URL of the identity provider
//	-i string   expected token issuer
//	-w string   expected token audience
//	-t int      presigned download URL lifetime, minutes
//	-v int      presigned album cover URL lifetime, minutes
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers in minutes and then converted
//     to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-u", "-p", "-b", "-g", "-e", "-n", "-j", "-i", "-w", "-t", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.CDNDomain, "n", config.CDNDomain, "content-delivery domain")

	fs.StringVar(&config.JWKSURL, "j", config.JWKSURL, "JWKS URL")
	fs.StringVar(&config.TokenIssuer, "i", config.TokenIssuer, "token issuer")
	fs.StringVar(&config.TokenAudience, "w", config.TokenAudience, "token audience")

	presignTTL := fs.Int("t", int(config.PresignTTL.Minutes()), "presign_ttl (in minutes)")
	coverPresignTTL := fs.Int("v", int(config.CoverPresignTTL.Minutes()), "cover_presign_ttl (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.PresignTTL = time.Duration(*presignTTL) * time.Minute
	config.CoverPresignTTL = time.Duration(*coverPresignTTL) * time.Minute
}
