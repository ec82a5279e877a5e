package config

import "os"

// parseEnv overlays secret-bearing settings from the environment. Only
// values that should never live in a config file on disk are read here.
//
// Variables:
//
//	MEDIAVAULT_MASTER_KEY   vault master secret
//	MEDIAVAULT_S3_ACCESS    S3 access key
//	MEDIAVAULT_S3_SECRET    S3 secret key
//	MEDIAVAULT_DATABASE_DSN PostgreSQL DSN
func parseEnv(config *Config) {
	if v, ok := os.LookupEnv("MEDIAVAULT_MASTER_KEY"); ok {
		config.MasterKey = v
	}
	if v, ok := os.LookupEnv("MEDIAVAULT_S3_ACCESS"); ok {
		config.S3AccessKey = v
	}
	if v, ok := os.LookupEnv("MEDIAVAULT_S3_SECRET"); ok {
		config.S3SecretKey = v
	}
	if v, ok := os.LookupEnv("MEDIAVAULT_DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
}
