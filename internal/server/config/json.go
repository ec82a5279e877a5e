package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mediavault/mediavault/internal/flagx"
	"github.com/mediavault/mediavault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "15m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration. Secrets (the master key) are deliberately
// absent: they arrive via environment or interactive prompt only.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	CDNDomain        string         `json:"cdn_domain"`
	JWKSURL          string         `json:"jwks_url"`
	TokenIssuer      string         `json:"token_issuer"`
	TokenAudience    string         `json:"token_audience"`
	JWKSCacheTTL     timex.Duration `json:"jwks_cache_ttl"`
	PresignTTL       timex.Duration `json:"presign_ttl"`
	CoverPresignTTL  timex.Duration `json:"cover_presign_ttl"`
	MaxUploadBytes   int64          `json:"max_upload_bytes"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; when
// neither is set, no JSON file is loaded. If the file cannot be read or
// contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.S3AccessKey = c.S3AccessKey
	config.S3SecretKey = c.S3SecretKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.CDNDomain = c.CDNDomain
	config.JWKSURL = c.JWKSURL
	config.TokenIssuer = c.TokenIssuer
	config.TokenAudience = c.TokenAudience
	config.JWKSCacheTTL = time.Duration(c.JWKSCacheTTL.Duration)
	config.PresignTTL = time.Duration(c.PresignTTL.Duration)
	config.CoverPresignTTL = time.Duration(c.CoverPresignTTL.Duration)
	config.MaxUploadBytes = c.MaxUploadBytes
}
