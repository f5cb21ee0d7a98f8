package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dverbeek84/oaibridge/internal/flagx"
	"github.com/dverbeek84/oaibridge/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30s" and integer nanoseconds, and an RFC 3339
// string for the default watermark. After unmarshalling, non-zero fields
// are copied onto the runtime Config, so a partial file overlays only what
// it mentions.
type JsonConfig struct {
	OAIBaseURL       string         `json:"oai_base_url"`
	MetadataPrefix   string         `json:"metadata_prefix"`
	IdentifierPrefix string         `json:"identifier_prefix"`
	Contact          string         `json:"contact"`
	HTTPTimeout      timex.Duration `json:"http_timeout"`
	FetchRetries     int            `json:"fetch_retries"`
	DatabaseDSN      string         `json:"database_dsn"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	Submitter        string         `json:"submitter"`
	RightsHolder     string         `json:"rights_holder"`
	AuthoritativeMN  string         `json:"authoritative_mn"`
	OriginMN         string         `json:"origin_mn"`
	FormatID         string         `json:"format_id"`
	TrackingLogPath  string         `json:"tracking_log_path"`
	AuthToken        string         `json:"auth_token"`
	DefaultWatermark string         `json:"default_watermark"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is set, no JSON file is loaded. An unreadable or invalid file
// panics, matching the flag-parsing failure mode.
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

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.OAIBaseURL, c.OAIBaseURL)
	setString(&config.MetadataPrefix, c.MetadataPrefix)
	setString(&config.IdentifierPrefix, c.IdentifierPrefix)
	setString(&config.Contact, c.Contact)
	if c.HTTPTimeout.Duration > 0 {
		config.HTTPTimeout = c.HTTPTimeout.Duration
	}
	if c.FetchRetries > 0 {
		config.FetchRetries = c.FetchRetries
	}
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.Submitter, c.Submitter)
	setString(&config.RightsHolder, c.RightsHolder)
	setString(&config.AuthoritativeMN, c.AuthoritativeMN)
	setString(&config.OriginMN, c.OriginMN)
	setString(&config.FormatID, c.FormatID)
	setString(&config.TrackingLogPath, c.TrackingLogPath)
	setString(&config.AuthToken, c.AuthToken)

	if c.DefaultWatermark != "" {
		ts, err := time.Parse(time.RFC3339, c.DefaultWatermark)
		if err != nil {
			panic(err)
		}
		config.DefaultWatermark = ts.UTC()
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
