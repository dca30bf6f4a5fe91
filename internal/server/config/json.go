package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/mymee/internal/flagx"
	"github.com/dmitrijs2005/mymee/internal/timex"
)

// JsonConfig is the DTO read from the JSON config file. Durations use
// timex.Duration so both "30m" and integer nanoseconds are accepted.
// Only keys present in the file override the current configuration.
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	SessionTokenValidityDuration *timex.Duration `json:"session_token_validity_duration"`
	LogLevel                     *string         `json:"log_level"`
	DevMode                      *bool           `json:"dev_mode"`
	MigrateOnStart               *bool           `json:"migrate_on_start"`
	CORSOrigins                  []string        `json:"cors_origins"`

	OTPStore      *string         `json:"otp_store"`
	OTPRetention  *timex.Duration `json:"otp_retention"`
	RedisAddr     *string         `json:"redis_addr"`
	RedisPassword *string         `json:"redis_password"`
	RedisDB       *int            `json:"redis_db"`

	StorageBackend     *string `json:"storage_backend"`
	UploadDir          *string `json:"upload_dir"`
	PublicUploadPrefix *string `json:"public_upload_prefix"`
	S3RootUser         *string `json:"s3_root_user"`
	S3RootPassword     *string `json:"s3_root_password"`
	S3Bucket           *string `json:"s3_bucket"`
	S3Region           *string `json:"s3_region"`
	S3BaseEndpoint     *string `json:"s3_base_endpoint"`
	S3PublicBaseURL    *string `json:"s3_public_base_url"`

	SMTPHost         *string `json:"smtp_host"`
	SMTPPort         *int    `json:"smtp_port"`
	SMTPUser         *string `json:"smtp_user"`
	SMTPPassword     *string `json:"smtp_password"`
	SMTPFrom         *string `json:"smtp_from"`
	WhatsAppAPIURL   *string `json:"whatsapp_api_url"`
	WhatsAppAPIToken *string `json:"whatsapp_api_token"`
}

// parseJson loads configuration values from the file named by -c/-config.
// Without the flag nothing is loaded. An unreadable file or invalid JSON
// panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.ConfigFileFlag(os.Args[1:])

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

	c.apply(config)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.SessionTokenValidityDuration != nil {
		config.SessionTokenValidityDuration = c.SessionTokenValidityDuration.Duration
	}
	setString(&config.LogLevel, c.LogLevel)
	if c.DevMode != nil {
		config.DevMode = *c.DevMode
	}
	if c.MigrateOnStart != nil {
		config.MigrateOnStart = *c.MigrateOnStart
	}
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}

	setString(&config.OTPStore, c.OTPStore)
	if c.OTPRetention != nil {
		config.OTPRetention = c.OTPRetention.Duration
	}
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}

	setString(&config.StorageBackend, c.StorageBackend)
	setString(&config.UploadDir, c.UploadDir)
	setString(&config.PublicUploadPrefix, c.PublicUploadPrefix)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)

	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.WhatsAppAPIURL, c.WhatsAppAPIURL)
	setString(&config.WhatsAppAPIToken, c.WhatsAppAPIToken)
}
