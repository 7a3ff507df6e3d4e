package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/DAC098/TJ2-sub001/internal/flagx"
	"github.com/DAC098/TJ2-sub001/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddr       string         `json:"endpoint_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	SecretKey          string         `json:"secret_key"`
	SessionDuration    timex.Duration `json:"session_duration"`
	ApiSessionDuration timex.Duration `json:"api_session_duration"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	DataDir            string         `json:"data_dir"`
	PrivateKeyFile     string         `json:"private_key_file"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. When
// neither is set, no JSON file is loaded and the Config is left untouched.
// If the file cannot be read or contains invalid JSON, the function panics.
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

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.SessionDuration = time.Duration(c.SessionDuration.Duration)
	config.ApiSessionDuration = time.Duration(c.ApiSessionDuration.Duration)
	config.RequestTimeout = time.Duration(c.RequestTimeout.Duration)
	config.DataDir = c.DataDir
	config.PrivateKeyFile = c.PrivateKeyFile
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
