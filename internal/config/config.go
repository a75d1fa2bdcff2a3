// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvConfigJSON names the environment variable carrying a whole-config
	// JSON override, applied on top of the TOML file.
	EnvConfigJSON = "SKYQUEUE_CONFIG_JSON"

	configName = "main"
	configType = "toml"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(path)

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to merge config override from env")
	}

	return c, nil
}

// DumpConfigJSON config as JSON String. Credentials are redacted so the
// output is safe for consoles and issue reports.
func DumpConfigJSON(c Config) (string, error) {
	redacted := c
	redacted.DB.Password = Redacted
	redacted.Bluesky.AppPassword = Redacted

	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")
	j.SetEscapeHTML(false)

	if err := j.Encode(redacted); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings for skyqueue.
// The database engine must be one gorm can open, and the Bluesky section
// must carry everything the publisher needs for the session handshake.
func validate(c Config) error {
	invalidErrMessage := "invalid config"

	switch c.DB.GormEngine {
	case "":
		return errors.Wrap(ErrDBEngineEmpty, invalidErrMessage)
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrap(ErrDBEngineUnknown, invalidErrMessage)
	}

	if c.DB.GormEngine == EngineSQLite && c.DB.Path == "" {
		return errors.Wrap(ErrDBPathEmpty, invalidErrMessage)
	}

	if err := validator.New().Struct(c.Bluesky); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	return nil
}
