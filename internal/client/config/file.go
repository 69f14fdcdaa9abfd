package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, e.g.
// EQUITYGATE_CLI_SERVER_ENDPOINT_ADDR.
const EnvPrefix = "EQUITYGATE_CLI"

// parseFile overlays cfg with the file at path (json, yaml or toml) and the
// environment. Unset keys keep their current values.
func parseFile(cfg *Config, path string) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	if v.IsSet("server_endpoint_addr") {
		cfg.ServerEndpointAddr = v.GetString("server_endpoint_addr")
	}
	if v.IsSet("request_timeout") {
		cfg.RequestTimeout = v.GetDuration("request_timeout")
	}
	if v.IsSet("download_dir") {
		cfg.DownloadDir = v.GetString("download_dir")
	}
	if v.IsSet("upload_timeout") {
		cfg.UploadTimeout = v.GetDuration("upload_timeout")
	}
	return nil
}
