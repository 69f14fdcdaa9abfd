package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/flagx"
)

// Config holds runtime settings for the equitygate CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the backend gRPC endpoint.
//   - RequestTimeout: deadline applied to every remote call.
//   - UploadTimeout: deadline for a document transfer to or from object storage.
//   - DownloadDir: where downloads go when no target path is given.
type Config struct {
	ServerEndpointAddr string
	RequestTimeout     time.Duration
	UploadTimeout      time.Duration
	DownloadDir        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.UploadTimeout = 2 * time.Minute
	c.DownloadDir = "downloads"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the config file and EQUITYGATE_CLI_* environment (if present) and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	args := os.Args[1:]

	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, flagx.ConfigFileFlag(args)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
