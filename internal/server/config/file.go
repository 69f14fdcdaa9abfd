package config

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name, e.g.
// EQUITYGATE_DATABASE_DSN or EQUITYGATE_RATE_LIMITS_LOGIN_WINDOW.
const EnvPrefix = "EQUITYGATE"

// loadDotEnv loads path, or ./.env when path is empty. A missing default
// .env is not an error. Variables already present in the environment win.
func loadDotEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func newViper(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

// parseFile overlays values from the config file at path (json, yaml or
// toml, chosen by extension) and from EQUITYGATE_* environment variables.
// Keys that are set in neither keep their current values.
func parseFile(cfg *Config, path string) error {
	v, err := newViper(path)
	if err != nil {
		return err
	}

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v.IsSet(key) {
			*dst = v.GetDuration(key)
		}
	}
	policy := func(name string, dst *RateLimitPolicy) {
		num("rate_limits."+name+".max_attempts", &dst.MaxAttempts)
		dur("rate_limits."+name+".window", &dst.Window)
	}

	str("endpoint_addr_grpc", &cfg.EndpointAddrGRPC)
	str("endpoint_addr_http", &cfg.EndpointAddrHTTP)
	str("database_dsn", &cfg.DatabaseDSN)

	str("secret_key", &cfg.SecretKey)
	str("jwt_issuer", &cfg.JWTIssuer)
	str("jwt_audience", &cfg.JWTAudience)
	dur("token_validity_duration", &cfg.TokenValidityDuration)
	if v.IsSet("require_verified_login") {
		cfg.RequireVerifiedLogin = v.GetBool("require_verified_login")
	}
	num("bcrypt_cost", &cfg.BcryptCost)

	dur("otp_validity_duration", &cfg.OTPValidityDuration)
	dur("company_otp_validity_duration", &cfg.CompanyOTPValidityDuration)
	dur("reset_token_validity_duration", &cfg.ResetTokenValidityDuration)

	policy("login", &cfg.LoginLimit)
	policy("register", &cfg.RegisterLimit)
	policy("verify", &cfg.VerifyLimit)
	policy("otp_resend", &cfg.OTPResendLimit)
	policy("reset", &cfg.ResetLimit)
	policy("company_otp", &cfg.CompanyOTPLimit)
	if v.IsSet("http_request_rate") {
		cfg.HTTPRequestRate = v.GetFloat64("http_request_rate")
	}
	num("http_request_burst", &cfg.HTTPRequestBurst)
	if v.IsSet("cors_origins") {
		cfg.CORSOrigins = v.GetStringSlice("cors_origins")
	}

	str("smtp_host", &cfg.SMTPHost)
	num("smtp_port", &cfg.SMTPPort)
	str("smtp_user", &cfg.SMTPUser)
	str("smtp_password", &cfg.SMTPPassword)
	str("smtp_from", &cfg.SMTPFrom)
	dur("smtp_timeout", &cfg.SMTPTimeout)
	num("email_retry_attempts", &cfg.EmailRetryAttempts)
	dur("email_retry_delay", &cfg.EmailRetryDelay)

	str("s3_root_user", &cfg.S3RootUser)
	str("s3_root_password", &cfg.S3RootPassword)
	str("s3_bucket", &cfg.S3Bucket)
	str("s3_region", &cfg.S3Region)
	str("s3_base_endpoint", &cfg.S3BaseEndpoint)

	dur("janitor_interval", &cfg.JanitorInterval)
	dur("pending_ttl", &cfg.PendingTTL)
	dur("store_timeout", &cfg.StoreTimeout)
	dur("request_timeout", &cfg.RequestTimeout)

	str("log_backend", &cfg.LogBackend)
	str("log_level", &cfg.LogLevel)

	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
