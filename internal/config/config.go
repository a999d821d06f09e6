package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	WriteWait  time.Duration `mapstructure:"write_wait"`
	SendBuffer int           `mapstructure:"send_buffer"`
	Secret     string        `mapstructure:"secret"`

	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Relay     RelayConfig     `mapstructure:"relay"`
	WebRTC    WebRTCConfig    `mapstructure:"webrtc"`
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	RequireWSToken bool          `mapstructure:"require_ws_token"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

type RateLimitConfig struct {
	HTTPRPS   float64 `mapstructure:"http_rps"`
	HTTPBurst int     `mapstructure:"http_burst"`
	WSRPS     float64 `mapstructure:"ws_rps"`
	WSBurst   int     `mapstructure:"ws_burst"`
}

type RelayConfig struct {
	StrictSequencing bool `mapstructure:"strict_sequencing"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

type WebRTCConfig struct {
	ICEServers []ICEServer `mapstructure:"ice_servers"`
}

// PongWait is how long a connection may stay silent before it is
// considered gone. It is a little longer than the ping period.
func (c *Config) PongWait() time.Duration {
	return c.PingPeriod * 10 / 9
}

// Load reads config/config.<CONFIG_ENV>.yaml (CONFIG_ENV defaults to dev).
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFrom(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFrom reads fileName if it exists; TELEMED_* environment variables
// override file values and defaults.
func LoadFrom(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("telemed")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Bool("strict_sequencing", cfg.Relay.StrictSequencing).
		Msg("config ready")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("secret", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.require_ws_token", false)
	v.SetDefault("auth.token_ttl", "15m")

	v.SetDefault("cors.origins", []string{"*"})

	v.SetDefault("ratelimit.http_rps", 10)
	v.SetDefault("ratelimit.http_burst", 20)
	v.SetDefault("ratelimit.ws_rps", 50)
	v.SetDefault("ratelimit.ws_burst", 100)

	v.SetDefault("relay.strict_sequencing", false)

	v.SetDefault("webrtc.ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
}

var (
	ErrInvalidPort       = errors.New("port must be between 1 and 65535")
	ErrInvalidReadLimit  = errors.New("read_limit must be positive")
	ErrInvalidSendBuffer = errors.New("send_buffer must be positive")
	ErrInvalidPing       = errors.New("ping_period must be positive")
	ErrMissingJWTSecret  = errors.New("auth.require_ws_token needs auth.jwt_secret")
)

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.ReadLimit <= 0 {
		return ErrInvalidReadLimit
	}
	if c.SendBuffer <= 0 {
		return ErrInvalidSendBuffer
	}
	if c.PingPeriod <= 0 {
		return ErrInvalidPing
	}
	if c.Auth.RequireWSToken && c.Auth.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	return nil
}
