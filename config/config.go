package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Chain    ChainConfig    `mapstructure:"chain"`
	IPFS     IPFSConfig     `mapstructure:"ipfs"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	Mode        string   `mapstructure:"mode"` // debug, release, test
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// WebhookConfig configures inbound Thirdweb Pay webhooks.
type WebhookConfig struct {
	Secret           string        `mapstructure:"secret"`
	ProcessorAddress string        `mapstructure:"processor_address"`
	MaxAge           time.Duration `mapstructure:"max_age"`
	MaxSkew          time.Duration `mapstructure:"max_skew"`
	ReplayProtection bool          `mapstructure:"replay_protection"` // needs redis
}

// LedgerConfig configures the remote aggregate store holding credit balances.
type LedgerConfig struct {
	Backend    string        `mapstructure:"backend"` // aleph, postgres
	Key        string        `mapstructure:"key"`
	APIURL     string        `mapstructure:"api_url"`
	PrivateKey string        `mapstructure:"private_key"`
	Channel    string        `mapstructure:"channel"`
	Timeout    time.Duration `mapstructure:"timeout"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`
	LockWait   time.Duration `mapstructure:"lock_wait"`
}

// SigningKey returns the ledger identity key, falling back to the chain key.
func (l LedgerConfig) SigningKey(chain ChainConfig) string {
	if l.PrivateKey != "" {
		return l.PrivateKey
	}
	return chain.PrivateKey
}

type ChainConfig struct {
	RPCURL           string        `mapstructure:"rpc_url"`
	PrivateKey       string        `mapstructure:"private_key"`
	RegistrarAddress string        `mapstructure:"registrar_address"`
	ResolverAddress  string        `mapstructure:"resolver_address"`
	ParentDomain     string        `mapstructure:"parent_domain"`
	GasLimit         uint64        `mapstructure:"gas_limit"`
	CallTimeout      time.Duration `mapstructure:"call_timeout"`
}

// IPFSConfig points at an S3-compatible IPFS pinning gateway.
type IPFSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// IsEnabled reports whether avatar uploads can be pinned.
func (c IPFSConfig) IsEnabled() bool {
	return c.Endpoint != "" && c.Bucket != "" && c.AccessKeyID != ""
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// AdminConfig secures the administrative credit endpoint.
// An empty JWTSecret leaves the endpoint unmounted.
type AdminConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// defaults also registers every key with viper, which AutomaticEnv needs
// for Unmarshal to see RELAY_* overrides of keys absent from the file.
var defaults = map[string]any{
	"server.host":         "0.0.0.0",
	"server.port":         8000,
	"server.mode":         "release",
	"server.cors_origins": []string{"*"},

	"log.level":  "info",
	"log.pretty": false,

	"webhook.secret":            "",
	"webhook.processor_address": "",
	"webhook.max_age":           "300s",
	"webhook.max_skew":          "30s",
	"webhook.replay_protection": false,

	"ledger.backend":     "aleph",
	"ledger.key":         "BEDROCK_CREDIT_BALANCES",
	"ledger.api_url":     "https://api2.aleph.im",
	"ledger.private_key": "",
	"ledger.channel":     "BEDROCK",
	"ledger.timeout":     "15s",
	"ledger.lock_ttl":    "30s",
	"ledger.lock_wait":   "10s",

	"chain.rpc_url":           "https://mainnet.base.org",
	"chain.private_key":       "",
	"chain.registrar_address": "0x30afcf8bddd96b3e2b0210f8f003aafd4a52f628",
	"chain.resolver_address":  "",
	"chain.parent_domain":     "bedrock.eth",
	"chain.gas_limit":         300000,
	"chain.call_timeout":      "15s",

	"ipfs.endpoint":          "",
	"ipfs.region":            "us-east-1",
	"ipfs.bucket":            "",
	"ipfs.access_key_id":     "",
	"ipfs.secret_access_key": "",

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"database.enabled":           false,
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "postgres",
	"database.dbname":            "bedrock_relay",
	"database.sslmode":           "disable",
	"database.max_conns":         10,
	"database.min_conns":         2,
	"database.conn_max_lifetime": "30m",

	"admin.jwt_secret": "",
	"admin.issuer":     "bedrock-relay",
	"admin.token_ttl":  "1h",
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: RELAY_.
// Nested keys use underscore: RELAY_WEBHOOK_SECRET, RELAY_LEDGER_API_URL, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// RELAY_WEBHOOK_SECRET -> webhook.secret
	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional; env vars can suffice.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the settings the relay cannot start without.
func (c *Config) Validate() error {
	var missing []string
	if c.Webhook.Secret == "" {
		missing = append(missing, "webhook.secret")
	}
	if c.Webhook.ProcessorAddress == "" {
		missing = append(missing, "webhook.processor_address")
	}
	switch c.Ledger.Backend {
	case "aleph":
		if c.Ledger.SigningKey(c.Chain) == "" {
			missing = append(missing, "ledger.private_key")
		}
	case "postgres":
		if !c.Database.Enabled {
			return fmt.Errorf("ledger.backend=postgres requires database.enabled")
		}
	default:
		return fmt.Errorf("unknown ledger.backend %q", c.Ledger.Backend)
	}
	if c.Webhook.ReplayProtection && !c.Redis.Enabled {
		return fmt.Errorf("webhook.replay_protection requires redis.enabled")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
