package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageFile     = "file"
)

// Config holds the configuration settings for the whispers server.
//
// Every key can be set from the environment; a YAML file named by WHISPERS_CONFIG
// may provide values underneath it.
type Config struct {
	Env           string         // Env is the current environment: local, development, production.
	Port          int            // Port is the HTTP server port.
	Storage       string         // Storage selects the backend: postgres or file.
	DataFile      string         // DataFile is the JSON file used by the file backend.
	Retention     time.Duration  // Retention is how long whispers are kept.
	SweepInterval time.Duration  // SweepInterval is the period of the retention sweeper.
	CORSOrigins   []string       // CORSOrigins are the allowed browser origins, all when empty.
	PostLimit     int            // PostLimit is the number of posts allowed per PostWindow and IP.
	PostWindow    time.Duration  // PostWindow is the window of the post limit.
	APILimit      int            // APILimit is the number of API requests allowed per minute and IP.
	Places        PlacesConfig   // Places configures the place labeling worker.
	VAPID         VAPIDConfig    // VAPID holds the web push keys.
	Database      PostgresConfig // Database holds the postgres database configuration.
}

// PlacesConfig configures the reverse geocoding worker.
type PlacesConfig struct {
	ProviderType string        // ProviderType specifies which provider to use: google, nominatim, visicom, none.
	APIKey       string        // APIKey for providers that need one.
	Workers      int           // Workers is the number of concurrent labeling workers.
	Interval     time.Duration // Interval between polls for unlabeled whispers.
}

// VAPIDConfig identifies the server to browser push services.
type VAPIDConfig struct {
	Subject    string
	PublicKey  string
	PrivateKey string
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Name     string // Name is the name of the database.
	SSLMode  string // SSLMode is passed as the sslmode connection parameter.
}

// setting binds one viper key to its environment variable and default.
type setting struct {
	key, env string
	def      any
}

var settings = []setting{
	{"env", "WHISPERS_ENV", "production"},
	{"port", "WHISPERS_PORT", 8080},
	{"storage", "WHISPERS_STORAGE", StoragePostgres},
	{"data_file", "WHISPERS_DATA_FILE", "whispers.json"},
	{"retention", "WHISPERS_RETENTION", "2160h"},
	{"sweep_interval", "WHISPERS_SWEEP_INTERVAL", "1h"},
	{"cors_origins", "WHISPERS_CORS_ORIGINS", ""},
	{"post.limit", "WHISPERS_POST_LIMIT", 1},
	{"post.window", "WHISPERS_POST_WINDOW", "60s"},
	{"api_limit", "WHISPERS_API_LIMIT", 120},
	{"places.provider", "WHISPERS_PROVIDER_TYPE", "none"},
	{"places.api_key", "WHISPERS_PROVIDER_KEY", ""},
	{"places.workers", "WHISPERS_LABEL_WORKERS", 2},
	{"places.interval", "WHISPERS_LABEL_INTERVAL", "1m"},
	{"vapid.subject", "VAPID_SUBJECT", "mailto:admin@example.com"},
	{"vapid.public_key", "VAPID_PUBLIC_KEY", ""},
	{"vapid.private_key", "VAPID_PRIVATE_KEY", ""},
	{"db.host", "DB_HOST", "localhost"},
	{"db.port", "DB_PORT", "5432"},
	{"db.user", "DB_USERNAME", ""},
	{"db.password", "DB_PASSWORD", ""},
	{"db.name", "DB_NAME", "whispers"},
	{"db.sslmode", "DB_SSLMODE", "disable"},
}

// MustLoad loads the configuration and panics with a readable message when a value cannot be parsed.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

// Load reads .env, the optional YAML file and the environment, in increasing priority.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
		if err := v.BindEnv(s.key, s.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", s.env, err)
		}
	}

	if path := os.Getenv("WHISPERS_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	p := parser{v: v}
	cfg := &Config{
		Env:           v.GetString("env"),
		Port:          p.integer("port", "port"),
		Storage:       strings.ToLower(v.GetString("storage")),
		DataFile:      v.GetString("data_file"),
		Retention:     p.duration("retention", "retention"),
		SweepInterval: p.duration("sweep_interval", "sweep interval"),
		CORSOrigins:   splitList(v.GetString("cors_origins")),
		PostLimit:     p.integer("post.limit", "post limit"),
		PostWindow:    p.duration("post.window", "post window"),
		APILimit:      p.integer("api_limit", "api limit"),
		Places: PlacesConfig{
			ProviderType: strings.ToLower(v.GetString("places.provider")),
			APIKey:       v.GetString("places.api_key"),
			Workers:      p.integer("places.workers", "label workers"),
			Interval:     p.duration("places.interval", "label interval"),
		},
		VAPID: VAPIDConfig{
			Subject:    v.GetString("vapid.subject"),
			PublicKey:  v.GetString("vapid.public_key"),
			PrivateKey: v.GetString("vapid.private_key"),
		},
		Database: PostgresConfig{
			Host:     v.GetString("db.host"),
			Port:     v.GetString("db.port"),
			User:     v.GetString("db.user"),
			Password: v.GetString("db.password"),
			Name:     v.GetString("db.name"),
			SSLMode:  v.GetString("db.sslmode"),
		},
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Storage != StoragePostgres && c.Storage != StorageFile:
		return fmt.Errorf("unsupported storage backend %q, must be postgres or file", c.Storage)
	case c.Retention <= 0:
		return errors.New("retention must be positive")
	case c.SweepInterval <= 0 || c.Places.Interval <= 0:
		return errors.New("worker intervals must be positive")
	case c.PostLimit > 0 && c.PostWindow <= 0:
		return errors.New("post window must be positive when the post limit is enabled")
	case (c.VAPID.PublicKey == "") != (c.VAPID.PrivateKey == ""):
		return errors.New("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together")
	}

	return nil
}

// parser keeps the first parse error so Load can report it after building the struct.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) integer(key, name string) int {
	n, err := strconv.Atoi(strings.TrimSpace(p.v.GetString(key)))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("failed to parse %s from configuration, must be an integer", name)
	}

	return n
}

func (p *parser) duration(key, name string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(p.v.GetString(key)))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("failed to parse %s from configuration", name)
	}

	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
