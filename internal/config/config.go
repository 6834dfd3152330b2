package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/zoobzio/storefront"
)

// Backends accepted in Config.Backend.
const (
	BackendMemory     = "memory"
	BackendFile       = "file"
	BackendSQLite     = "sqlite"
	BackendRedis      = "redis"
	BackendPostgres   = "postgres"
	BackendEtcd       = "etcd"
	BackendConsul     = "consul"
	BackendNATS       = "nats"
	BackendZooKeeper  = "zookeeper"
	BackendFirestore  = "firestore"
	BackendKubernetes = "kubernetes"
)

const (
	DefaultConfigPath  = "~/.config/storefront/config.toml"
	defaultDataDir     = "~/.local/share/storefront"
	defaultRedisAddr   = "127.0.0.1:6379"
	defaultDialTimeout = 5 * time.Second
)

// Config is the CLI configuration.
type Config struct {
	Backend    string           `toml:"backend" validate:"oneof=memory file sqlite redis postgres etcd consul nats zookeeper firestore kubernetes"`
	Path       string           `toml:"path"`
	Codec      string           `toml:"codec" validate:"oneof=json yaml"`
	Redis      RedisConfig      `toml:"redis"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Etcd       EtcdConfig       `toml:"etcd"`
	Consul     ConsulConfig     `toml:"consul"`
	NATS       NATSConfig       `toml:"nats"`
	ZooKeeper  ZooKeeperConfig  `toml:"zookeeper"`
	Firestore  FirestoreConfig  `toml:"firestore"`
	Kubernetes KubernetesConfig `toml:"kubernetes"`
	Fetch      FetchConfig      `toml:"fetch"`
	Metrics    MetricsConfig    `toml:"metrics"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db" validate:"gte=0"`
	Prefix   string `toml:"prefix"`
}

// PostgresConfig configures the postgres backend.
type PostgresConfig struct {
	DSN   string `toml:"dsn"`
	Table string `toml:"table"`
}

// EtcdConfig configures the etcd backend.
type EtcdConfig struct {
	Endpoints   []string `toml:"endpoints" validate:"dive,required"`
	Prefix      string   `toml:"prefix"`
	DialTimeout Duration `toml:"dial_timeout"`
}

// ConsulConfig configures the consul backend. An empty Addr uses the
// client defaults, including CONSUL_HTTP_ADDR.
type ConsulConfig struct {
	Addr   string `toml:"addr"`
	Token  string `toml:"token"`
	Prefix string `toml:"prefix"`
}

// NATSConfig configures the nats backend.
type NATSConfig struct {
	URL    string `toml:"url"`
	Bucket string `toml:"bucket"`
}

// ZooKeeperConfig configures the zookeeper backend.
type ZooKeeperConfig struct {
	Servers        []string `toml:"servers" validate:"dive,required"`
	Root           string   `toml:"root"`
	SessionTimeout Duration `toml:"session_timeout"`
}

// FirestoreConfig configures the firestore backend. Credentials come from
// the environment, and FIRESTORE_EMULATOR_HOST selects an emulator.
type FirestoreConfig struct {
	Project    string `toml:"project"`
	Collection string `toml:"collection"`
}

// KubernetesConfig configures the kubernetes backend. An empty Kubeconfig
// uses the in-cluster config.
type KubernetesConfig struct {
	Kubeconfig string `toml:"kubeconfig"`
	Namespace  string `toml:"namespace"`
	Name       string `toml:"name"`
	Secret     bool   `toml:"secret"`
}

// FetchConfig configures the simulated network.
type FetchConfig struct {
	MinDelay    Duration `toml:"min_delay"`
	MaxDelay    Duration `toml:"max_delay"`
	FailureRate float64  `toml:"failure_rate" validate:"gte=0,lte=1"`
	Retries     int      `toml:"retries" validate:"gte=0,lte=10"`
	Timeout     Duration `toml:"timeout"`
	RateLimit   float64  `toml:"rate_limit" validate:"gte=0"`
}

// MetricsConfig configures the Prometheus endpoint served by `watch`.
type MetricsConfig struct {
	Addr string `toml:"addr" validate:"omitempty,hostname_port"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses strings such as "200ms".
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Backend: BackendFile,
		Path:    mustExpand(defaultDataDir),
		Codec:   "json",
		Redis:   RedisConfig{Addr: defaultRedisAddr, Prefix: "storefront:"},
		Etcd:    EtcdConfig{DialTimeout: Duration{defaultDialTimeout}},
		NATS:    NATSConfig{URL: "nats://127.0.0.1:4222"},
		ZooKeeper: ZooKeeperConfig{
			SessionTimeout: Duration{defaultDialTimeout},
		},
		Kubernetes: KubernetesConfig{Namespace: "default", Name: "storefront"},
		Fetch: FetchConfig{
			MinDelay:    Duration{storefront.DefaultMinDelay},
			MaxDelay:    Duration{storefront.DefaultMaxDelay},
			FailureRate: storefront.DefaultFailureRate,
		},
	}
}

// Load locates and parses the config, falling back to defaults when missing.
// Fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(bytes, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Codec = strings.ToLower(strings.TrimSpace(cfg.Codec))
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = defaultDataDir
	}
	cfg.Path = mustExpand(cfg.Path)
	if cfg.Codec == "" {
		cfg.Codec = "json"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Backend {
	case BackendFile, BackendSQLite:
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("invalid config: backend %s requires path", c.Backend)
		}
	case BackendRedis:
		if strings.TrimSpace(c.Redis.Addr) == "" {
			return errors.New("invalid config: backend redis requires redis.addr")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return errors.New("invalid config: backend postgres requires postgres.dsn")
		}
	case BackendEtcd:
		if len(c.Etcd.Endpoints) == 0 {
			return errors.New("invalid config: backend etcd requires etcd.endpoints")
		}
	case BackendNATS:
		if strings.TrimSpace(c.NATS.URL) == "" {
			return errors.New("invalid config: backend nats requires nats.url")
		}
	case BackendZooKeeper:
		if len(c.ZooKeeper.Servers) == 0 {
			return errors.New("invalid config: backend zookeeper requires zookeeper.servers")
		}
	case BackendFirestore:
		if strings.TrimSpace(c.Firestore.Project) == "" {
			return errors.New("invalid config: backend firestore requires firestore.project")
		}
	case BackendKubernetes:
		if strings.TrimSpace(c.Kubernetes.Namespace) == "" || strings.TrimSpace(c.Kubernetes.Name) == "" {
			return errors.New("invalid config: backend kubernetes requires kubernetes.namespace and kubernetes.name")
		}
	}
	if c.Fetch.MaxDelay.Duration < c.Fetch.MinDelay.Duration {
		return errors.New("invalid config: fetch.max_delay is below fetch.min_delay")
	}
	return nil
}

// SQLitePath returns the database file for the sqlite backend. A directory
// path gets storefront.db appended.
func (c Config) SQLitePath() string {
	if filepath.Ext(c.Path) == "" {
		return filepath.Join(c.Path, "storefront.db")
	}
	return c.Path
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(DefaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
