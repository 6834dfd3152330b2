package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	gcfirestore "cloud.google.com/go/firestore"
	"github.com/go-zookeeper/zk"
	"github.com/hashicorp/consul/api"
	"github.com/jackc/pgx/v5/pgxpool"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	prom "github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
	k8s "k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/zoobzio/storefront"
	"github.com/zoobzio/storefront/internal/config"
	"github.com/zoobzio/storefront/pkg/consul"
	"github.com/zoobzio/storefront/pkg/etcd"
	"github.com/zoobzio/storefront/pkg/file"
	"github.com/zoobzio/storefront/pkg/firestore"
	"github.com/zoobzio/storefront/pkg/kubernetes"
	"github.com/zoobzio/storefront/pkg/nats"
	"github.com/zoobzio/storefront/pkg/postgres"
	"github.com/zoobzio/storefront/pkg/prometheus"
	"github.com/zoobzio/storefront/pkg/redis"
	"github.com/zoobzio/storefront/pkg/sqlite"
	"github.com/zoobzio/storefront/pkg/zookeeper"
	"github.com/zoobzio/storefront/stores"
)

// App is an opened backend with the stores built over it.
type App struct {
	Config   config.Config
	Log      *logrus.Logger
	Stores   *stores.Registry
	Storage  storefront.Storage
	Watcher  storefront.Watcher // nil for the memory backend
	Gatherer prom.Gatherer

	closers []func() error
}

// Open connects to the backend named in cfg and builds the stores.
func Open(ctx context.Context, cfg config.Config, log *logrus.Logger, alerter storefront.Alerter) (*App, error) {
	app := &App{Config: cfg, Log: log}
	if err := app.openStorage(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}

	reg := prom.NewRegistry()
	metrics, err := prometheus.New(reg)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	app.Gatherer = reg

	codec, err := newCodec(cfg.Codec)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	fetcher := storefront.NewFetcher().
		Delay(cfg.Fetch.MinDelay.Duration, cfg.Fetch.MaxDelay.Duration).
		FailureRate(cfg.Fetch.FailureRate)

	app.Stores = stores.New(stores.Deps{
		Storage:   app.Storage,
		Codec:     codec,
		Fetcher:   fetcher,
		Alerter:   alerter,
		Metrics:   metrics,
		Retries:   cfg.Fetch.Retries,
		Timeout:   cfg.Fetch.Timeout.Duration,
		RateLimit: cfg.Fetch.RateLimit,
	})
	observe(log)

	log.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"codec":   cfg.Codec,
	}).Debug("backend opened")
	return app, nil
}

func (a *App) openStorage(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Backend {
	case config.BackendMemory:
		a.Storage = storefront.NewMemoryStorage()

	case config.BackendFile:
		var opts []file.Option
		if cfg.Codec == "yaml" {
			opts = append(opts, file.WithExt(".yaml"))
		}
		s, err := file.New(cfg.Path, opts...)
		if err != nil {
			return err
		}
		a.Storage = s
		a.Watcher = s.Watcher()

	case config.BackendSQLite:
		path := cfg.SQLitePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		s, err := sqlite.Open(path)
		if err != nil {
			return err
		}
		a.Storage = s
		a.closers = append(a.closers, s.Close)

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		s := redis.New(client, opts...)
		a.Storage = s
		a.Watcher = s.Watcher()

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		})
		var opts []postgres.Option
		if cfg.Postgres.Table != "" {
			opts = append(opts, postgres.WithTable(cfg.Postgres.Table))
		}
		s := postgres.New(pool, opts...)
		if err := s.Migrate(ctx); err != nil {
			return err
		}
		a.Storage = s
		a.Watcher = s.Watcher()

	case config.BackendEtcd:
		client, err := clientv3.New(clientv3.Config{
			Endpoints:   cfg.Etcd.Endpoints,
			DialTimeout: cfg.Etcd.DialTimeout.Duration,
		})
		if err != nil {
			return fmt.Errorf("connect etcd: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		var opts []etcd.Option
		if cfg.Etcd.Prefix != "" {
			opts = append(opts, etcd.WithPrefix(cfg.Etcd.Prefix))
		}
		s := etcd.New(client, opts...)
		a.Storage = s
		a.Watcher = s.Watcher()

	case config.BackendConsul:
		apiCfg := api.DefaultConfig()
		if cfg.Consul.Addr != "" {
			apiCfg.Address = cfg.Consul.Addr
		}
		if cfg.Consul.Token != "" {
			apiCfg.Token = cfg.Consul.Token
		}
		client, err := api.NewClient(apiCfg)
		if err != nil {
			return fmt.Errorf("connect consul: %w", err)
		}
		var opts []consul.Option
		if cfg.Consul.Prefix != "" {
			opts = append(opts, consul.WithPrefix(cfg.Consul.Prefix))
		}
		s := consul.New(client, opts...)
		a.Storage = s
		a.Watcher = s.Watcher()

	case config.BackendNATS:
		conn, err := natsgo.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		a.closers = append(a.closers, func() error {
			conn.Close()
			return nil
		})
		js, err := jetstream.New(conn)
		if err != nil {
			return fmt.Errorf("open jetstream: %w", err)
		}
		s, err := nats.Open(ctx, js, cfg.NATS.Bucket)
		if err != nil {
			return err
		}
		a.Storage = s
		a.Watcher = s.Watcher()

	case config.BackendZooKeeper:
		conn, _, err := zk.Connect(cfg.ZooKeeper.Servers, cfg.ZooKeeper.SessionTimeout.Duration, zk.WithLogger(zkLogger{a.Log}))
		if err != nil {
			return fmt.Errorf("connect zookeeper: %w", err)
		}
		a.closers = append(a.closers, func() error {
			conn.Close()
			return nil
		})
		var opts []zookeeper.Option
		if cfg.ZooKeeper.Root != "" {
			opts = append(opts, zookeeper.WithRoot(cfg.ZooKeeper.Root))
		}
		s := zookeeper.New(conn, opts...)
		a.Storage = s
		a.Watcher = s.Watcher()

	case config.BackendFirestore:
		client, err := gcfirestore.NewClient(ctx, cfg.Firestore.Project)
		if err != nil {
			return fmt.Errorf("connect firestore: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		var opts []firestore.Option
		if cfg.Firestore.Collection != "" {
			opts = append(opts, firestore.WithCollection(cfg.Firestore.Collection))
		}
		s := firestore.New(client, opts...)
		a.Storage = s
		a.Watcher = s.Watcher()

	case config.BackendKubernetes:
		restCfg, err := kubeConfig(cfg.Kubernetes.Kubeconfig)
		if err != nil {
			return fmt.Errorf("load kubeconfig: %w", err)
		}
		client, err := k8s.NewForConfig(restCfg)
		if err != nil {
			return fmt.Errorf("connect kubernetes: %w", err)
		}
		var opts []kubernetes.Option
		if cfg.Kubernetes.Secret {
			opts = append(opts, kubernetes.WithResourceType(kubernetes.Secret))
		}
		s := kubernetes.New(client, cfg.Kubernetes.Namespace, cfg.Kubernetes.Name, opts...)
		a.Storage = s
		a.Watcher = s.Watcher()

	default:
		return fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	return nil
}

// Close drops store subscribers and releases backend connections.
func (a *App) Close() error {
	if a.Stores != nil {
		a.Stores.Close()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func kubeConfig(path string) (*rest.Config, error) {
	if path == "" {
		return rest.InClusterConfig()
	}
	return clientcmd.BuildConfigFromFlags("", path)
}

// zkLogger routes zookeeper client chatter to the debug log.
type zkLogger struct {
	log *logrus.Logger
}

func (l zkLogger) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func newCodec(name string) (storefront.Codec, error) {
	switch name {
	case "", "json":
		return storefront.JSONCodec{}, nil
	case "yaml":
		return storefront.YAMLCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
