package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"hireline/internal/config"
	"hireline/internal/db"
	"hireline/internal/engine"
	"hireline/internal/migrate"
	"hireline/internal/repo"
	"hireline/internal/storage"
)

// App bundles the wired engine with the resources it owns.
type App struct {
	Engine engine.Engine
	Store  repo.Store
	Logger *log.Logger
	Config *config.Config

	logOut io.Closer
}

// NewLogger writes to stderr, or to a rotated file when cfg.Log.File is set.
func NewLogger(cfg *config.Config) (*log.Logger, io.Closer) {
	if cfg.Log.File == "" {
		return log.New(os.Stderr, "hireline ", log.LstdFlags|log.LUTC), nil
	}
	out := &lumberjack.Logger{
		Filename:   cfg.Log.File,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	return log.New(io.MultiWriter(os.Stderr, out), "hireline ", log.LstdFlags|log.LUTC), out
}

// OpenStore opens the backend named by cfg.Store.Driver, running migrations
// for the SQL drivers.
func OpenStore(ctx context.Context, workspace string, cfg *config.Config) (repo.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return repo.NewMemory(), nil
	case config.DriverSQLite, config.DriverPostgres:
		dialect := db.SQLite
		if cfg.Store.Driver == config.DriverPostgres {
			dialect = db.Postgres
		}
		conn, err := db.Open(db.Config{Dialect: dialect, DSN: cfg.Store.DSN, Workspace: workspace})
		if err != nil {
			return nil, err
		}
		if err := conn.PingContext(ctx); err != nil {
			conn.Close()
			return nil, fmt.Errorf("connect %s: %w", dialect, err)
		}
		if err := migrate.Migrate(conn, dialect); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return repo.SQL{DB: conn, Dialect: dialect}, nil
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		st := repo.NewRedis(client, cfg.Store.RedisPrefix)
		if err := st.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Store.RedisAddr, err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// NewUploader returns the uploader for cfg.Uploads.Mode.
func NewUploader(cfg *config.Config) (storage.Uploader, error) {
	switch cfg.Uploads.Mode {
	case config.UploadsLocal:
		return storage.Local{Dir: cfg.Uploads.Dir}, nil
	case config.UploadsBucket:
		return storage.Bucket{BaseURL: cfg.Uploads.BucketURL, Key: cfg.Uploads.BucketKey}, nil
	default:
		return nil, fmt.Errorf("unknown uploads mode %q", cfg.Uploads.Mode)
	}
}

// Open wires logger, store, uploader and engine from cfg.
func Open(ctx context.Context, workspace string, cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, logOut := NewLogger(cfg)
	up, err := NewUploader(cfg)
	if err != nil {
		return nil, err
	}
	st, err := OpenStore(ctx, workspace, cfg)
	if err != nil {
		if logOut != nil {
			logOut.Close()
		}
		return nil, err
	}
	return &App{
		Engine: engine.New(st, up, logger),
		Store:  st,
		Logger: logger,
		Config: cfg,
		logOut: logOut,
	}, nil
}

func (a *App) Close() error {
	err := a.Store.Close()
	if a.logOut != nil {
		if cerr := a.logOut.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
