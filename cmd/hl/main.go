package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hireline/internal/app"
	"hireline/internal/config"
	"hireline/internal/db"
	"hireline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "hl",
	Short: "Hireline CLI",
	Long: `Hireline tracks job openings and candidates moving through a hiring pipeline.
- Jobs: openings with a status of Open, Closed or On Hold.
- Candidates: applicants tied to a job, moving Applied -> Screening -> Interview -> Offer -> Hired (or Rejected).
- Messages: moving a candidate along certain stages records a templated message to them.
- Job boards: public boards with a slug and logo, listing job posts.
- Event log: audit trail of every change, view with 'hl log tail'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_, err := db.EnsureWorkspace(viper.GetString("workspace"))
		return err
	},
}

func main() {
	_ = godotenv.Load()
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HIRELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// persistent flags that override hireline.yml when non-empty
var overrideFlags = []struct{ name, usage string }{
	{"driver", "store driver: memory, sqlite, postgres or redis"},
	{"dsn", "postgres DSN (or sqlite DSN override)"},
	{"redis-addr", "redis address host:port"},
	{"uploads-mode", "uploads mode: local or bucket"},
	{"uploads-dir", "local uploads directory"},
	{"bucket-url", "object storage base URL"},
	{"bucket-key", "object storage API key"},
	{"log-file", "also write logs to this rotated file"},
}

func addPersistentFlags() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("workspace", "w", ".", "workspace directory")
	pf.Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", pf.Lookup("workspace"))
	_ = viper.BindPFlag("json", pf.Lookup("json"))
	for _, f := range overrideFlags {
		pf.String(f.name, "", f.usage)
		_ = viper.BindPFlag(f.name, pf.Lookup(f.name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(jobCmd())
	rootCmd.AddCommand(candidateCmd())
	rootCmd.AddCommand(messageCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(logCmd())
}

// loadConfig reads hireline.yml from the workspace and applies flag/env overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	set := func(key string, dst *string) {
		if v := viper.GetString(key); v != "" {
			*dst = v
		}
	}
	set("driver", &cfg.Store.Driver)
	set("dsn", &cfg.Store.DSN)
	set("redis-addr", &cfg.Store.RedisAddr)
	set("uploads-mode", &cfg.Uploads.Mode)
	set("uploads-dir", &cfg.Uploads.Dir)
	set("bucket-url", &cfg.Uploads.BucketURL)
	set("bucket-key", &cfg.Uploads.BucketKey)
	set("log-file", &cfg.Log.File)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configFrom reads an explicit config file when given, else the workspace config.
func configFrom(file string) (*config.Config, error) {
	if file == "" {
		return loadConfig()
	}
	return config.FromFile(file)
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if basePath != "" {
				cfg.Server.BasePath = basePath
			}
			a, err := app.Open(cmd.Context(), viper.GetString("workspace"), cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			scfg := server.Config{
				Engine:         a.Engine,
				BasePath:       cfg.Server.BasePath,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Logger:         a.Logger,
			}
			if cfg.Uploads.Mode == config.UploadsLocal {
				scfg.UploadsDir = cfg.Uploads.Dir
			}
			handler, err := server.New(scfg)
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			shownBase := cfg.Server.BasePath
			if shownBase == "" {
				shownBase = "/api"
			}
			a.Logger.Printf("serving Hireline API on http://%s%s (store %s, OpenAPI at %s/openapi.json, Swagger UI at /docs)",
				cfg.Server.Addr, shownBase, cfg.Store.Driver, shownBase)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&basePath, "base-path", "", "API base path (default /api)")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations to the configured SQL store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Store.Driver != config.DriverSQLite && cfg.Store.Driver != config.DriverPostgres {
				return fmt.Errorf("store driver %s has no schema to migrate", cfg.Store.Driver)
			}
			st, err := app.OpenStore(cmd.Context(), viper.GetString("workspace"), cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if cfg.Store.Driver == config.DriverSQLite && cfg.Store.DSN == "" {
				fmt.Printf("sqlite schema at %s is up to date\n", db.Path(viper.GetString("workspace")))
				return nil
			}
			fmt.Printf("%s schema is up to date\n", cfg.Store.Driver)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Inspect and create hireline.yml"}
	c.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default hireline.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	var file string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(file)
			if err != nil {
				return err
			}
			return printJSON(cfg)
		},
	}
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate hireline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := configFrom(file); err != nil {
				return err
			}
			fmt.Println("config ok")
			return nil
		},
	}
	for _, sub := range []*cobra.Command{show, validate} {
		sub.Flags().StringVar(&file, "file", "", "read this config file instead of the workspace hireline.yml")
		c.AddCommand(sub)
	}
	return c
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Driver == config.DriverMemory {
		return fmt.Errorf("the memory store does not persist between commands; use serve or another driver")
	}
	a, err := app.Open(ctx, viper.GetString("workspace"), cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func readLogoFile(path string) (name, contentType string, data []byte, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		return "", "", nil, err
	}
	name = filepath.Base(path)
	contentType = mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return name, contentType, data, nil
}
