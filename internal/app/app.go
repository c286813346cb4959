// internal/app/app.go

package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"

	"tokscope/internal/adapter/storage"
	"tokscope/internal/adapter/tiktok"
	"tokscope/internal/config"
	"tokscope/internal/domain/audit"
	"tokscope/internal/mcp"
	"tokscope/internal/service/analysis"
	"tokscope/pkg/logging"
)

// Version is overridden at build time with -ldflags "-X tokscope/internal/app.Version=..."
var Version = "dev"

// App holds the wired services shared by the HTTP server and the CLI
type App struct {
	Config   config.Config
	Logger   logging.Logger
	Client   *tiktok.Client
	Analysis *analysis.Service
	Store    *storage.ToolCallStore
	NATS     *nats.Conn

	db *pgxpool.Pool
}

// New connects the optional infrastructure and wires the services
func New(ctx context.Context, cfg config.Config, logger logging.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	a.Client = tiktok.NewClient(tiktok.Config{
		BaseURL:        cfg.Backend.BaseURL,
		APIKey:         cfg.Backend.APIKey,
		UserAgent:      cfg.Backend.UserAgent,
		Timeout:        cfg.Backend.RequestTimeout,
		MaxRetries:     cfg.Backend.MaxRetries,
		RetryBaseDelay: cfg.Backend.RetryBaseDelay,
		RetryMaxDelay:  cfg.Backend.RetryMaxDelay,
	}, logger)

	if cfg.Database.Enabled {
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.Store = storage.NewToolCallStore(db)
		if err := a.Store.Migrate(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	if cfg.NATS.Enabled {
		nc, err := initNATS(cfg.NATS, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.NATS = nc
	}

	var publisher analysis.Publisher
	if a.NATS != nil {
		publisher = a.NATS
	}
	a.Analysis = analysis.NewService(a.Client, publisher, analysis.Config{
		EventsTopic:     cfg.Analysis.EventsTopic,
		DefaultLanguage: cfg.Analysis.DefaultLanguage,
		FetchTimeout:    cfg.Analysis.FetchTimeout,
	}, logger)

	return a, nil
}

// MCPConfig returns the MCP server configuration for the wired services
func (a *App) MCPConfig() mcp.Config {
	cfg := mcp.Config{
		Name:    a.Config.MCP.Name,
		Version: Version,
		Service: a.Analysis,
		Logger:  a.Logger,
	}
	if a.Store != nil {
		cfg.Recorder = a.Store
	}
	return cfg
}

// AuditReader returns the audit log reader, nil when the database is disabled
func (a *App) AuditReader() audit.Reader {
	if a.Store == nil {
		return nil
	}
	return a.Store
}

// Close releases the database pool and NATS connection
func (a *App) Close() {
	if a.NATS != nil {
		if err := a.NATS.Drain(); err != nil {
			a.NATS.Close()
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, logger logging.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("tokscope"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.WithError(err).Warn("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
