// Package app wires the workspace pieces together for CLI commands and
// tests: database, config, draft store, queue, event log, and API client.
package app

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"fieldline/internal/api"
	"fieldline/internal/config"
	"fieldline/internal/db"
	"fieldline/internal/draft"
	"fieldline/internal/events"
	"fieldline/internal/migrate"
	"fieldline/internal/queue"
)

// App is the per-command application context.
type App struct {
	DB     *sql.DB
	Config *config.Config
	Drafts *draft.SQLStore
	Queue  queue.Queue
	Events events.Writer
	API    *api.Client
	Log    *zap.SugaredLogger
}

// Open prepares the workspace: ensures the directory, opens and migrates
// the database, loads config when present, and builds the API client.
func Open(workspace string) (*App, error) {
	if _, err := db.EnsureWorkspace(workspace); err != nil {
		return nil, err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return nil, err
	}
	if err := migrate.Migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		conn.Close()
		return nil, err
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		conn.Close()
		return nil, err
	}
	a := &App{
		DB:     conn,
		Config: cfg,
		Drafts: draft.NewStore(conn),
		Queue:  queue.New(conn),
		Events: events.Writer{DB: conn},
		Log:    logger.Sugar(),
	}
	if cfg != nil {
		a.API = api.New(cfg.API.BaseURL, cfg.API.Token)
	}
	return a, nil
}

// RequireConfig fails commands that need the API when fieldline.yml is
// missing.
func (a *App) RequireConfig() error {
	if a.Config == nil || a.API == nil {
		return fmt.Errorf("fieldline.yml not found; create it with fl config init")
	}
	return nil
}

func (a *App) Close() error {
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	return a.DB.Close()
}
