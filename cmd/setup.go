package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/ridoystarlord/dbenforce/config"
	"github.com/ridoystarlord/dbenforce/database"
	"github.com/ridoystarlord/dbenforce/history"
	"github.com/ridoystarlord/dbenforce/loader"
	"github.com/ridoystarlord/dbenforce/runner"
	"github.com/ridoystarlord/dbenforce/schema"
	"github.com/ridoystarlord/dbenforce/utils"
	"github.com/ridoystarlord/dbenforce/validator"
)

// settings loads .env files and the config file and applies flag overrides. The
// result is not validated; offline commands never need a server address.
func settings() (*config.Config, zerolog.Logger, error) {
	if err := utils.LoadEnv(envFiles...); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load env: %w", err)
	}
	cfg, err := config.Read(configFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if manifestFile != "" {
		cfg.Manifest = manifestFile
	}
	if dsnFlag != "" {
		cfg.DSN = dsnFlag
	}
	if transport != "" {
		cfg.Transport = transport
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if noColor {
		cfg.Log.NoColor = true
	}
	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.NoColor)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// loadManifest reads and normalizes the manifest, printing warnings in yellow
func loadManifest(cfg *config.Config, log zerolog.Logger) (*schema.Manifest, error) {
	raw, err := loader.Load(cfg.Manifest)
	if err != nil {
		return nil, err
	}
	m, warnings, err := validator.Normalize(raw)
	for _, w := range warnings {
		log.Warn().Str("type", w.Type).Str("entity", w.Entity).Msg(w.Message)
		color.Yellow("⚠️  %s", w.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", cfg.Manifest, err)
	}
	return m, nil
}

// connection is an open transport plus whatever has to be closed with it
type connection struct {
	exec    database.Executor
	history history.Recorder
	closers []func() error
	log     zerolog.Logger
}

func (c *connection) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.log.Warn().Err(err).Msg("failed to close connection")
		}
	}
	c.closers = nil
}

func connect(ctx context.Context, cfg *config.Config, log zerolog.Logger, withHistory bool) (*connection, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	conn := &connection{log: log}

	switch cfg.Transport {
	case config.TransportCLI:
		conn.exec = &database.CLI{
			Binary:   cfg.CLI.Binary,
			Host:     cfg.CLI.Host,
			Port:     cfg.CLI.Port,
			User:     cfg.CLI.User,
			Password: cfg.CLI.Password,
		}
	default:
		db, err := database.OpenMySQL(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		conn.exec = db
		conn.closers = append(conn.closers, db.Close)
	}
	conn.exec = database.WithLogging(conn.exec, log)

	if withHistory {
		rec, err := history.Open(ctx, history.Config{
			Type:    cfg.History.Type,
			DSN:     cfg.History.DSN,
			Brokers: cfg.History.Brokers,
			Topic:   cfg.History.Topic,
		})
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("open history: %w", err)
		}
		if rec != nil {
			conn.history = rec
			conn.closers = append(conn.closers, rec.Close)
		}
	}
	return conn, nil
}

func newSession(cfg *config.Config, log zerolog.Logger, conn *connection) *runner.Session {
	return runner.NewSession(conn.exec, runner.Options{
		Logger:              log,
		PasswordColumn:      cfg.PasswordColumn,
		StatementsPerSecond: cfg.StatementsPerSecond,
		History:             conn.history,
		ManifestName:        strings.TrimSuffix(filepath.Base(cfg.Manifest), filepath.Ext(cfg.Manifest)),
	})
}
