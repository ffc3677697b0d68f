package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/dd0wney/campusnav/pkg/api"
	"github.com/dd0wney/campusnav/pkg/audit"
	"github.com/dd0wney/campusnav/pkg/config"
	"github.com/dd0wney/campusnav/pkg/editor"
	"github.com/dd0wney/campusnav/pkg/logging"
	"github.com/dd0wney/campusnav/pkg/metrics"
	"github.com/dd0wney/campusnav/pkg/server"
	"github.com/dd0wney/campusnav/pkg/snapshot"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewDefaultLogger().Error("invalid configuration", logging.Error(err))
		os.Exit(1)
	}

	logger := logging.NewFromConfig(os.Stdout, cfg.Logging.Level)
	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", logging.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger logging.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("campusnav server starting",
		logging.String("version", version),
		logging.String("snapshot", cfg.Snapshot.Location))

	store, err := snapshot.Open(ctx, cfg.Snapshot.Location, snapshot.OpenOptions{
		S3: snapshot.S3Options{
			Region:          cfg.Snapshot.S3.Region,
			Endpoint:        cfg.Snapshot.S3.Endpoint,
			AccessKeyID:     cfg.Snapshot.S3.AccessKeyID,
			SecretAccessKey: cfg.Snapshot.S3.SecretAccessKey,
			UsePathStyle:    cfg.Snapshot.S3.UsePathStyle,
		},
	})
	if err != nil {
		return err
	}
	defer store.Close()

	registry := metrics.DefaultRegistry()
	holder := snapshot.NewHolder(store,
		snapshot.WithLogger(logger.With(logging.Component("snapshot"))),
		snapshot.WithMetrics(registry),
		snapshot.WithBuildOptions(snapshot.BuildOptions{
			AllowInvalid:  cfg.Snapshot.AllowInvalid,
			ShortSegmentM: cfg.Snapshot.ShortSegmentM,
		}),
	)

	// A missing document is fine when the editor can publish one
	if _, err := holder.Reload(ctx); err != nil {
		if !errors.Is(err, snapshot.ErrNotFound) || !cfg.Editor.Enabled {
			return err
		}
		logger.Warn("no campus snapshot yet, waiting for the editor to publish one")
	}

	if cfg.Snapshot.Watch {
		if err := holder.Watch(ctx, cfg.Snapshot.WatchDebounce); err != nil {
			return err
		}
	}

	var (
		session *editor.Session
		history *audit.AuditLogger
	)
	if cfg.Editor.Enabled {
		history = audit.NewAuditLogger(cfg.Editor.HistorySize)
		session = editor.NewSession(
			editor.WithLogger(logger.With(logging.Component("editor"))),
			editor.WithRecorder(registry),
			editor.WithAuditLog(history),
			editor.WithEditedBy(cfg.Editor.EditedBy),
			editor.WithShortSegmentM(cfg.Snapshot.ShortSegmentM),
		)
		if snap := holder.Current(); snap != nil {
			if err := session.Load(snap.Graph.Document()); err != nil {
				return err
			}
		}
		logger.Info("editor enabled", logging.String("edited_by", cfg.Editor.EditedBy))
	}

	apiServer, err := api.NewServer(api.Options{
		Holder:  holder,
		Editor:  session,
		History: history,
		Config:  cfg,
		Logger:  logger,
		Metrics: registry,
		Version: version,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				registry.UpdateSystemMetrics(start)
			}
		}
	}()

	gs := server.NewGracefulServer(cfg.Addr(), apiServer.Handler(), logger)
	gs.SetShutdownTimeout(cfg.Server.ShutdownTimeout)
	gs.SetReloadFunc(func(ctx context.Context) error {
		_, err := holder.Reload(ctx)
		return err
	})
	return gs.Start()
}
