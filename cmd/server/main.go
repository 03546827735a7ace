package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeOCE/MBSync/internal/api"
	"github.com/codeOCE/MBSync/internal/config"
	"github.com/codeOCE/MBSync/internal/pipeline"
	"github.com/codeOCE/MBSync/internal/report"
	"github.com/codeOCE/MBSync/internal/session"
	"github.com/codeOCE/MBSync/internal/sheet"
	"github.com/codeOCE/MBSync/internal/sqlite"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize storage.
	dbPath, err := cfg.DatabasePath()
	if err != nil {
		log.Error("resolve database path", "error", err)
		os.Exit(1)
	}
	db, err := sqlite.OpenDB(dbPath)
	if err != nil {
		log.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	if err := sqlite.Migrate(ctx, db); err != nil {
		log.Error("migrate database", "error", err)
		os.Exit(1)
	}
	sessions := session.NewService(session.NewStore(db), log)

	// Initialize parser and form writer.
	schema, err := report.LoadSchemaFile(cfg.SchemaFile())
	if err != nil {
		log.Error("load column schema", "error", err)
		os.Exit(1)
	}
	parser := report.NewParser(schema, log)
	forms := sheet.NewWriter(sheet.Template{
		Path:         cfg.TemplatePath,
		SheetName:    cfg.SheetName,
		HeaderAnchor: cfg.HeaderAnchor,
		HeaderRow:    cfg.HeaderRow,
		ClearRows:    cfg.ClearRows,
	}, log)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, parser, sessions, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, sessions, forms, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown. Stop accepting uploads first, then drain workers,
	// then close storage.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown", "error", err)
		}

		orch.Stop()

		if err := db.Close(); err != nil {
			log.Error("close database", "error", err)
		}
	}()

	log.Info("starting mbsync", "port", cfg.Port, "db", dbPath, "template", cfg.TemplatePath)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}
