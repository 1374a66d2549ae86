package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/speedwagon-io/plantdash/internal/config"
	"github.com/speedwagon-io/plantdash/internal/dashapi"
	"github.com/speedwagon-io/plantdash/internal/health"
	"github.com/speedwagon-io/plantdash/internal/journal"
	"github.com/speedwagon-io/plantdash/internal/lib/logger/mqttlog"
	"github.com/speedwagon-io/plantdash/internal/lib/logger/sl"
	"github.com/speedwagon-io/plantdash/internal/metrics"
	"github.com/speedwagon-io/plantdash/internal/model"
	"github.com/speedwagon-io/plantdash/internal/page"
	"github.com/speedwagon-io/plantdash/internal/refresh"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	pageURL := flag.String("url", "", "page URL whose pot_id selects the plant")
	pagePath := flag.String("page", "", "page template, overrides page.template")
	outPath := flag.String("out", "", "write the refreshed page here instead of stdout")
	serve := flag.Bool("serve", false, "run the HTTP server instead of a single refresh")
	validate := flag.Bool("validate", false, "load the config and exit")
	flag.Parse()

	if *validate {
		path := config.ResolvePath(*configPath)
		if _, err := config.Load(path); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("config %s is valid\n", path)
		return
	}

	cfg := config.MustLoad(*configPath)

	var mqttClient mqtt.Client
	var logWriters []io.Writer
	var mqttErr error
	if cfg.Log.MQTT.Broker != "" {
		mqttClient, mqttErr = mqttlog.Connect(cfg.Log.MQTT.Broker, cfg.Log.MQTT.ClientID, 5*time.Second)
		if mqttErr == nil {
			logWriters = append(logWriters, mqttlog.NewWriter(mqttClient, cfg.Log.MQTT.ClientID))
		}
	}

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format, logWriters...)

	log.Info("starting plantdash refresher",
		slog.String("env", cfg.Env),
		slog.String("api", cfg.API.BaseURL),
		slog.Bool("serve", *serve),
	)
	if mqttErr != nil {
		log.Warn("mqtt log mirror disabled", sl.Err(mqttErr))
	}

	api := dashapi.NewClient(log, cfg.API.BaseURL, cfg.API.Timeout, cfg.API.Cookie)
	defer api.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	observers := refresh.Observers{metrics.NewProm(reg)}

	var jrnl *journal.SQLiteJournal
	if cfg.Journal.Enabled {
		var err error
		jrnl, err = journal.NewSQLiteJournal(log, cfg.Journal.Path)
		if err != nil {
			log.Error("failed to open journal", sl.Err(err))
			os.Exit(1)
		}
		observers = append(observers, jrnl)
		log.Info("journal enabled", slog.String("path", cfg.Journal.Path))
	}

	orch := refresh.New(log, api, refresh.WithObserver(observers))

	opts := page.DefaultOptions()
	opts.RowsTable = cfg.Page.RowsTable
	opts.RowAttr = cfg.Page.RowAttr

	templatePath := cfg.Page.Template
	if *pagePath != "" {
		templatePath = *pagePath
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received signal, shutting down", slog.String("signal", sig.String()))
		cancel()
	}()

	var code int
	if *serve {
		code = runServer(ctx, log, cfg, orch, api, reg, jrnl, templatePath, opts)
	} else {
		code = runOnce(ctx, log, cfg, orch, templatePath, opts, *pageURL, *outPath)
	}

	if jrnl != nil {
		if err := jrnl.Close(); err != nil {
			log.Error("failed to close journal", sl.Err(err))
		}
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}

	if code != 0 {
		os.Exit(code)
	}
}

func runOnce(
	ctx context.Context,
	log *slog.Logger,
	cfg *config.Config,
	orch *refresh.Orchestrator,
	templatePath string,
	opts page.Options,
	pageURL string,
	outPath string,
) int {
	entityID := cfg.Page.DefaultPotID
	if pageURL != "" {
		id, err := refresh.EntityIDFromURL(pageURL)
		if err != nil {
			log.Error("invalid page url", slog.String("url", pageURL), sl.Err(err))
			return 1
		}
		entityID = id
	}

	doc, err := page.ParseFile(templatePath, opts)
	if err != nil {
		log.Error("failed to load page template", slog.String("path", templatePath), sl.Err(err))
		return 1
	}

	report := orch.Run(ctx, doc, entityID)

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		log.Error("failed to render page", sl.Err(err))
		return 1
	}

	if outPath == "" {
		os.Stdout.Write(buf.Bytes())
	} else if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		log.Error("failed to write page", slog.String("path", outPath), sl.Err(err))
		return 1
	}

	log.Info("refresh complete",
		slog.String("run_id", report.RunID),
		slog.String("entity_id", entityID),
		slog.Int("ok", report.Total(model.StatusOK)),
		slog.Int("failed", report.Total(model.StatusFailed)),
		slog.Int("skipped", report.Total(model.StatusSkipped)),
	)

	return 0
}

func runServer(
	ctx context.Context,
	log *slog.Logger,
	cfg *config.Config,
	orch *refresh.Orchestrator,
	api *dashapi.Client,
	reg *prometheus.Registry,
	jrnl *journal.SQLiteJournal,
	templatePath string,
	opts page.Options,
) int {
	template, err := os.ReadFile(templatePath)
	if err != nil {
		log.Error("failed to read page template", slog.String("path", templatePath), sl.Err(err))
		return 1
	}

	dashboard := health.NewDashboardHandler(log, orch, template, opts, cfg.Page.DefaultPotID)
	server := health.NewServer(log, cfg.Server.Address,
		health.WithGatherer(reg),
		health.WithDashboard(dashboard),
	)
	server.AddChecker(health.NewUpstreamHealthChecker(api.Health))

	var janitor *journal.Janitor
	if jrnl != nil {
		server.AddChecker(health.NewJournalHealthChecker(jrnl.FailureCount, cfg.Journal.FailureThreshold))
		janitor = journal.NewJanitor(log, jrnl, cfg.Journal.MaxAge, cfg.Journal.CleanupInterval)
		janitor.Start(ctx)
	}

	if err := server.Start(); err != nil {
		log.Error("failed to start http server", sl.Err(err))
		return 1
	}

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("failed to stop http server", sl.Err(err))
	}
	if janitor != nil {
		janitor.Stop()
	}

	log.Info("refresher stopped")
	return 0
}
