package main

import (
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"coursegrid/internal/capture"
	"coursegrid/internal/config"
	"coursegrid/internal/export"
	"coursegrid/internal/ics"
	"coursegrid/internal/importer"
	appLog "coursegrid/internal/log"
	"coursegrid/internal/metrics"
	"coursegrid/internal/schedule"
	"coursegrid/internal/store"
	"coursegrid/internal/web"
)

const version = "0.3.0"

type flagConfig struct {
	configPath string
	envFile    string
	listen     string
	importPath string
	format     string
	exportPath string
	snapshot   string
	week       int
	once       bool
}

func main() {
	flags := parseFlags()

	if err := config.LoadDotEnv(flags.envFile); err != nil {
		appLog.Error("failed to read env file", err, "path", flags.envFile)
	}

	configPath := config.ResolvePath(flags.configPath, "./config.yaml")
	conf, err := config.Load(configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", configPath)
		os.Exit(1)
	}
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.Configure(appLog.Options{Level: conf.Log.Level, Format: conf.Log.Format})
	defer appLog.Sync()

	appLog.Info("coursegrid starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"periods", len(conf.Periods),
		"storage_dir", conf.Storage.Dir,
		"redis", conf.Storage.RedisAddr != "",
		"subscription", conf.Subscription.URL != "",
		"refresh", conf.Subscription.RefreshCron,
		"once", flags.once,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, conf, flags); err != nil {
		appLog.Error("coursegrid failed", err)
		appLog.Sync()
		os.Exit(1)
	}
	appLog.Info("coursegrid exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "", "Path to config file (default $COURSEGRID_CONFIG or ./config.yaml)")
	flag.StringVar(&cfg.envFile, "env", ".env", "Path to a .env file with COURSEGRID_* overrides")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.importPath, "import", "", "Import a timetable file, replacing the stored courses")
	flag.StringVar(&cfg.format, "format", "", "Import format: ics, json, csv, text (default: from file extension)")
	flag.StringVar(&cfg.exportPath, "export", "", "Write the courses to this file; format from the extension (json, csv, ics, xlsx)")
	flag.StringVar(&cfg.snapshot, "snapshot", "", "Write a PNG of the weekly grid to this path (needs Chromium)")
	flag.IntVar(&cfg.week, "week", 0, "Week for -snapshot (default: the current week from settings)")
	flag.BoolVar(&cfg.once, "once", false, "Run the requested import/export/snapshot (and one subscription refresh) and exit")

	flag.Parse()
	return cfg
}

func run(ctx context.Context, conf *config.Config, flags flagConfig) error {
	st, closeStore, err := openStore(ctx, conf.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	m := metrics.New()
	svc := schedule.NewService(schedule.Options{
		Store:    st,
		Periods:  conf.Periods,
		Groups:   conf.AgendaGroups,
		Settings: conf.Display,
		Metrics:  m,
	})
	if err := svc.Load(ctx); err != nil {
		return err
	}

	var refresher *schedule.Refresher
	if conf.Subscription.URL != "" {
		fetcher := ics.NewFetcher(conf.Subscription.CacheDir, nil)
		refresher = schedule.NewRefresher(svc, fetcher, conf.Subscription.URL)
	}

	if flags.importPath != "" {
		if err := importFile(ctx, svc, flags.importPath, flags.format); err != nil {
			return err
		}
	}

	server := web.NewServer(conf, svc, web.Options{
		Metrics: m,
		Capture: captureFunc(conf, gridBaseURL(conf.Listen)),
	})

	if flags.once {
		if refresher != nil {
			if err := refresher.Run(ctx); err != nil {
				appLog.Error("subscription refresh failed", err)
			}
		}
		if flags.exportPath != "" {
			if err := exportFile(svc, flags.exportPath); err != nil {
				return err
			}
		}
		if flags.snapshot != "" {
			return snapshotOnce(ctx, conf, server.Handler(), flags.snapshot, flags.week)
		}
		return nil
	}

	if flags.exportPath != "" {
		if err := exportFile(svc, flags.exportPath); err != nil {
			return err
		}
	}

	if refresher != nil {
		c, err := refresher.Schedule(conf.Subscription.RefreshCron)
		if err != nil {
			return err
		}
		go func() {
			if err := refresher.Run(ctx); err != nil {
				appLog.Error("initial subscription refresh failed", err)
			}
		}()
		c.Start()
		defer c.Stop()
	}

	return serve(ctx, conf.Listen, server.Handler())
}

// openStore always keeps a file store under conf.Dir; Redis, when set, is
// used first with the file store as fallback.
func openStore(ctx context.Context, conf config.StorageConfig) (store.Store, func(), error) {
	files, err := store.NewFileStore(conf.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open file store: %w", err)
	}
	if conf.RedisAddr == "" {
		return files, func() {}, nil
	}

	rs, err := store.NewRedisStore(ctx, store.RedisOptions{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
		Prefix:   conf.RedisPrefix,
	})
	if err != nil {
		appLog.Error("redis unavailable, using file store only", err, "addr", conf.RedisAddr)
		return files, func() {}, nil
	}
	closeFn := func() {
		if err := rs.Close(); err != nil {
			appLog.Error("closing redis failed", err)
		}
	}
	return store.NewFallback(rs, files), closeFn, nil
}

func importFile(ctx context.Context, svc *schedule.Service, path, formatFlag string) error {
	var (
		format importer.Format
		err    error
	)
	if formatFlag != "" {
		format, err = importer.ParseFormat(formatFlag)
	} else {
		format, err = importer.DetectFormat(path)
	}
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	courses, err := svc.Import(ctx, format, data)
	if err != nil {
		return err
	}
	appLog.Info("imported timetable", "path", path, "format", format, "course_count", len(courses))
	return nil
}

func exportFile(svc *schedule.Service, path string) error {
	format, err := export.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	data, err := export.Render(format, export.Input{
		Courses:  svc.Courses(),
		Settings: svc.Settings(),
		Periods:  svc.Periods(),
		Now:      time.Now(),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	appLog.Info("exported timetable", "path", path, "format", format, "bytes", len(data))
	return nil
}

// snapshotOnce serves the handler on a loopback port just long enough to
// capture /grid.
func snapshotOnce(ctx context.Context, conf *config.Config, h http.Handler, path string, week int) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	opts := captureOptions(conf, "http://"+ln.Addr().String(), week)
	if err := capture.GridPNGToFile(ctx, opts, path); err != nil {
		return err
	}
	appLog.Info("snapshot written", "path", path, "url", opts.URL)
	return nil
}

func captureFunc(conf *config.Config, baseURL string) web.CaptureFunc {
	return func(ctx context.Context, week int) ([]byte, error) {
		return capture.GridPNG(ctx, captureOptions(conf, baseURL, week))
	}
}

func captureOptions(conf *config.Config, baseURL string, week int) capture.Options {
	url := baseURL + "/grid"
	if week > 0 {
		url = fmt.Sprintf("%s?week=%d", url, week)
	}
	opts := capture.Options{
		URL:     url,
		Width:   conf.Snapshot.Width,
		Height:  conf.Snapshot.Height,
		Timeout: time.Duration(conf.Snapshot.TimeoutSec) * time.Second,
	}
	if ba := conf.BasicAuth; ba != nil && ba.Username != "" && ba.Password != "" {
		token := base64.StdEncoding.EncodeToString([]byte(ba.Username + ":" + ba.Password))
		opts.Headers = map[string]string{"Authorization": "Basic " + token}
	}
	return opts
}

// gridBaseURL turns a listen address into a URL the local browser can
// reach; wildcard hosts become loopback.
func gridBaseURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func serve(ctx context.Context, listen string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		appLog.Info("signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
