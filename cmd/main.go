// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"heritage-map/internal/api"
	"heritage-map/internal/config"
	"heritage-map/internal/gazetteer"
	"heritage-map/internal/geocode"
	"heritage-map/internal/heritage"
	"heritage-map/internal/importer"
	"heritage-map/internal/logger"
	"heritage-map/internal/metrics"
	"heritage-map/internal/middleware"
	"heritage-map/internal/route"
	"heritage-map/internal/timeutil"
	"heritage-map/internal/utils"
	"heritage-map/internal/version"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
	l := logger.Setup()
	l.Debug("log_init_ok")
	cfg := config.FromEnv()
	l.Debug("config_api_base", "base", cfg.APIBase)

	st, err := utils.OpenStore(cfg)
	if err != nil {
		l.Error("store_open_error", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	rc := utils.OpenRedis(cfg.Redis)
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(context.Background()).Err(); err != nil {
		// 背景：Redis 只是缓存的中间层，不可达时退化为进程内 + 持久化两级
		l.Error("redis_ping_error", "err", err)
		rc = nil
	} else {
		l.Info("redis_ping_ok")
	}

	policy := heritage.DefaultPolicy()
	if cfg.PolicyFile != "" {
		if policy, err = heritage.LoadPolicy(cfg.PolicyFile); err != nil {
			l.Error("policy_load_error", "path", cfg.PolicyFile, "err", err)
			os.Exit(1)
		}
		l.Info("policy_loaded", "path", cfg.PolicyFile, "municipalities", len(policy.Municipalities))
	}

	var graph *route.Graph
	if cfg.RouteGraphFile != "" {
		if graph, err = route.LoadFile(cfg.RouteGraphFile); err != nil {
			l.Error("route_graph_error", "path", cfg.RouteGraphFile, "err", err)
			os.Exit(1)
		}
		l.Info("route_graph_ready", "waypoints", graph.Len())
	} else {
		l.Info("route_graph_disabled")
	}

	gz := gazetteer.New(cfg.Gazetteer, &http.Client{Timeout: cfg.Gazetteer.Timeout})
	cache := geocode.New(st, gz, geocode.Normalizer{Region: cfg.Region, Country: cfg.Country}, geocode.Options{
		LRUSize:  cfg.LRUSize,
		Redis:    rc,
		RedisTTL: cfg.Redis.TTL,
		MissTTL:  cfg.MissTTL,
	})
	repo := heritage.NewRepository(st)
	pipe := importer.NewPipeline(repo, cache, policy, graph)
	queue := importer.NewQueue(pipe, timeutil.RealClock{}, cfg.ImportInterval)
	imp := importer.New(pipe, queue, repo, cache)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		if err := queue.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Error("import_queue_stopped", "err", err)
		}
	}()

	r := chi.NewRouter()
	r.Use(logger.AccessMiddleware(l))
	r.Use(middleware.Wrap(cfg.RateLimitEnabled, cfg.RateLimitQPS))
	r.Mount(cfg.APIBase, api.Routes(api.Deps{
		Repo:     repo,
		Graph:    graph,
		Importer: imp,
		Sessions: api.NewSessions(repo),
	}))
	r.Handle(cfg.APIBase+"/metrics", metrics.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("content-type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok","commit":"` + version.Commit + `"}`))
	})

	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	r.Get("/config.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + version.Commit + "'"))
	})
	ui := os.Getenv("UI_DIST")
	if ui == "" {
		ui = filepath.Join("ui", "dist")
	}
	if _, err := os.Stat(ui); err == nil {
		l.Debug("config_ui_dir", "dir", ui)
		r.Handle("/*", http.FileServer(http.Dir(ui)))
	}

	s := &http.Server{Addr: cfg.Addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if n := queue.Len(); n > 0 {
			l.Warn("import_backlog_abandoned", "count", n)
		}
		_ = s.Shutdown(shutdownCtx)
	}()
	l.Info("listening", "addr", cfg.Addr, "commit", version.Commit)
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown_ok")
}
