// 命令行工具：种子导入、待复核清单、清空数据与离线路径查询
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"heritage-map/internal/config"
	"heritage-map/internal/gazetteer"
	"heritage-map/internal/geocode"
	"heritage-map/internal/heritage"
	"heritage-map/internal/importer"
	"heritage-map/internal/logger"
	"heritage-map/internal/route"
	"heritage-map/internal/store"
	"heritage-map/internal/timeutil"
	"heritage-map/internal/utils"
)

var rootCmd = &cobra.Command{
	Use:           "heritage-import",
	Short:         "Import and maintain heritage records",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("data", "env", ".env"))
		logger.Setup()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(seedCmd, reviewCmd, clearCmd, routeCmd)
}

// env：命令共用的依赖
type env struct {
	cfg   config.Config
	st    store.Store
	repo  *heritage.Repository
	queue *importer.Queue
	imp   *importer.Importer
}

func (e *env) Close() { _ = e.st.Close() }

func openEnv(ctx context.Context) (*env, error) {
	cfg := config.FromEnv()
	st, err := utils.OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	rc := utils.OpenRedis(cfg.Redis)
	if rc != nil {
		if err := rc.Ping(ctx).Err(); err != nil {
			logger.L().Warn("redis_ping_error", "err", err)
			rc = nil
		}
	}
	policy := heritage.DefaultPolicy()
	if cfg.PolicyFile != "" {
		if policy, err = heritage.LoadPolicy(cfg.PolicyFile); err != nil {
			st.Close()
			return nil, err
		}
	}
	var graph *route.Graph
	if cfg.RouteGraphFile != "" {
		if graph, err = route.LoadFile(cfg.RouteGraphFile); err != nil {
			st.Close()
			return nil, err
		}
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
	return &env{
		cfg:   cfg,
		st:    st,
		repo:  repo,
		queue: queue,
		imp:   importer.New(pipe, queue, repo, cache),
	}, nil
}
