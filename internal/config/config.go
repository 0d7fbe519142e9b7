// 包 config：集中读取环境变量并给出默认值；.env 由入口通过 godotenv 预先加载
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Postgres struct {
	Host         string
	Port         string
	User         string
	Password     string
	DB           string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type Redis struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type Gazetteer struct {
	URL       string
	UserAgent string
	Email     string
	Timeout   time.Duration
}

type Config struct {
	Addr    string
	APIBase string

	// StoreDriver：postgres / sqlite / memory
	StoreDriver string
	Postgres    Postgres
	SQLitePath  string
	Redis       Redis

	Gazetteer      Gazetteer
	Region         string
	Country        string
	LRUSize        int
	MissTTL        time.Duration
	ImportInterval time.Duration

	PolicyFile     string
	RouteGraphFile string

	RateLimitEnabled bool
	RateLimitQPS     int
}

// FromEnv：读取全部配置；非法数值静默回退到默认值
func FromEnv() Config {
	return Config{
		Addr:        getenv("ADDR", ":8080"),
		APIBase:     strings.TrimSuffix(getenv("API_BASE", "/api"), "/"),
		StoreDriver: strings.ToLower(getenv("STORE_DRIVER", "sqlite")),
		Postgres: Postgres{
			Host:         getenv("PG_HOST", "localhost"),
			Port:         getenv("PG_PORT", "5432"),
			User:         getenv("PG_USER", "postgres"),
			Password:     os.Getenv("PG_PASSWORD"),
			DB:           getenv("PG_DB", "heritage"),
			SSLMode:      getenv("PG_SSLMODE", "disable"),
			MaxOpenConns: getInt("PG_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getInt("PG_MAX_IDLE_CONNS", 10),
		},
		SQLitePath: getenv("SQLITE_PATH", "data/heritage.db"),
		Redis: Redis{
			Enabled:  os.Getenv("REDIS_HOST") != "",
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getInt("REDIS_PORT", 6379),
			Password: os.Getenv("REDIS_PASS"),
			DB:       getInt("REDIS_DB", 0),
			TTL:      time.Duration(getInt("REDIS_TTL_H", 24*30)) * time.Hour,
		},
		Gazetteer: Gazetteer{
			URL:       getenv("GAZETTEER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getenv("GAZETTEER_USER_AGENT", "heritage-map/1.0"),
			Email:     os.Getenv("GAZETTEER_EMAIL"),
			Timeout:   time.Duration(getInt("GAZETTEER_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
		Region:           getenv("GEOCODE_REGION", "Minas Gerais"),
		Country:          getenv("GEOCODE_COUNTRY", "Brasil"),
		LRUSize:          getInt("GEOCODE_LRU_SIZE", 4096),
		MissTTL:          time.Duration(getInt("GEOCODE_MISS_TTL_H", 24*7)) * time.Hour,
		ImportInterval:   time.Duration(getInt("IMPORT_INTERVAL_MS", 1100)) * time.Millisecond,
		PolicyFile:       os.Getenv("POLICY_FILE"),
		RouteGraphFile:   os.Getenv("ROUTE_GRAPH_FILE"),
		RateLimitEnabled: os.Getenv("RATE_LIMIT_ENABLED") == "true",
		RateLimitQPS:     getInt("RATE_LIMIT_QPS", 50),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
