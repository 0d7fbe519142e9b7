// 包 logger：统一初始化与获取日志器；通过环境变量控制日志级别与输出格式
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	mu            sync.RWMutex
	defaultLogger *slog.Logger
)

// parseLevel：LOG_LEVEL 取值 debug/info/warn/error，其余按 info 处理
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New：按级别与格式构建日志器，输出到 w
// 约束：format 仅识别 json，其余均为 text
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if strings.ToLower(format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("service", "heritage-map")
}

// Setup：初始化进程级默认日志器（标准错误输出）
func Setup() *slog.Logger {
	l := New(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	Set(l)
	return l
}

// Set：替换默认日志器，测试中用于静音或捕获输出
func Set(l *slog.Logger) {
	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

// L：获取默认日志器；未初始化时回退到 Setup
func L() *slog.Logger {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if l == nil {
		return Setup()
	}
	return l
}
