// 包 middleware：入口限流
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"heritage-map/internal/logger"
	"heritage-map/internal/metrics"
)

// TokenBucket：按秒补满的令牌桶
// 约束：不排队，令牌耗尽直接返回 429
type TokenBucket struct {
	capacity int
	tokens   int
	lastSec  int64
	mu       sync.Mutex
}

func (tb *TokenBucket) allow(nowSec int64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if tb.lastSec != nowSec {
		tb.lastSec = nowSec
		tb.tokens = tb.capacity
	}
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) idle(nowSec int64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return nowSec-tb.lastSec > 60
}

// Limiter：每个客户端地址一个令牌桶
type Limiter struct {
	qps int
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*TokenBucket
}

// sweepAt：桶数量超过该值时顺带清理一分钟未活动的桶
const sweepAt = 4096

func NewLimiter(qps int) *Limiter {
	if qps <= 0 {
		qps = 50
	}
	return &Limiter{qps: qps, now: time.Now, buckets: make(map[string]*TokenBucket)}
}

// Allow：key 通常为客户端 IP
func (l *Limiter) Allow(key string) bool {
	sec := l.now().Unix()
	l.mu.Lock()
	tb, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= sweepAt {
			for k, b := range l.buckets {
				if b.idle(sec) {
					delete(l.buckets, k)
				}
			}
		}
		tb = &TokenBucket{capacity: l.qps, tokens: l.qps, lastSec: sec}
		l.buckets[key] = tb
	}
	l.mu.Unlock()
	return tb.allow(sec)
}

// Wrap：限流中间件；enabled 为 false 时原样返回
func Wrap(enabled bool, qps int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		lim := NewLimiter(qps)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			if !lim.Allow(ip) {
				metrics.RateLimitedTotal.Inc()
				logger.L().Debug("rate_limited", "ip", ip, "path", r.URL.Path)
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP：优先常见反向代理头，其次连接地址
func ClientIP(r *http.Request) string {
	h := r.Header
	if x := h.Get("x-forwarded-for"); x != "" {
		return strings.TrimSpace(strings.Split(x, ",")[0])
	}
	for _, k := range []string{"cf-connecting-ip", "x-real-ip", "x-client-ip"} {
		if x := h.Get(k); x != "" {
			return x
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
