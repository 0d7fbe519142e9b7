// 包 utils：数据库与 Redis 连接工具
package utils

import (
	"strconv"

	"github.com/redis/go-redis/v9"

	"heritage-map/internal/config"
	"heritage-map/internal/logger"
)

// OpenRedis：按配置打开 Redis 客户端；未启用时返回 nil
func OpenRedis(c config.Redis) *redis.Client {
	if !c.Enabled {
		return nil
	}
	addr := c.Host + ":" + strconv.Itoa(c.Port)
	logger.L().Debug("redis_env", "addr", addr, "db", c.DB)
	return redis.NewClient(&redis.Options{Addr: addr, Password: c.Password, DB: c.DB})
}
