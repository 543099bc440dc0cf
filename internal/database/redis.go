package database

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// RedisConfig holds the connection settings for the cache that backs
// idempotency keys, bill QR codes, token revocation and the statement batch
// lock. Every lookup sits on a request path, so timeouts are short.
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// GetRedisConfig returns redis configuration with defaults
func GetRedisConfig() *RedisConfig {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 20)
	viper.SetDefault("redis.dial_timeout", 2*time.Second)
	viper.SetDefault("redis.read_timeout", 500*time.Millisecond)
	viper.SetDefault("redis.write_timeout", 500*time.Millisecond)

	return &RedisConfig{
		Host:         viper.GetString("redis.host"),
		Port:         viper.GetString("redis.port"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		PoolSize:     viper.GetInt("redis.pool_size"),
		DialTimeout:  viper.GetDuration("redis.dial_timeout"),
		ReadTimeout:  viper.GetDuration("redis.read_timeout"),
		WriteTimeout: viper.GetDuration("redis.write_timeout"),
	}
}

func (c *RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// InitRedis connects to Redis. It returns nil when Redis is unreachable:
// transfers then run without idempotency keys, the statement batch runs
// without its lock, and QR codes and token revocation answer 503.
func InitRedis(ctx context.Context, config *RedisConfig) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr(),
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[REDIS] %s unreachable, continuing without it: %v", config.Addr(), err)
		rdb.Close()
		return nil
	}

	log.Printf("[REDIS] Connected to %s", config.Addr())
	return rdb
}
