// Package health reports whether the server's dependencies are reachable.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const checkTimeout = time.Second

// Checker represents a dependency health check.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// Service aggregates dependency checkers.
type Service struct {
	checkers []Checker
}

func NewService(checkers ...Checker) *Service {
	return &Service{checkers: checkers}
}

// Ready returns the first failing check, prefixed with its name.
func (s *Service) Ready(ctx context.Context) error {
	for _, ch := range s.checkers {
		if err := ch.Check(ctx); err != nil {
			return fmt.Errorf("%s: %w", ch.Name(), err)
		}
	}
	return nil
}

// Report runs every check and returns "ok" or the error text per name.
func (s *Service) Report(ctx context.Context) map[string]string {
	out := make(map[string]string, len(s.checkers))
	for _, ch := range s.checkers {
		if err := ch.Check(ctx); err != nil {
			out[ch.Name()] = err.Error()
			continue
		}
		out[ch.Name()] = "ok"
	}
	return out
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// PostgresChecker pings the database pool.
type PostgresChecker struct {
	db pinger
}

func NewPostgresChecker(db pinger) *PostgresChecker {
	return &PostgresChecker{db: db}
}

func (c *PostgresChecker) Name() string { return "postgres" }

func (c *PostgresChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return c.db.PingContext(ctx)
}

// RedisChecker pings the session store.
type RedisChecker struct {
	rdb *redis.Client
}

func NewRedisChecker(rdb *redis.Client) *RedisChecker {
	return &RedisChecker{rdb: rdb}
}

func (c *RedisChecker) Name() string { return "redis" }

func (c *RedisChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}
