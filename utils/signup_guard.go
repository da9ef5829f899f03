package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// SignupGuard caps successful signups per client IP per day. It fails open
// when Redis is missing or unreachable.
type SignupGuard struct {
	client *redis.Client
	limit  int
	log    *zap.Logger
	now    func() time.Time
}

// NewSignupGuard creates a SignupGuard. A limit of zero or less disables it.
func NewSignupGuard(client *redis.Client, limit int, log *zap.Logger) *SignupGuard {
	return &SignupGuard{client: client, limit: limit, log: log, now: time.Now}
}

func (g *SignupGuard) key(ip string) string {
	return "reg:succday:" + ip + ":" + g.now().UTC().Format("20060102")
}

// Allow reports whether ip may sign up again today.
func (g *SignupGuard) Allow(ctx context.Context, ip string) bool {
	if g.client == nil || g.limit <= 0 {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	n, err := g.client.Get(ctx, g.key(ip)).Int()
	if err == redis.Nil {
		return true
	}
	if err != nil {
		g.log.Debug("signup guard lookup failed", zap.String("ip", ip), zap.Error(err))
		return true
	}
	return n < g.limit
}

// Record counts a successful signup for ip until the end of the UTC day.
func (g *SignupGuard) Record(ctx context.Context, ip string) {
	if g.client == nil || g.limit <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	key := g.key(ip)
	if err := g.client.Incr(ctx, key).Err(); err != nil {
		g.log.Debug("signup guard record failed", zap.String("ip", ip), zap.Error(err))
		return
	}
	now := g.now().UTC()
	_ = g.client.Expire(ctx, key, now.Truncate(24*time.Hour).Add(24*time.Hour).Sub(now)).Err()
}
