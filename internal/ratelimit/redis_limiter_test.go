package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisLimiter(t *testing.T, max int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisLimiter(client, max, window), mr
}

func TestRedisLimiterAllowUnderLimit(t *testing.T) {
	l, _ := newTestRedisLimiter(t, 3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("handshake %d should be allowed", i+1)
		}
	}
}

func TestRedisLimiterDenyOverLimit(t *testing.T) {
	l, _ := newTestRedisLimiter(t, 3, time.Hour)

	for i := 0; i < 3; i++ {
		l.Allow("1.2.3.4")
	}
	if l.Allow("1.2.3.4") {
		t.Fatal("4th handshake should be denied")
	}
}

func TestRedisLimiterKeysIndependent(t *testing.T) {
	l, _ := newTestRedisLimiter(t, 1, time.Hour)

	if !l.Allow("1.1.1.1") {
		t.Fatal("first key should be allowed")
	}
	if l.Allow("1.1.1.1") {
		t.Fatal("first key should now be denied")
	}
	if !l.Allow("2.2.2.2") {
		t.Fatal("second key should be allowed")
	}
}

func TestRedisLimiterWindowExpires(t *testing.T) {
	l, mr := newTestRedisLimiter(t, 1, time.Minute)

	l.Allow("1.2.3.4")
	if l.Allow("1.2.3.4") {
		t.Fatal("should be denied within window")
	}

	mr.FastForward(time.Minute + time.Second)

	if !l.Allow("1.2.3.4") {
		t.Fatal("should be allowed after window expires")
	}
}

func TestRedisLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	l := NewRedisLimiter(client, 1, time.Hour)

	mr.Close()

	if !l.Allow("1.2.3.4") {
		t.Fatal("limiter must fail open when redis is unreachable")
	}
}
