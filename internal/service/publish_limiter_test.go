package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type mockRedisEvaler struct {
	lastKeys []string
	lastArgs []interface{}
	result   int64
	err      error
}

func (m *mockRedisEvaler) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestMemoryPublishLimiter(t *testing.T) {
	l := NewPublishLimiter(time.Minute, 2)
	if !l.Allow("1.2.3.4") || !l.Allow("1.2.3.4") {
		t.Fatalf("expected first two to pass")
	}
	if l.Allow("1.2.3.4") {
		t.Fatalf("expected third to be limited")
	}
	if !l.Allow("5.6.7.8") {
		t.Fatalf("keys are independent")
	}
	if l.Allow("  ") {
		t.Fatalf("empty key rejected")
	}
	l.Close()
}

func TestMemoryPublishLimiter_RefillsAndEvictsIdleKeys(t *testing.T) {
	l := NewPublishLimiter(200*time.Millisecond, 1)
	defer l.Close()

	for i := 0; i < 100; i++ {
		if !l.Allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256)) {
			t.Fatalf("first publish of key %d should pass", i)
		}
	}
	if l.Allow("10.0.0.0") {
		t.Fatalf("second publish inside the window should be limited")
	}

	deadline := time.Now().Add(3 * time.Second)
	for l.Len() > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("idle keys never evicted: %d retained", l.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !l.Allow("10.0.0.0") {
		t.Fatalf("key should be allowed again after its window")
	}
}

func TestRedisPublishLimiter_Mock(t *testing.T) {
	t.Run("nil receiver fail-open", func(t *testing.T) {
		var l *redisPublishLimiter
		if !l.Allow("k") {
			t.Fatalf("expected fail-open")
		}
	})

	t.Run("window and key", func(t *testing.T) {
		mock := &mockRedisEvaler{result: 2}
		l := &redisPublishLimiter{client: mock, window: 2 * time.Minute, max: 3, prefix: "p:"}
		if !l.Allow(" 1.2.3.4 ") {
			t.Fatalf("expected allow")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "p:1.2.3.4" {
			t.Fatalf("unexpected keys: %v", mock.lastKeys)
		}
		if len(mock.lastArgs) != 1 || mock.lastArgs[0] != 120 {
			t.Fatalf("unexpected args: %v", mock.lastArgs)
		}
	})

	t.Run("over max", func(t *testing.T) {
		l := &redisPublishLimiter{client: &mockRedisEvaler{result: 4}, window: time.Minute, max: 3, prefix: "p:"}
		if l.Allow("k") {
			t.Fatalf("expected limited")
		}
	})

	t.Run("redis error fail-open", func(t *testing.T) {
		l := &redisPublishLimiter{client: &mockRedisEvaler{err: errors.New("down")}, window: time.Minute, max: 1, prefix: "p:"}
		if !l.Allow("k") {
			t.Fatalf("expected fail-open on error")
		}
	})
}

func TestRedisPublishLimiter_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisPublishLimiter(client, time.Minute, 1)
	if !l.Allow("ip") {
		t.Fatalf("first publish allowed")
	}
	if l.Allow("ip") {
		t.Fatalf("second publish limited")
	}
	mr.FastForward(61 * time.Second)
	if !l.Allow("ip") {
		t.Fatalf("window must reset")
	}
}
