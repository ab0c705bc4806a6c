package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// exerciseBackend runs the behaviour every Cache must share.
func exerciseBackend(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	key := "gemlock-test:" + t.Name()

	if err := c.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "payload" {
		t.Fatalf("Get = %q, hit %v, err %v", data, hit, err)
	}

	n, ok, err := Clear(ctx, c, "gemlock-test:")
	if err != nil || !ok || n < 1 {
		t.Fatalf("Clear = %d, ok %v, err %v", n, ok, err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Clear should miss")
	}

	if err := c.Set(ctx, key, []byte("again"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete should miss")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("GEMLOCK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GEMLOCK_TEST_REDIS_ADDR not set")
	}
	c, err := NewRedisCache(context.Background(), RedisOptions{Addr: addr})
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()
	exerciseBackend(t, c)
}

func TestMongoCache(t *testing.T) {
	uri := os.Getenv("GEMLOCK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("GEMLOCK_TEST_MONGO_URI not set")
	}
	c, err := NewMongoCache(context.Background(), MongoOptions{URI: uri, Database: "gemlock_test"})
	if err != nil {
		t.Fatalf("NewMongoCache: %v", err)
	}
	defer c.Close()
	exerciseBackend(t, c)
}

func TestFileCacheBackend(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	exerciseBackend(t, c)
}
