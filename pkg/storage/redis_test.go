package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedisClient_Success(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr(), RedisOptions{PoolSize: 4, MaxRetries: 2})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	defer client.Close()

	if client.Options().PoolSize != 4 {
		t.Errorf("Expected pool size 4, got %d", client.Options().PoolSize)
	}
	if client.Options().MaxRetries != 2 {
		t.Errorf("Expected 2 retries, got %d", client.Options().MaxRetries)
	}

	if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("Expected set to succeed, got %v", err)
	}
	if got := mr.Exists("k"); !got {
		t.Error("Expected key to be stored in miniredis")
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url", RedisOptions{})
	if err == nil {
		t.Fatal("Expected error for invalid URL")
	}
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	_, err = NewRedisClient(context.Background(), "redis://"+addr, RedisOptions{})
	if err == nil {
		t.Fatal("Expected error when redis is down")
	}
}
