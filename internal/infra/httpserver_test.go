package infra

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServerRunDrainsOnCancel(t *testing.T) {
	cfg := &Config{
		Port:                "0",
		HTTPReadTimeout:     time.Second,
		HTTPWriteTimeout:    time.Second,
		HTTPIdleTimeout:     time.Second,
		HTTPShutdownTimeout: time.Second,
	}
	srv := NewHTTPServer(cfg, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error after cancel: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestHTTPServerRunReportsListenFailure(t *testing.T) {
	cfg := &Config{
		Port:                "not-a-port",
		HTTPShutdownTimeout: time.Second,
	}
	srv := NewHTTPServer(cfg, http.NotFoundHandler())

	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("Run should surface the listener error")
	}
}
