package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeUntilDone_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serveUntilDone(ctx, srv, zerolog.Nop()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServeUntilDone_ListenError(t *testing.T) {
	srv := &http.Server{Addr: "not-an-address", Handler: http.NotFoundHandler()}

	err := serveUntilDone(context.Background(), srv, zerolog.Nop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server failed")
}

func TestBootstrap_LoadsDefaults(t *testing.T) {
	t.Setenv("VI_LOG_LEVEL", "debug")

	cfg, _, err := bootstrap("")

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "NGN", cfg.Withdrawal.Currency)
}
