package workers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestHTTPServerWorker_ServesUntilCanceled(t *testing.T) {
	req := require.New(t)
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	worker := NewHTTPServerWorker(logs.GetLoggerFromLevel(slog.LevelDebug), "127.0.0.1:0", handler, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	var address string
	select {
	case addr := <-worker.Listening():
		address = addr.String()
	case <-time.After(time.Second):
		req.FailNow("server never listened")
	}

	resp, err := http.Get("http://" + address)
	req.NoError(err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	req.NoError(err)
	req.Equal("pong", string(body))

	cancel()
	select {
	case err = <-done:
		req.NoError(err)
	case <-time.After(2 * time.Second):
		req.FailNow("server did not stop")
	}

	_, err = http.Get("http://" + address)
	req.Error(err)
}

func TestHTTPServerWorker_FailsOnBusyAddress(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	first := NewHTTPServerWorker(log, "127.0.0.1:0", http.NotFoundHandler(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = first.Run(ctx) }()
	addr := <-first.Listening()

	second := NewHTTPServerWorker(log, addr.String(), http.NotFoundHandler(), time.Second)
	req.Error(second.Run(ctx))
}
