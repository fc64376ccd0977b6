package workers

import (
	"context"
	"dm-lab/errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// HTTPServerWorker serves handler on address until the context is canceled,
// then drains in-flight requests for at most shutdownTimeout.
type HTTPServerWorker struct {
	log             *slog.Logger
	address         string
	handler         http.Handler
	shutdownTimeout time.Duration
	listening       chan net.Addr
}

func NewHTTPServerWorker(log *slog.Logger, address string, handler http.Handler, shutdownTimeout time.Duration) *HTTPServerWorker {
	return &HTTPServerWorker{
		log:             log,
		address:         address,
		handler:         handler,
		shutdownTimeout: shutdownTimeout,
		listening:       make(chan net.Addr, 1),
	}
}

// Listening yields the bound address each time the worker starts listening.
func (w *HTTPServerWorker) Listening() <-chan net.Addr {
	return w.listening
}

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", w.address)
	if err != nil {
		return err
	}
	server := &http.Server{
		Handler:           w.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	select {
	case w.listening <- listener.Addr():
	default:
	}

	errChan := make(chan error, 1)
	go func() {
		w.log.Info("Starting HTTP server", "address", listener.Addr().String(), "at", time.Now().UTC())
		errChan <- server.Serve(listener)
	}()

	select {
	case err = <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	w.log.Info("Shutting down HTTP server gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		w.log.Warn("HTTP server shutdown incomplete", "error", err)
		_ = server.Close()
	}
	return nil
}
