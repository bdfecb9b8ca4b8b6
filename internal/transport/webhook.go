package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const maxUpdateBytes = 1 << 20

// Webhook receives one pushed update per request.
type Webhook struct {
	dispatcher
	path string
}

func NewWebhook(path string, handler Handler, dedup Deduper, log *zap.Logger) *Webhook {
	return &Webhook{
		dispatcher: dispatcher{handler: handler, dedup: dedup, log: log},
		path:       path,
	}
}

// Register tells Telegram where to push updates.
func Register(api interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}, endpoint string) error {
	wh, err := tgbotapi.NewWebhook(endpoint)
	if err != nil {
		return fmt.Errorf("transport.Register: %w", err)
	}

	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("transport.Register: %w", err)
	}

	return nil
}

// Mount adds the webhook route to mux.
func (w *Webhook) Mount(mux *http.ServeMux) {
	mux.HandleFunc("POST "+w.path, w.serveUpdate)
}

// serveUpdate answers 200 once the update is handled and 500 when the body
// cannot be read, so Telegram retries only undecodable deliveries.
func (w *Webhook) serveUpdate(rw http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(rw, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		w.log.Error("failed to decode webhook update", zap.Error(err))
		http.Error(rw, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Telegram may drop the connection on slow completions; the update is
	// still handled to the end.
	w.dispatch(context.WithoutCancel(r.Context()), update)

	rw.WriteHeader(http.StatusOK)
	_, _ = rw.Write([]byte("OK"))
}

// NewMux returns a mux with the health route.
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("Bot is alive!"))
	})

	return mux
}

// Serve runs an HTTP server until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("transport.Serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("transport.Serve: shutdown: %w", err)
		}
		return nil
	}
}
