// cmd/storefront/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	httpin "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/in/http"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/in/http/middleware"
	appcfg "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/config"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/di"
)

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.v.Load().(http.Handler).ServeHTTP(w, r)
}

// lifetime holds the container so shutdown and background init agree on who closes it.
type lifetime struct {
	mu       sync.Mutex
	cont     *di.Container
	shutdown bool
}

// adopt keeps c unless shutdown already began, in which case c is closed.
func (l *lifetime) adopt(c *di.Container) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.shutdown {
		_ = c.Close()
		return false
	}
	l.cont = c
	return true
}

func (l *lifetime) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shutdown = true
	if l.cont != nil {
		logx.Info().Msg("[boot] closing container resources...")
		if err := l.cont.Close(); err != nil {
			logx.Error().Err(err).Msg("[boot] container close error")
		}
		l.cont = nil
	}
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		logx.Fatal().Err(err).Msg("[boot] config")
	}
	logx.Init(logx.ParseEnvironment(cfg.AppEnv))

	// ─────────────────────────────────────────────────────────────
	// Start listening ASAP with lightweight mux (healthz only)
	// ─────────────────────────────────────────────────────────────
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	switcher := newAtomicHandler(middleware.CORS(cfg.CORSOrigin)(healthMux))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           switcher,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var life lifetime
	appCtx, stopApp := context.WithCancel(context.Background())

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────
	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		logx.Info().Str("signal", sig.String()).Msg("[boot] shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logx.Error().Err(err).Msg("[boot] server shutdown error")
		}

		stopApp()
		life.close()
		close(idleConnsClosed)
	}()

	go func() {
		logx.Info().Str("port", cfg.Port).Msg("[boot] listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logx.Fatal().Err(err).Msg("[boot] server error")
		}
	}()

	// ─────────────────────────────────────────────────────────────
	// DI init in background; then swap handler to the full router
	// ─────────────────────────────────────────────────────────────
	go func() {
		initCtx, cancel := context.WithTimeout(appCtx, 2*time.Minute)
		defer cancel()

		cont, err := di.NewContainer(initCtx, cfg)
		if err != nil {
			logx.Error().Err(err).Msg("[boot] di init failed (serving /healthz only)")
			return
		}
		if !life.adopt(cont) {
			return
		}
		cont.Start(appCtx)

		switcher.Store(httpin.NewRouter(cont.RouterDeps()))
		logx.Info().Str("catalog", cfg.CatalogBackend).Str("kv", cfg.KVDriver).Msg("[boot] handler switched to storefront router")
	}()

	<-idleConnsClosed
	logx.Info().Msg("[boot] server stopped")
}
