package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/delaneyj/trackstate/pkg/metrics"
	"github.com/delaneyj/trackstate/pkg/store"
	"github.com/delaneyj/trackstate/reactive"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const addrKey = "addr"

var (
	visitorsKey = reactive.NewKey[int]("visitors")
	requestsKey = reactive.NewKey[int]("requests")
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve a stored counter over HTTP and WebSocket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: addrKey, Usage: "Listen address; overrides the config file"},
			&cli.StringFlag{Name: keyKey, Usage: "Store key of the counter", Value: "serve:counter"},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if addr := cmd.String(addrKey); addr != "" {
		cfg.Serve.Addr = addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(metrics.WithRegistry(reg))

	st, closeStore, err := openStore(cfg.Store, logger, collector)
	if err != nil {
		return err
	}
	defer closeStore()

	rt := reactive.NewRuntime(
		reactive.WithLogger(logger),
		reactive.WithHooks(collector.Hooks()),
		reactive.WithContext(ctx),
	)
	srv := newServer(rt, st, cmd.String(keyKey), logger)

	httpServer := &http.Server{
		Addr:              cfg.Serve.Addr,
		Handler:           srv.routes(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := rt.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("serving", "addr", cfg.Serve.Addr, "backend", cfg.Store.Backend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// server owns the reactive state behind the HTTP surface. Handlers never
// touch signals directly; they hop onto the runtime goroutine with Call.
type server struct {
	rt       *reactive.Runtime
	logger   *slog.Logger
	counter  *reactive.Stored[int]
	visitors *reactive.Signal[int]
	requests *reactive.Signal[int]
	upgrader websocket.Upgrader
}

// newServer must run on the runtime goroutine, or before Run starts.
func newServer(rt *reactive.Runtime, st store.Store, key string, logger *slog.Logger) *server {
	return &server{
		rt:       rt,
		logger:   logger,
		counter:  reactive.NewStored(rt, st, key, 0),
		visitors: reactive.MustShared(rt, visitorsKey, 0),
		requests: reactive.MustShared(rt, requestsKey, 0),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *server) routes(reg *prometheus.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.countRequests)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/signals", s.handleSignals)
	r.Get("/counter", s.handleGetCounter)
	r.Post("/counter", s.handleIncrement)
	r.Get("/ws", s.handleWebSocket)
	return r
}

func (s *server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.rt.Enqueue(func() { s.requests.Update(func(v int) int { return v + 1 }) })
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type signalInfo struct {
	Key       string `json:"key"`
	Listeners int    `json:"listeners"`
	Value     int    `json:"value"`
}

func (s *server) handleSignals(w http.ResponseWriter, r *http.Request) {
	var out struct {
		Keys    []string     `json:"keys"`
		Signals []signalInfo `json:"signals"`
	}
	err := s.rt.Call(r.Context(), func() {
		out.Keys = s.rt.Registry().Keys()
		for _, sig := range []*reactive.Signal[int]{s.visitors, s.requests, s.counter.Signal} {
			out.Signals = append(out.Signals, signalInfo{Key: sig.Label(), Listeners: sig.Listeners(), Value: sig.Peek()})
		}
	})
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleGetCounter(w http.ResponseWriter, r *http.Request) {
	var v int
	if err := s.rt.Call(r.Context(), func() { v = s.counter.Peek() }); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"value": v})
}

// handleIncrement answers once the new value is durable. A request that ends
// before the runtime picks it up leaves the counter untouched.
func (s *server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	var (
		v       int
		pending *reactive.Pending
	)
	err := s.rt.Call(r.Context(), func() {
		pending = s.counter.Update(func(v int) int { return v + 1 })
		v = s.counter.Peek()
	})
	if err == nil {
		err = pending.Wait(r.Context())
	}
	if err != nil {
		s.logger.Warn("increment failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"value": v, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"value": v})
}

type counterMessage struct {
	Value    int `json:"value"`
	Visitors int `json:"visitors"`
}

// handleWebSocket streams the counter to the client. Each connection gets
// its own scope holding the watchers; closing the socket disposes it.
func (s *server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	updates := make(chan counterMessage, 16)
	var scope *reactive.Scope
	err = s.rt.Call(r.Context(), func() {
		s.visitors.Update(func(v int) int { return v + 1 })
		send := func(int) {
			msg := counterMessage{Value: s.counter.Peek(), Visitors: s.visitors.Peek()}
			select {
			case updates <- msg:
			default:
				s.logger.Debug("websocket client is slow, dropping update")
			}
		}
		scope = s.rt.Mount(func(sc *reactive.Scope) {
			reactive.Watch(s.rt, s.counter, send)
			reactive.Watch(s.rt, s.visitors, send)
		})
		send(0)
	})
	if err != nil {
		return
	}
	defer func() {
		// the runtime may already be stopped during shutdown
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.rt.Call(ctx, func() {
			scope.Dispose()
			s.visitors.Update(func(v int) int { return v - 1 })
		})
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-updates:
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
