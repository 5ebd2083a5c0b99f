package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/njchilds90/quasiscf/dae"
	"github.com/njchilds90/quasiscf/internal/config"
	"github.com/njchilds90/quasiscf/pairs"
	sym "github.com/njchilds90/quasiscf/symbolic"
)

const maxBodyBytes = 1 << 20 // 1 MiB

var errBadRequest = errors.New("bad request")

type pairRequest struct {
	Pair string `json:"pair"`
}

type reduceRequest struct {
	Pair      string             `json:"pair"`
	Projector bool               `json:"projector"`
	Samples   []float64          `json:"samples"`
	Params    map[string]float64 `json:"params"`
}

type diagnostic struct {
	Name   string `json:"name"`
	Matrix string `json:"matrix"`
}

type errorResponse struct {
	Error       string       `json:"error"`
	Stage       string       `json:"stage,omitempty"`
	Iteration   int          `json:"iteration,omitempty"`
	Diagnostics []diagnostic `json:"diagnostics,omitempty"`
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve reductions over HTTP",
		Long: `Starts an HTTP server with JSON endpoints:

  GET  /health    liveness check
  GET  /pairs     the built-in pairs
  POST /verify    {"pair": "..."}
  POST /reduce    {"pair": "...", "projector": true, "samples": [0.5], "params": {...}}

Reduction failures answer 422 with the stage, iteration and offending
matrices. The server stops on SIGINT or SIGTERM.`,
		Example: `  quasiscf serve --addr :9090`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			logger := getLogger(ctx)
			return serve(ctx, cfg.Addr, newRouter(cfg, logger), logger)
		},
	}
	cmd.Flags().String("addr", "", "Listen address (default localhost:8080)")
	return cmd
}

// serve runs the HTTP server until ctx is cancelled.
func serve(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: h,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	eg.Go(func() error {
		logger.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

type api struct {
	cfg     *config.Config
	reducer *dae.Reducer[*sym.Matrix]
	logger  *slog.Logger
}

func newRouter(cfg *config.Config, logger *slog.Logger) http.Handler {
	a := &api{cfg: cfg, reducer: newReducer(cfg, logger), logger: logger}

	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		a.logRequests,
		middleware.Recoverer,
	)
	r.Get("/health", a.health)
	r.Get("/pairs", a.listAll)
	r.Post("/verify", a.verify)
	r.Post("/reduce", a.reduce)
	return r
}

func (a *api) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *api) listAll(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, listPairs(a.cfg))
}

func (a *api) verify(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	p, err := pairs.Lookup(req.Pair)
	if err != nil {
		a.fail(w, err)
		return
	}
	v, err := verifyOne(a.reducer, p)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (a *api) reduce(w http.ResponseWriter, r *http.Request) {
	var req reduceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, err)
		return
	}
	p, err := pairs.Lookup(req.Pair)
	if err != nil {
		a.fail(w, err)
		return
	}

	cfg := *a.cfg
	cfg.Projector = req.Projector
	cfg.Samples = req.Samples
	params := a.cfg.ParamsFor(p.Name, nil)
	maps.Copy(params, req.Params)
	cfg.Params = map[string]map[string]float64{p.Name: params}

	res, err := reduceOne(a.reducer, &cfg, a.logger, p)
	if err != nil {
		a.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// fail maps err to a status code and writes it as JSON. Reduction errors
// carry their stage and diagnostics.
func (a *api) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pairs.ErrUnknownPair):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest), errors.Is(err, dae.ErrInvalidProblem):
		status = http.StatusBadRequest
	case errors.Is(err, dae.ErrStructuralMismatch),
		errors.Is(err, dae.ErrSingularBlock),
		errors.Is(err, dae.ErrNotInvertible):
		status = http.StatusUnprocessableEntity
	}

	resp := errorResponse{Error: err.Error()}
	var de *dae.Error
	if errors.As(err, &de) {
		resp.Stage, resp.Iteration = de.Stage, de.Iteration
		for _, d := range de.Diagnostics {
			resp.Diagnostics = append(resp.Diagnostics, diagnostic{Name: d.Name, Matrix: d.Matrix.String()})
		}
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errBadRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
