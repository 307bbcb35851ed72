package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/supplier-cli/internal/dataset"
	"github.com/sells-group/supplier-cli/internal/model"
	"github.com/sells-group/supplier-cli/internal/recommend"
	"github.com/sells-group/supplier-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recommendation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEngine(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           buildRouter(env.Engine, env.Dataset, env.Store, env.Registry),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// recommender is the part of recommend.Engine the server needs.
type recommender interface {
	Recommend(ctx context.Context, ds *dataset.Dataset, req recommend.Request) (*model.Recommendation, error)
}

// buildRouter mounts the HTTP API. st and gatherer may be nil; the feedback
// routes then answer 503 and /metrics is not mounted.
func buildRouter(engine recommender, ds *dataset.Dataset, st store.Store, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/recommend", func(w http.ResponseWriter, r *http.Request) {
		var req recommend.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		rec, err := engine.Recommend(r.Context(), ds, req)
		switch {
		case errors.Is(err, recommend.ErrInvalidRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, recommend.ErrEmptyDataset):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case err != nil:
			zap.L().Error("recommend failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "recommendation failed")
		default:
			writeJSON(w, http.StatusOK, rec)
		}
	})

	r.Route("/feedback", func(r chi.Router) {
		r.Use(requireStore(st))

		r.Post("/", func(w http.ResponseWriter, r *http.Request) {
			var fb model.Feedback
			if err := json.NewDecoder(r.Body).Decode(&fb); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if err := fb.Validate(); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			saved, err := st.SaveFeedback(r.Context(), fb)
			if err != nil {
				zap.L().Error("save feedback failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "save feedback failed")
				return
			}
			writeJSON(w, http.StatusCreated, saved)
		})

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			filter := store.FeedbackFilter{SupplierName: r.URL.Query().Get("supplier")}
			if v := r.URL.Query().Get("limit"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
					return
				}
				filter.Limit = n
			}
			items, err := st.ListFeedback(r.Context(), filter)
			if err != nil {
				zap.L().Error("list feedback failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "list feedback failed")
				return
			}
			writeJSON(w, http.StatusOK, items)
		})

		r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
			fb, err := st.GetFeedback(r.Context(), chi.URLParam(r, "id"))
			switch {
			case errors.Is(err, store.ErrNotFound):
				writeError(w, http.StatusNotFound, "feedback not found")
			case err != nil:
				zap.L().Error("get feedback failed", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "get feedback failed")
			default:
				writeJSON(w, http.StatusOK, fb)
			}
		})
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func requireStore(st store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if st == nil {
				writeError(w, http.StatusServiceUnavailable, "feedback store not configured")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
