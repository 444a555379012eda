package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the claim API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx)
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
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
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

func newRouter(env *appEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/conversations", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			conv, err := env.Service.Start(req.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, conv)
		})

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				conv, err := env.Service.Get(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, conv)
			})

			r.Post("/turns", func(w http.ResponseWriter, req *http.Request) {
				var body struct {
					Message string `json:"message"`
				}
				if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
					writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
					return
				}
				state, err := env.Service.Turn(req.Context(), chi.URLParam(req, "id"), body.Message)
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, state)
			})

			r.Post("/adjudicate", func(w http.ResponseWriter, req *http.Request) {
				id := chi.URLParam(req, "id")
				force := req.URL.Query().Get("force") == "true"
				var (
					state *model.ConversationState
					err   error
				)
				if force {
					state, err = env.Service.Force(req.Context(), id)
				} else {
					state, err = env.Service.Adjudicate(req.Context(), id)
				}
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, state)
			})

			r.Post("/submit", func(w http.ResponseWriter, req *http.Request) {
				caseID, err := env.Service.Submit(req.Context(), chi.URLParam(req, "id"))
				if err != nil {
					writeError(w, err)
					return
				}
				writeJSON(w, http.StatusCreated, map[string]string{"case_id": caseID})
			})
		})
	})

	r.Route("/cases", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			cases, err := env.Store.ListCases(req.Context(), caseFilterFromQuery(req))
			if err != nil {
				writeError(w, err)
				return
			}
			if cases == nil {
				cases = []model.Case{}
			}
			writeJSON(w, http.StatusOK, cases)
		})
		r.Get("/{id}", func(w http.ResponseWriter, req *http.Request) {
			c, err := env.Store.GetCase(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, c)
		})
	})

	r.Route("/statistics", func(r chi.Router) {
		stat := func(dim store.StatDimension) http.HandlerFunc {
			return func(w http.ResponseWriter, req *http.Request) {
				buckets, err := env.Store.CountCases(req.Context(), dim)
				if err != nil {
					writeError(w, err)
					return
				}
				if buckets == nil {
					buckets = []model.StatBucket{}
				}
				writeJSON(w, http.StatusOK, buckets)
			}
		}
		r.Get("/accident-types", stat(store.ByType))
		r.Get("/severities", stat(store.BySeverity))
		r.Get("/statuses", stat(store.ByStatus))
	})

	return r
}

func caseFilterFromQuery(req *http.Request) model.CaseFilter {
	q := req.URL.Query()
	f := model.CaseFilter{
		Status:   model.CaseStatus(q.Get("status")),
		Type:     model.AccidentType(q.Get("type")),
		Severity: model.AccidentSeverity(q.Get("severity")),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = n
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		f.Offset = n
	}
	return f
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses: validation failures are
// the client's problem, a missing row is 404, everything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	var (
		vErr *model.ValidationError
		sErr *model.SchemaViolationError
	)
	switch {
	case errors.As(err, &vErr), errors.As(err, &sErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}
