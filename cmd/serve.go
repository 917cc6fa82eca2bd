package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/listing-atlas/internal/report"
	"github.com/sells-group/listing-atlas/internal/tier"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Preview the rendered charts and maps over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		table, err := cfg.TierTable()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(cfg.Output.Dir, table),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port), zap.String("dir", cfg.Output.Dir))
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

// newRouter serves the output directory plus a small JSON API describing
// the last run and the active tier table.
func newRouter(dir string, table *tier.Table) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/manifest", func(w http.ResponseWriter, _ *http.Request) {
			path := filepath.Join(dir, report.FileName)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no manifest; run `listing-atlas all` first"})
				return
			}
			m, err := report.Read(path)
			if err != nil {
				zap.L().Error("read manifest", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "manifest unreadable"})
				return
			}
			writeJSON(w, http.StatusOK, m)
		})

		r.Get("/tiers", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"bounds": table.Bounds(),
				"top":    table.Top(),
			})
		})

		r.Get("/classify/{price}", func(w http.ResponseWriter, req *http.Request) {
			v, err := strconv.ParseFloat(chi.URLParam(req, "price"), 64)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must be a number"})
				return
			}
			t, err := table.ClassifyValue(v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, t)
		})
	})

	r.Handle("/*", http.FileServer(http.Dir(dir)))
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
