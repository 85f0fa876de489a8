package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mikesmitty/dewalert/pkg/condensation"
)

type StateSource interface {
	IDs() []string
	Snapshot(id string) (condensation.State, bool)
}

type DeviceView struct {
	ID          string                  `json:"id"`
	Temperature *float64                `json:"temperature"`
	Humidity    *float64                `json:"humidity"`
	Dewpoint    *float64                `json:"dewpoint"`
	Baseline    *condensation.Baseline  `json:"baseline,omitempty"`
	Alert       condensation.AlertState `json:"alert"`
}

func view(id string, s condensation.State) DeviceView {
	return DeviceView{
		ID:          id,
		Temperature: s.Temperature,
		Humidity:    s.Humidity,
		Dewpoint:    s.Dewpoint,
		Baseline:    s.Baseline,
		Alert:       s.Alert,
	}
}

func NewRouter(src StateSource) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/devices", func(w http.ResponseWriter, r *http.Request) {
		ids := src.IDs()
		out := make([]DeviceView, 0, len(ids))
		for _, id := range ids {
			if s, ok := src.Snapshot(id); ok {
				out = append(out, view(id, s))
			}
		}
		writeJSON(w, http.StatusOK, out)
	}).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]
		s, ok := src.Snapshot(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not found: " + id})
			return
		}
		writeJSON(w, http.StatusOK, view(id, s))
	}).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("json marshal error", "error", err, "module", "httpapi")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// Server serves h on addr until ctx ends, then shuts down gracefully.
func Server(ctx context.Context, addr string, h http.Handler) func() error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return func() error {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		slog.Info("listening", "addr", addr, "module", "httpapi")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	}
}
