// Command flowengined is the thin HTTP surface around the flow engine:
// submit a run, cancel a run, and expose the live websocket feed. It
// wires config/store/registry/recorder/scheduler together and contains
// no engine logic of its own.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/flowlayer/flowengine"
	"github.com/flowlayer/flowengine/internal/config"
	"github.com/flowlayer/flowengine/internal/domain"
	"github.com/flowlayer/flowengine/internal/observability"
	"github.com/flowlayer/flowengine/internal/store"
)

func main() {
	cfg := config.Load()
	flowengine.ConfigureLogging(cfg.LogLevel)

	memStore := store.NewMemoryStore()

	hub := observability.NewHub()
	memRecorder := flowengine.NewMemoryRecorder()
	fanout := flowengine.NewObservedRecorder(memRecorder, observability.WebsocketObserver{Hub: hub})

	eng, err := flowengine.NewEngine(memStore, fanout, cfg.PollDefaultInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build engine")
	}
	eng.Runner.MaxParallel = cfg.MaxParallelPerLevel

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := eng.StartAll(ctx); err != nil {
		log.Error().Err(err).Msg("failed to start trigger loops")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /flows/{id}/runs", submitRunHandler(memStore, eng))
	mux.HandleFunc("POST /runs/{id}/cancel", cancelRunHandler(eng))
	mux.HandleFunc("GET /ws", hub.ServeWS)

	flows, err := memStore.ListFlows(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list flows for webhook-trigger mounting")
	}
	flowengine.MountWebhookTriggers(mux, flows, eng)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("flowengined listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func submitRunHandler(st *store.MemoryStore, eng *flowengine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flowID := r.PathValue("id")
		flow, err := st.GetFlow(r.Context(), flowID)
		if err != nil {
			http.Error(w, "unknown flow: "+flowID, http.StatusNotFound)
			return
		}

		var initialContext map[string]string
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&initialContext); err != nil {
				http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
				return
			}
		}

		run, err := eng.SubmitRun(r.Context(), flow, initialContext)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, run)
	}
}

func cancelRunHandler(eng *flowengine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := r.PathValue("id")
		if !eng.CancelRun(runID) {
			http.Error(w, "run not in flight: "+runID, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var engErr *domain.EngineError
	if errors.As(err, &engErr) && engErr.Code == domain.ErrInvalidGraph {
		status = http.StatusUnprocessableEntity
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
