package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ivlev/camwork/internal/analyzer"
	"github.com/ivlev/camwork/internal/engine"
	"github.com/ivlev/camwork/internal/logging"
	"github.com/ivlev/camwork/internal/store"
)

// Version is reported by /health
const Version = "0.1.0"

const maxBodyBytes = 1 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Route("/v1/motion", func(r chi.Router) {
		r.Post("/synthesize", synthesizeHandler(cfg))
		r.Get("/rules", rulesHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: Version,
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
			Store:   cfg.Store != nil,
		})
	}
}

func rulesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, RulesResponse{Rules: cfg.Synthesizer.Director().ListRules()})
	}
}

func synthesizeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := RequestID(ctx)
		logger := logging.WithRequestID(cfg.Logger, requestID)

		var req SynthesizeRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
			return
		}
		if len(req.Segments) == 0 {
			WriteError(w, http.StatusBadRequest, "segments must not be empty", "INVALID_REQUEST")
			return
		}
		if req.Persist && cfg.Store == nil {
			WriteError(w, http.StatusBadRequest, "persistence is not configured", "STORE_UNAVAILABLE")
			return
		}
		sequenceAware := req.SequenceAware == nil || *req.SequenceAware

		contexts := analyzer.Contextualize(ctx, cfg.Detector, req.Segments, logger)
		valid, rejected := engine.Partition(contexts)
		for _, rej := range rejected {
			logger.Warn("rejected segment", "segment_id", rej.SegmentID, "reason", rej.Reason)
		}

		params, err := cfg.Synthesizer.Synthesize(ctx, valid, sequenceAware)
		if err != nil {
			logger.Error("synthesis failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "synthesis failed", "INTERNAL_ERROR")
			return
		}
		results := cfg.Synthesizer.Timeline(valid, params)

		if req.Persist {
			timelineID := req.TimelineID
			if timelineID == "" {
				timelineID = requestID
			}
			clips := make([]store.Clip, 0, len(results))
			for _, res := range results {
				clips = append(clips, store.Clip{ID: res.SegmentID, RuleApplied: res.RuleApplied, Keyframes: res.Keyframes})
			}
			if err := cfg.Store.SaveTimeline(ctx, timelineID, clips); err != nil {
				logger.Error("failed to persist keyframes", "timeline_id", timelineID, "error", err)
				WriteError(w, http.StatusInternalServerError, "failed to persist keyframes", "STORE_ERROR")
				return
			}
		}

		if rejected == nil {
			rejected = []engine.Rejection{}
		}
		WriteJSON(w, http.StatusOK, SynthesizeResponse{
			RequestID: requestID,
			Results:   results,
			Rejected:  rejected,
		})
	}
}
