package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/camwork/internal/config"
	"github.com/ivlev/camwork/internal/engine"
	"github.com/ivlev/camwork/internal/motion"
	"github.com/ivlev/camwork/internal/store"
)

type savedClip struct {
	timelineID string
	rule       string
	keyframes  []motion.Keyframe
}

type fakeStore struct {
	mu    sync.Mutex
	clips map[string]savedClip
	calls int
	err   error
}

func (f *fakeStore) SaveTimeline(_ context.Context, timelineID string, clips []store.Clip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	if f.clips == nil {
		f.clips = map[string]savedClip{}
	}
	for _, c := range clips {
		f.clips[c.ID] = savedClip{timelineID: timelineID, rule: c.RuleApplied, keyframes: c.Keyframes}
	}
	return nil
}

func testConfig(clipStore ClipStore) ServerConfig {
	cfg := ServerConfig{
		Synthesizer: engine.NewSynthesizer(engine.Options{Tuning: config.DefaultTuning(), Workers: 2}),
		StartTime:   time.Now(),
	}
	if clipStore != nil {
		cfg.Store = clipStore
	}
	return cfg
}

func do(t *testing.T, cfg ServerConfig, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	NewRouter(cfg).ServeHTTP(rr, req)
	return rr
}

const concreteBody = `{
	"timeline_id": "tl-1",
	"segments": [
		{"segment_id": "s1", "duration_ms": 3000, "emotion": "excited", "importance": "high",
		 "face": {"has_face": true, "center_x": 0.5, "center_y": 0.5, "ratio": 0.12}},
		{"segment_id": "s2", "duration_ms": 3000, "emotion": "neutral", "importance": "medium",
		 "face": {"has_face": true, "center_x": 0.5, "center_y": 0.5, "ratio": 0.12}}
	]
}`

func TestHealth(t *testing.T) {
	rr := do(t, testConfig(nil), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.False(t, body.Store)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRules(t *testing.T) {
	rr := do(t, testConfig(nil), http.MethodGet, "/v1/motion/rules", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body RulesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.Rules)
	assert.Equal(t, "short_clip", body.Rules[0].Name)
	assert.Equal(t, "catch_all", body.Rules[len(body.Rules)-1].Name)
}

func TestSynthesizeConcreteScenario(t *testing.T) {
	rr := do(t, testConfig(nil), http.MethodPost, "/v1/motion/synthesize", concreteBody)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var body SynthesizeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, rr.Header().Get("X-Request-ID"), body.RequestID)
	assert.Empty(t, body.Rejected)
	require.Len(t, body.Results, 2)

	first, second := body.Results[0], body.Results[1]
	assert.Equal(t, "emotion_excited_high", first.RuleApplied)
	assert.InDelta(t, 1.25, first.Params.EndScale, 1e-9)
	assert.Equal(t, "emotion_neutral_medium+cooldown", second.RuleApplied)
	assert.Less(t, second.Params.ScaleDelta(), 0.08)
	assert.Len(t, second.Keyframes, 4)
}

func TestSynthesizeSequenceDisabled(t *testing.T) {
	body := strings.Replace(concreteBody, `"timeline_id": "tl-1",`, `"timeline_id": "tl-1", "sequence_aware": false,`, 1)
	rr := do(t, testConfig(nil), http.MethodPost, "/v1/motion/synthesize", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SynthesizeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "emotion_neutral_medium", resp.Results[1].RuleApplied)
	assert.InDelta(t, 1.08, resp.Results[1].Params.EndScale, 1e-9)
}

func TestSynthesizeRejectsMalformedSegments(t *testing.T) {
	body := `{"segments": [
		{"segment_id": "ok", "duration_ms": 2000, "emotion": "happy", "importance": "low"},
		{"segment_id": "zero", "duration_ms": 0}
	]}`
	rr := do(t, testConfig(nil), http.MethodPost, "/v1/motion/synthesize", body)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SynthesizeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "ok", resp.Results[0].SegmentID)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "zero", resp.Rejected[0].SegmentID)
}

func TestSynthesizeBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"segments": [`},
		{"no segments", `{"segments": []}`},
		{"persist without store", `{"persist": true, "segments": [{"segment_id": "a", "duration_ms": 1000}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, testConfig(nil), http.MethodPost, "/v1/motion/synthesize", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Code)
		})
	}
}

func TestSynthesizePersists(t *testing.T) {
	clips := &fakeStore{}
	body := strings.Replace(concreteBody, `"timeline_id": "tl-1",`, `"timeline_id": "tl-1", "persist": true,`, 1)

	rr := do(t, testConfig(clips), http.MethodPost, "/v1/motion/synthesize", body)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	assert.Equal(t, 1, clips.calls, "whole timeline saved in one batch")
	require.Len(t, clips.clips, 2)
	assert.Equal(t, "tl-1", clips.clips["s1"].timelineID)
	assert.Equal(t, "emotion_neutral_medium+cooldown", clips.clips["s2"].rule)
	assert.Len(t, clips.clips["s2"].keyframes, 4)
}

func TestSynthesizeStoreFailure(t *testing.T) {
	clips := &fakeStore{err: errors.New("disk full")}
	body := `{"persist": true, "segments": [{"segment_id": "a", "duration_ms": 1000}, {"segment_id": "b", "duration_ms": 2000}]}`

	rr := do(t, testConfig(clips), http.MethodPost, "/v1/motion/synthesize", body)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1, clips.calls)
	assert.Empty(t, clips.clips)
	assert.Contains(t, rr.Body.String(), "STORE_ERROR")
}

func TestRequestIDPropagates(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc123")
	NewRouter(testConfig(nil)).ServeHTTP(rr, req)

	assert.Equal(t, "abc123", rr.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := RequestIDMiddleware()(RecoveryMiddleware(testLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
