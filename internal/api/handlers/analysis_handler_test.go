package handlers_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tonesense/tonesense/internal/api/handlers"
	"github.com/tonesense/tonesense/internal/api/routes"
	"github.com/tonesense/tonesense/internal/providers/inference/inferencetest"
	"github.com/tonesense/tonesense/internal/services"
	"github.com/tonesense/tonesense/internal/session"
	"github.com/tonesense/tonesense/internal/utils"
)

func newTestRouter(stub *inferencetest.Stub) (*gin.Engine, *session.Store) {
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	store := session.NewStore()
	svc := services.NewAnalysisService(stub, store, log, nil, services.AnalysisConfig{
		Backend:       "stub",
		MinChunkBytes: 1000,
	})

	r := gin.New()
	routes.RegisterRoutes(r, routes.Deps{
		Analysis: handlers.NewAnalysisHandler(svc),
		Status:   handlers.NewStatusHandler(services.NewStatusService(stub, log)),
		WS:       handlers.NewWSHandler(svc, log),
	})
	return r, store
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func wavPayload(size int) string {
	chunk := append([]byte("RIFF....WAVEfmt "), make([]byte, size)...)
	return base64.StdEncoding.EncodeToString(chunk)
}

func TestAnalyzeChunkEndToEnd(t *testing.T) {
	stub := &inferencetest.Stub{
		Response: "```json\n{\"emotion\":\"joy\",\"confidence\":0.9,\"voice_features\":{\"pitch\":\"high\",\"pace\":\"fast\",\"energy\":\"high\",\"clarity\":\"good\"},\"analysis\":\"Sounds delighted.\"}\n```",
	}
	r, _ := newTestRouter(stub)

	w := postJSON(t, r, "/api/analyze-chunk", gin.H{"audio": wavPayload(2000), "session_id": "s1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Emotion    string  `json:"emotion"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Emotion != "happy" {
		t.Errorf("expected happy, got %q", res.Emotion)
	}
	if res.Confidence != 0.9 {
		t.Errorf("expected 0.9, got %v", res.Confidence)
	}

	// follow-up session query reflects the stored result
	req := httptest.NewRequest(http.MethodGet, "/api/session/s1", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 from session query, got %d", w2.Code)
	}
	var sess struct {
		SessionID string `json:"session_id"`
		Results   []struct {
			Emotion string `json:"emotion"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &sess); err != nil {
		t.Fatal(err)
	}
	if len(sess.Results) != 1 || sess.Results[0].Emotion != "happy" {
		t.Errorf("expected one stored happy result, got %+v", sess)
	}
}

func TestAnalyzeChunkPrimaryEmotionKey(t *testing.T) {
	stub := &inferencetest.Stub{
		Response: `{"primary_emotion":"joy","confidence":0.9,"voice_features":{"pitch":"high","pace":"fast","energy":"high","clarity":"good"},"analysis":"Sounds delighted."}`,
	}
	r, _ := newTestRouter(stub)

	w := postJSON(t, r, "/api/analyze-chunk", gin.H{"audio": wavPayload(2000), "session_id": "s1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res struct {
		Emotion    string  `json:"emotion"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Emotion != "happy" {
		t.Errorf("expected happy, got %q", res.Emotion)
	}
	if res.Confidence != 0.9 {
		t.Errorf("expected 0.9, got %v", res.Confidence)
	}
}

func TestAnalyzeChunkSkipped(t *testing.T) {
	stub := &inferencetest.Stub{Response: "{}"}
	r, _ := newTestRouter(stub)

	w := postJSON(t, r, "/api/analyze-chunk", gin.H{"audio": wavPayload(100), "session_id": "s1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res struct {
		Skipped bool `json:"skipped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Skipped {
		t.Error("expected skipped=true for a tiny chunk")
	}
	if stub.Calls != 0 {
		t.Error("provider must not be called for a skipped chunk")
	}
}

func TestAnalyzeChunkBadBase64(t *testing.T) {
	r, _ := newTestRouter(&inferencetest.Stub{})

	w := postJSON(t, r, "/api/analyze-chunk", gin.H{"audio": "%%%not-base64%%%"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var res handlers.APIError
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Message != "Invalid audio data format" {
		t.Errorf("unexpected message %q", res.Message)
	}
}

func TestAnalyzeChunkMissingAudio(t *testing.T) {
	r, _ := newTestRouter(&inferencetest.Stub{})

	w := postJSON(t, r, "/api/analyze-chunk", gin.H{"session_id": "s1"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAnalyzeChunkProviderDown(t *testing.T) {
	stub := &inferencetest.Stub{
		Err: utils.E(utils.CodeUnavailable, "stub", "Unable to process audio analysis", nil),
	}
	r, _ := newTestRouter(stub)

	w := postJSON(t, r, "/api/analyze-chunk", gin.H{"audio": wavPayload(2000)})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	var res handlers.APIError
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Error != "API Error" {
		t.Errorf("unexpected error kind %q", res.Error)
	}
}

func TestEndSessionAlwaysSucceeds(t *testing.T) {
	stub := &inferencetest.Stub{
		Response: `{"emotion":"happy","confidence":0.8,"voice_features":{},"analysis":"ok"}`,
	}
	r, store := newTestRouter(stub)

	postJSON(t, r, "/api/analyze-chunk", gin.H{"audio": wavPayload(2000), "session_id": "s1"})

	w := postJSON(t, r, "/api/end-session", gin.H{"session_id": "s1"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if store.Get("s1") != nil {
		t.Error("session should be removed")
	}

	// ending an unknown session still succeeds
	w = postJSON(t, r, "/api/end-session", gin.H{"session_id": "never-existed"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for unknown session, got %d", w.Code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	r, _ := newTestRouter(&inferencetest.Stub{})

	req := httptest.NewRequest(http.MethodGet, "/api/session/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCheckStatus(t *testing.T) {
	r, _ := newTestRouter(&inferencetest.Stub{})

	req := httptest.NewRequest(http.MethodGet, "/api/check-status", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res struct {
		Configured bool   `json:"configured"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if !res.Configured || res.Message != "System ready" {
		t.Errorf("unexpected status body: %+v", res)
	}
}
