package services

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/tonesense/tonesense/internal/providers/inference/inferencetest"
	"github.com/tonesense/tonesense/internal/models"
	"github.com/tonesense/tonesense/internal/session"
	"github.com/tonesense/tonesense/internal/utils"
)

func newService(p *inferencetest.Stub, store *session.Store) AnalysisService {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewAnalysisService(p, store, log, nil, AnalysisConfig{
		Backend:       "stub",
		MinChunkBytes: 1000,
	})
}

func chunkPayload(size int) string {
	return base64.StdEncoding.EncodeToString(make([]byte, size))
}

func TestAnalyzeChunkSuccess(t *testing.T) {
	stub := &inferencetest.Stub{
		Response: "```json\n{\"emotion\":\"joy\",\"confidence\":0.9,\"voice_features\":{\"pitch\":\"high\",\"pace\":\"fast\",\"energy\":\"high\",\"clarity\":\"good\"},\"analysis\":\"Sounds delighted.\"}\n```",
	}
	store := session.NewStore()
	svc := newService(stub, store)

	result, skipped, err := svc.AnalyzeChunk(context.Background(), "s1", chunkPayload(2000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped {
		t.Fatal("unexpected skip")
	}
	if result.Emotion != models.EmotionHappy {
		t.Errorf("expected happy, got %q", result.Emotion)
	}
	if result.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", result.Confidence)
	}

	// record-then-respond: the result is visible in the session immediately
	sess := store.Get("s1")
	if sess == nil || len(sess.Results) != 1 {
		t.Fatalf("expected one recorded result for s1, got %+v", sess)
	}
	if sess.Results[0].Emotion != models.EmotionHappy {
		t.Errorf("recorded emotion mismatch: %q", sess.Results[0].Emotion)
	}
}

func TestAnalyzeChunkTooSmallSkipsProvider(t *testing.T) {
	stub := &inferencetest.Stub{Response: "{}"}
	svc := newService(stub, session.NewStore())

	_, skipped, err := svc.AnalyzeChunk(context.Background(), "s1", chunkPayload(500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !skipped {
		t.Fatal("expected skip for under-threshold payload")
	}
	if stub.Calls != 0 {
		t.Errorf("provider must not be called for a skipped chunk, got %d calls", stub.Calls)
	}
}

func TestAnalyzeChunkDecodeError(t *testing.T) {
	stub := &inferencetest.Stub{}
	svc := newService(stub, session.NewStore())

	_, _, err := svc.AnalyzeChunk(context.Background(), "s1", "!!not-base64!!")
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !utils.IsCode(err, utils.CodeInvalidAudio) {
		t.Errorf("expected INVALID_AUDIO, got %v", err)
	}
	if stub.Calls != 0 {
		t.Errorf("provider must not be called on decode failure")
	}
}

func TestAnalyzeChunkTimeoutDegradesToNeutral(t *testing.T) {
	stub := &inferencetest.Stub{
		Err: utils.E(utils.CodeTimeout, "stub", "budget exceeded", nil),
	}
	store := session.NewStore()
	svc := newService(stub, store)

	result, skipped, err := svc.AnalyzeChunk(context.Background(), "s1", chunkPayload(2000))
	if err != nil {
		t.Fatalf("timeout must not surface as an error on the chunk path: %v", err)
	}
	if skipped {
		t.Fatal("unexpected skip")
	}
	if result.Emotion != models.EmotionNeutral || !result.Degraded {
		t.Errorf("expected degraded neutral fallback, got %+v", result)
	}
	if result.Confidence != 0.3 {
		t.Errorf("expected fallback confidence 0.3, got %v", result.Confidence)
	}

	// the fallback participates in the rolling history
	sess := store.Get("s1")
	if sess == nil || len(sess.Results) != 1 {
		t.Fatal("fallback result should be recorded")
	}
}

func TestAnalyzeChunkProviderUnavailable(t *testing.T) {
	stub := &inferencetest.Stub{
		Err: utils.E(utils.CodeUnavailable, "stub", "provider unavailable", nil),
	}
	store := session.NewStore()
	svc := newService(stub, store)

	_, _, err := svc.AnalyzeChunk(context.Background(), "s1", chunkPayload(2000))
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("expected UNAVAILABLE, got %v", err)
	}
	if store.Get("s1") != nil {
		t.Error("failed analysis must not create a session")
	}
}

func TestAnalyzeChunkParseFailureIsNotFabricated(t *testing.T) {
	stub := &inferencetest.Stub{Response: "I could not process this audio."}
	svc := newService(stub, session.NewStore())

	_, _, err := svc.AnalyzeChunk(context.Background(), "s1", chunkPayload(2000))
	if !utils.IsCode(err, utils.CodeParse) {
		t.Fatalf("expected PARSE error, got %v", err)
	}
}

func TestAnalyzeChunkDefaultSessionID(t *testing.T) {
	stub := &inferencetest.Stub{
		Response: `{"emotion":"calm","confidence":0.7,"voice_features":{},"analysis":"Steady."}`,
	}
	store := session.NewStore()
	svc := newService(stub, store)

	if _, _, err := svc.AnalyzeChunk(context.Background(), "", chunkPayload(2000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Get("default") == nil {
		t.Error("missing session id should fall back to \"default\"")
	}
}

func TestAnalyzeChunkNoProviderConfigured(t *testing.T) {
	svc := NewAnalysisService(nil, session.NewStore(), nil, nil, AnalysisConfig{})

	_, _, err := svc.AnalyzeChunk(context.Background(), "s1", chunkPayload(2000))
	if !utils.IsCode(err, utils.CodeConfig) {
		t.Fatalf("expected CONFIG error, got %v", err)
	}
}

func TestAnalyzeOnceTimeoutIsAnError(t *testing.T) {
	stub := &inferencetest.Stub{
		Err: utils.E(utils.CodeTimeout, "stub", "budget exceeded", nil),
	}
	svc := newService(stub, session.NewStore())

	_, err := svc.AnalyzeOnce(context.Background(), chunkPayload(2000))
	if !utils.IsCode(err, utils.CodeTimeout) {
		t.Fatalf("one-shot path must surface timeouts, got %v", err)
	}
}

func TestAnalyzeOnceDoesNotRecord(t *testing.T) {
	stub := &inferencetest.Stub{
		Response: `{"emotion":"happy","confidence":0.8,"voice_features":{},"analysis":"Bright tone."}`,
	}
	store := session.NewStore()
	svc := newService(stub, store)

	if _, err := svc.AnalyzeOnce(context.Background(), chunkPayload(2000)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Len() != 0 {
		t.Error("one-shot analysis must not touch session state")
	}
}

func TestEndSessionIdempotent(t *testing.T) {
	stub := &inferencetest.Stub{
		Response: `{"emotion":"happy","confidence":0.8,"voice_features":{},"analysis":"ok"}`,
	}
	store := session.NewStore()
	svc := newService(stub, store)

	if _, _, err := svc.AnalyzeChunk(context.Background(), "s1", chunkPayload(2000)); err != nil {
		t.Fatal(err)
	}
	svc.EndSession("s1")
	if svc.SessionSnapshot("s1") != nil {
		t.Error("session should be gone")
	}
	svc.EndSession("s1") // absence is not an error
}
