package models

import "time"

// CanonicalEmotion is the closed output vocabulary. Provider labels outside
// this set are normalized to Neutral before they reach a caller.
type CanonicalEmotion string

const (
	EmotionHappy      CanonicalEmotion = "happy"
	EmotionSad        CanonicalEmotion = "sad"
	EmotionAngry      CanonicalEmotion = "angry"
	EmotionFearful    CanonicalEmotion = "fearful"
	EmotionSurprised  CanonicalEmotion = "surprised"
	EmotionNeutral    CanonicalEmotion = "neutral"
	EmotionConfident  CanonicalEmotion = "confident"
	EmotionNervous    CanonicalEmotion = "nervous"
	EmotionCalm       CanonicalEmotion = "calm"
	EmotionFrustrated CanonicalEmotion = "frustrated"
	EmotionExcited    CanonicalEmotion = "excited"
)

// CanonicalEmotions lists every member of the closed set, in prompt order.
var CanonicalEmotions = []CanonicalEmotion{
	EmotionHappy, EmotionSad, EmotionAngry, EmotionFearful, EmotionSurprised,
	EmotionNeutral, EmotionConfident, EmotionNervous, EmotionCalm,
	EmotionFrustrated, EmotionExcited,
}

// VoiceFeatures holds the four ordinal prosody descriptors. Each field is
// defaulted independently when the provider omits or mangles it.
type VoiceFeatures struct {
	Pitch   string `json:"pitch"`   // low|medium|high
	Pace    string `json:"pace"`    // slow|moderate|fast
	Energy  string `json:"energy"`  // low|moderate|high
	Clarity string `json:"clarity"` // poor|fair|good|excellent
}

// AnalysisResult is the only unit of output visible to callers. It is always
// fully populated; a request that cannot produce one yields an error object
// instead, never a partial result.
type AnalysisResult struct {
	Emotion       CanonicalEmotion `json:"emotion"`
	Confidence    float64          `json:"confidence"`
	VoiceFeatures VoiceFeatures    `json:"voice_features"`
	Analysis      string           `json:"analysis"`

	// Degraded marks a neutral fallback emitted in place of a timed-out
	// provider call on the chunk path.
	Degraded bool `json:"degraded,omitempty"`
}

// Session is the rolling per-client history used for smoothing. At most
// MaxSessionResults entries are kept; inserting beyond that evicts the
// oldest (FIFO).
type Session struct {
	ID         string           `json:"session_id"`
	Results    []AnalysisResult `json:"results"`
	LastActive time.Time        `json:"last_active"`
}

// MaxSessionResults bounds the per-session rolling buffer.
const MaxSessionResults = 5
