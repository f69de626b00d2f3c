package emotion

import (
	"strings"

	"github.com/tonesense/tonesense/internal/models"
)

// synonyms maps the open provider vocabulary onto the canonical set. Data,
// not code: extending provider coverage means adding rows here, nothing
// else. Labels are matched lowercase.
var synonyms = map[string]models.CanonicalEmotion{
	// happy
	"happy": models.EmotionHappy, "joy": models.EmotionHappy,
	"joyful": models.EmotionHappy, "pleased": models.EmotionHappy,
	"cheerful": models.EmotionHappy, "content": models.EmotionHappy,
	"delighted": models.EmotionHappy, "amused": models.EmotionHappy,
	"glad": models.EmotionHappy,

	// sad
	"sad": models.EmotionSad, "sadness": models.EmotionSad,
	"unhappy": models.EmotionSad, "melancholy": models.EmotionSad,
	"sorrowful": models.EmotionSad, "dejected": models.EmotionSad,
	"gloomy": models.EmotionSad, "down": models.EmotionSad,

	// angry
	"angry": models.EmotionAngry, "anger": models.EmotionAngry,
	"mad": models.EmotionAngry, "furious": models.EmotionAngry,
	"irritated": models.EmotionAngry, "hostile": models.EmotionAngry,
	"outraged": models.EmotionAngry,

	// fearful
	"fearful": models.EmotionFearful, "fear": models.EmotionFearful,
	"afraid": models.EmotionFearful, "scared": models.EmotionFearful,
	"terrified": models.EmotionFearful, "panicked": models.EmotionFearful,

	// surprised
	"surprised": models.EmotionSurprised, "surprise": models.EmotionSurprised,
	"astonished": models.EmotionSurprised, "amazed": models.EmotionSurprised,
	"shocked": models.EmotionSurprised, "startled": models.EmotionSurprised,

	// neutral
	"neutral": models.EmotionNeutral, "flat": models.EmotionNeutral,
	"indifferent": models.EmotionNeutral, "bored": models.EmotionNeutral,
	"tired": models.EmotionNeutral, "tiredness": models.EmotionNeutral,

	// confident
	"confident": models.EmotionConfident, "confidence": models.EmotionConfident,
	"assured": models.EmotionConfident, "assertive": models.EmotionConfident,
	"determined": models.EmotionConfident, "proud": models.EmotionConfident,

	// nervous
	"nervous": models.EmotionNervous, "anxious": models.EmotionNervous,
	"worried": models.EmotionNervous, "uneasy": models.EmotionNervous,
	"tense": models.EmotionNervous, "apprehensive": models.EmotionNervous,
	"hesitant": models.EmotionNervous,

	// calm
	"calm": models.EmotionCalm, "relaxed": models.EmotionCalm,
	"serene": models.EmotionCalm, "peaceful": models.EmotionCalm,
	"composed": models.EmotionCalm, "soothing": models.EmotionCalm,

	// frustrated
	"frustrated": models.EmotionFrustrated, "frustration": models.EmotionFrustrated,
	"annoyed": models.EmotionFrustrated, "exasperated": models.EmotionFrustrated,
	"impatient": models.EmotionFrustrated,

	// excited
	"excited": models.EmotionExcited, "excitement": models.EmotionExcited,
	"enthusiastic": models.EmotionExcited, "energetic": models.EmotionExcited,
	"eager": models.EmotionExcited, "thrilled": models.EmotionExcited,
	"ecstasy": models.EmotionExcited, "ecstatic": models.EmotionExcited,
	"exhilarated": models.EmotionExcited,
}

// MapLabel resolves a provider emotion label to the canonical set. Unknown
// labels are neutral: provider vocabularies are open-ended, so an unmapped
// label is expected drift, not an error.
func MapLabel(label string) models.CanonicalEmotion {
	if e, ok := synonyms[strings.ToLower(strings.TrimSpace(label))]; ok {
		return e
	}
	return models.EmotionNeutral
}

// ClampConfidence bounds a reported confidence into [0,1]. A missing value
// (nil) becomes 0.5, the maximum-uncertainty prior, so a dropped field does
// not bias smoothing toward "no signal".
func ClampConfidence(reported *float64) float64 {
	if reported == nil {
		return 0.5
	}
	c := *reported
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// ordinal levels accepted for each voice feature, with the default first
// consulted when the provider omits or invents a level.
var featureLevels = map[string]struct {
	def     string
	allowed map[string]bool
}{
	"pitch":   {"medium", map[string]bool{"low": true, "medium": true, "high": true}},
	"pace":    {"moderate", map[string]bool{"slow": true, "moderate": true, "fast": true}},
	"energy":  {"moderate", map[string]bool{"low": true, "moderate": true, "high": true}},
	"clarity": {"fair", map[string]bool{"poor": true, "fair": true, "good": true, "excellent": true}},
}

func featureOrDefault(raw map[string]string, key string) string {
	spec := featureLevels[key]
	if raw != nil {
		if v, ok := raw[key]; ok && spec.allowed[v] {
			return v
		}
	}
	return spec.def
}

// NormalizeFeatures fills each ordinal descriptor independently, defaulting
// any missing or out-of-vocabulary value.
func NormalizeFeatures(raw map[string]string) models.VoiceFeatures {
	return models.VoiceFeatures{
		Pitch:   featureOrDefault(raw, "pitch"),
		Pace:    featureOrDefault(raw, "pace"),
		Energy:  featureOrDefault(raw, "energy"),
		Clarity: featureOrDefault(raw, "clarity"),
	}
}

// Normalize converts an extracted provider payload into a fully populated
// AnalysisResult.
func Normalize(raw *RawResult) models.AnalysisResult {
	return models.AnalysisResult{
		Emotion:       MapLabel(raw.Label()),
		Confidence:    ClampConfidence(raw.Confidence),
		VoiceFeatures: NormalizeFeatures(raw.VoiceFeatures),
		Analysis:      raw.Analysis,
	}
}
