// Package advisory turns water-body attributes and weather readings into
// fishing recommendations. Everything here is a pure function of its inputs.
package advisory

import "github.com/couchcryptid/water-advisory-service/internal/domain"

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// Tier thresholds for Advice.
const (
	ExcellentThreshold = 80
	GoodThreshold      = 60
)

// Tier is the qualitative band of a fishing score.
type Tier string

const (
	TierExcellent   Tier = "excellent"
	TierGood        Tier = "good"
	TierChallenging Tier = "challenging"
)

const (
	adviceExcellent   = "Excellent spot! Try live bait near the deeper areas during recommended hours."
	adviceGood        = "Good fishing potential. Check weather conditions and use appropriate tackle."
	adviceChallenging = "Challenging conditions. Consider alternative locations or wait for better weather."
)

// Score rates a water body from 0 to 100 on water quality, fish diversity
// and depth. Missing attributes contribute nothing.
//
// The two diversity terms overlap: more than three species earns a flat 25,
// and every species also earns 5 up to a cap of 25.
func Score(wb domain.WaterBody) int {
	score := 0

	switch wb.WaterQuality {
	case domain.QualityGood:
		score += 30
	case domain.QualityModerate:
		score += 20
	}

	species := len(wb.FishSpecies)
	if species > 3 {
		score += 25
	}
	if wb.DepthMeters != nil && *wb.DepthMeters > 5 {
		score += 20
	}
	score += min(species*5, 25)

	return max(MinScore, min(score, MaxScore))
}

// TierFor maps a score to its band.
func TierFor(score int) Tier {
	switch {
	case score >= ExcellentThreshold:
		return TierExcellent
	case score >= GoodThreshold:
		return TierGood
	default:
		return TierChallenging
	}
}

// Advice returns the fishing tip for a score.
func Advice(score int) string {
	switch TierFor(score) {
	case TierExcellent:
		return adviceExcellent
	case TierGood:
		return adviceGood
	default:
		return adviceChallenging
	}
}

// WaterBodyInfo is what the info panel shows for a selected water body.
type WaterBodyInfo struct {
	WaterBody domain.WaterBody `json:"waterBody"`
	Score     int              `json:"score"`
	Tier      Tier             `json:"tier"`
	Advice    string           `json:"advice"`
}

// Describe scores a water body and attaches its tier and advice.
func Describe(wb domain.WaterBody) WaterBodyInfo {
	score := Score(wb)
	return WaterBodyInfo{
		WaterBody: wb,
		Score:     score,
		Tier:      TierFor(score),
		Advice:    Advice(score),
	}
}
