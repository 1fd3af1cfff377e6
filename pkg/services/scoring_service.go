package services

import (
	"math"
	"sort"

	"github.com/ezirisk/ezirisk-engine/pkg/models"
	"github.com/ezirisk/ezirisk-engine/pkg/ruleset"
)

// ScoringService builds the weighted score breakdown for a survey: the four
// fixed global pillars plus the occupancy drivers selected by the survey's
// industry classification. Output is deterministic for the same inputs.
type ScoringService interface {
	BuildScoreBreakdown(survey *models.Survey, buildings []*models.Building) *models.ScoreBreakdown
}

const (
	// pillarWeight is the fixed weight applied to every global pillar.
	pillarWeight = 3

	// defaultRating is assumed for any canonical key without an explicit
	// rating: 3, "Adequate".
	defaultRating = 3

	// maxRating bounds the 1-5 rating scale.
	maxRating = 5

	topContributorCount = 3
)

type scoringService struct {
	tables *ruleset.Tables
}

// NewScoringService creates a scoring service over the given rule tables.
func NewScoringService(tables *ruleset.Tables) ScoringService {
	return &scoringService{tables: tables}
}

var _ ScoringService = (*scoringService)(nil)

func (s *scoringService) BuildScoreBreakdown(survey *models.Survey, buildings []*models.Building) *models.ScoreBreakdown {
	breakdown := &models.ScoreBreakdown{
		IndustryKey: survey.IndustryKey,
	}

	for _, key := range s.tables.PillarKeys() {
		rating := s.pillarRating(survey, buildings, key)
		breakdown.GlobalPillars = append(breakdown.GlobalPillars, models.ScoreFactor{
			Key:      key,
			Label:    s.tables.FactorLabel(key),
			Rating:   rating,
			Weight:   pillarWeight,
			Score:    rating * pillarWeight,
			MaxScore: maxRating * pillarWeight,
		})
	}

	for _, f := range s.tables.DriverFactors() {
		weight := s.tables.DriverWeight(survey.IndustryKey, f.Key)
		if weight <= 0 {
			continue
		}
		rating := ratingOrDefault(survey.Ratings, f.Key)
		breakdown.OccupancyDrivers = append(breakdown.OccupancyDrivers, models.ScoreFactor{
			Key:      f.Key,
			Label:    f.Label,
			Rating:   rating,
			Weight:   weight,
			Score:    rating * weight,
			MaxScore: maxRating * weight,
		})
	}

	combined := make([]models.ScoreFactor, 0, len(breakdown.GlobalPillars)+len(breakdown.OccupancyDrivers))
	combined = append(combined, breakdown.GlobalPillars...)
	combined = append(combined, breakdown.OccupancyDrivers...)

	for _, f := range combined {
		breakdown.TotalScore += f.Score
		breakdown.MaxScore += f.MaxScore
	}

	// Highest score first; stable sort preserves pillar-then-driver order on
	// ties.
	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].Score > combined[j].Score
	})
	if len(combined) > topContributorCount {
		combined = combined[:topContributorCount]
	}
	breakdown.TopContributors = combined

	return breakdown
}

// pillarRating resolves a pillar rating by priority: explicit section grade,
// then (for construction) the worst-case computed building rating, then the
// default.
func (s *scoringService) pillarRating(survey *models.Survey, buildings []*models.Building, key string) int {
	if grade, ok := survey.SectionGrades[key]; ok {
		return clampRating(grade)
	}
	if key == "construction_and_combustibility" && len(buildings) > 0 {
		worst := maxRating
		for _, b := range buildings {
			if r := buildingConstructionRating(b); r < worst {
				worst = r
			}
		}
		return worst
	}
	return defaultRating
}

// buildingConstructionRating rates one building's construction from its frame
// material, envelope combustibility, and combustible-area share. Clamped to
// [1,5] and rounded.
func buildingConstructionRating(b *models.Building) int {
	var base float64
	switch b.FrameMaterial {
	case models.FrameConcrete, models.FrameMasonry:
		base = 5
	case models.FrameSteel:
		base = 4
	case models.FrameTimber:
		base = 2
	default:
		base = 3
	}

	if b.RoofCombustible {
		base -= 1
	}
	if b.WallsCombustible {
		base -= 1
	}

	// Up to two further points for combustible contents coverage.
	base -= (b.CombustibleAreaPercent / 100) * 2

	return clampRating(int(math.Round(base)))
}

func ratingOrDefault(ratings map[string]int, key string) int {
	if r, ok := ratings[key]; ok {
		return clampRating(r)
	}
	return defaultRating
}

func clampRating(r int) int {
	if r < 1 {
		return 1
	}
	if r > maxRating {
		return maxRating
	}
	return r
}
