package models

// ScoreFactor is one scored risk factor: a global pillar or an occupancy
// driver. Score = Rating x Weight; MaxScore = 5 x Weight.
type ScoreFactor struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Rating   int    `json:"rating"`
	Weight   int    `json:"weight"`
	Score    int    `json:"score"`
	MaxScore int    `json:"max_score"`
}

// ScoreBreakdown is the full weighted-score view of a survey: the four fixed
// global pillars, the industry-selected occupancy drivers, their totals, and
// the top contributing factors.
type ScoreBreakdown struct {
	IndustryKey      string        `json:"industry_key"`
	GlobalPillars    []ScoreFactor `json:"global_pillars"`
	OccupancyDrivers []ScoreFactor `json:"occupancy_drivers"`
	TotalScore       int           `json:"total_score"`
	MaxScore         int           `json:"max_score"`
	TopContributors  []ScoreFactor `json:"top_contributors"`
}
