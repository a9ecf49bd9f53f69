package services

import (
	"alfredoptarigan/smart-ats/internal/models"
)

// SelectBest returns the candidate with the highest match percentage. The scan
// starts from the zero sentinel and only replaces on a strictly greater score,
// so the first of several equal scores wins. With no candidates the sentinel is
// returned with Found set to false.
func SelectBest(candidates []models.Candidate) models.BestMatch {
	best := models.NoMatch()
	bestScore, _ := ParseMatchPercent(best.Record.MatchPercent)

	for _, c := range candidates {
		score, err := ParseMatchPercent(c.Record.MatchPercent)
		if err != nil {
			continue
		}

		if !best.Found || score > bestScore {
			best = models.BestMatch{
				Filename: c.Filename,
				Record:   c.Record,
				Found:    true,
			}
			bestScore = score
		}
	}

	return best
}
