package eligibility

import (
	"math"
	"time"

	"walletiq/internal/domain"
)

// ScoreProject combines one project's criterion results into a 0-100
// score. A project with no criteria (or an all-zero weight sum) scores 0.
func ScoreProject(project domain.Project, results []domain.CriterionResult) (domain.ProjectScore, error) {
	score := domain.ProjectScore{
		ProjectID:     project.ID,
		ProjectName:   project.Name,
		Status:        project.Status,
		TotalCriteria: len(project.Criteria),
		Criteria:      results,
	}

	var weightSum, metSum float64
	for i, c := range project.Criteria {
		w, err := criterionWeight(c)
		if err != nil {
			return domain.ProjectScore{}, err
		}
		weightSum += w
		if i < len(results) && results[i].Met {
			metSum += w
			score.MatchedCriteria++
		}
	}

	if weightSum == 0 {
		score.Score = 0
		return score, nil
	}
	score.Score = clampScore(math.Round(100 * metSum / weightSum))
	return score, nil
}

// Report builds the full eligibility report for a profile across the
// project registry. The overall score is the estimated-value-weighted
// average of project scores; projects with a zero or missing value get
// the mean of the remaining weights so the denominator never collapses.
func Report(profile *domain.WalletProfile, projects []domain.Project, now time.Time) (*domain.EligibilityReport, error) {
	report := &domain.EligibilityReport{
		Address:       profile.Address,
		ProjectScores: make([]domain.ProjectScore, 0, len(projects)),
		Degraded:      profile.Degraded(),
		Timestamp:     now.UTC(),
	}

	for _, project := range projects {
		results := Evaluate(profile, project.Criteria)
		score, err := ScoreProject(project, results)
		if err != nil {
			return nil, err
		}
		report.ProjectScores = append(report.ProjectScores, score)
	}

	report.OverallScore = overallScore(projects, report.ProjectScores)
	return report, nil
}

// overallScore computes the value-weighted average of project scores,
// clamped to [0,100].
func overallScore(projects []domain.Project, scores []domain.ProjectScore) int {
	if len(scores) == 0 {
		return 0
	}

	weights := make([]float64, len(projects))
	var valueSum float64
	valued := 0
	for i, p := range projects {
		if p.EstimatedValue > 0 {
			weights[i] = p.EstimatedValue
			valueSum += p.EstimatedValue
			valued++
		}
	}

	// Unvalued projects weigh in at the mean of the valued ones, or 1
	// when no project carries a value at all.
	fill := 1.0
	if valued > 0 {
		fill = valueSum / float64(valued)
	}
	for i := range weights {
		if weights[i] == 0 {
			weights[i] = fill
		}
	}

	var weightSum, total float64
	for i, s := range scores {
		weightSum += weights[i]
		total += weights[i] * float64(s.Score)
	}
	if weightSum == 0 {
		return 0
	}
	return clampScore(math.Round(total / weightSum))
}

func clampScore(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
