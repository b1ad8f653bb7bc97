package analyzer

import "github.com/loclocko/locomotive/pkg/models"

// Merge combines any number of result lists into one verdict. Concatenation
// preserves the caller's ordering (by convention baseline-comparison results
// come before gate results). The overall status is the most severe status
// present; a verdict made entirely of SKIPs is a PASS, since absence of an
// evaluated signal is not itself a failure.
func Merge(resultSets [][]models.Result) models.Verdict {
	var results []models.Result
	for _, set := range resultSets {
		results = append(results, set...)
	}

	statuses := make([]models.Status, len(results))
	for i, res := range results {
		statuses[i] = res.Status
	}

	return models.Verdict{
		Status:      models.Worst(statuses),
		EvaluatedAt: utcNow(),
		Summary:     models.NewSummary(results),
		Results:     results,
	}
}
