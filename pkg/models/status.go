package models

type Status string

const (
	StatusPass        Status = "PASS"
	StatusWarning     Status = "WARNING"
	StatusDegradation Status = "DEGRADATION"
	StatusSkip        Status = "SKIP"
)

// statusSeverity ranks statuses for "worst wins" reduction. SKIP is absent
// on purpose: a skipped check carries no signal and must not elevate (or
// lower) the overall verdict.
var statusSeverity = map[Status]int{
	StatusPass:        0,
	StatusWarning:     1,
	StatusDegradation: 2,
}

// Severity returns the rank of s and whether s participates in severity
// ranking at all.
func (s Status) Severity() (int, bool) {
	rank, ok := statusSeverity[s]
	return rank, ok
}

// Worst reduces statuses to the most severe one present. Statuses outside
// the severity table (SKIP) are ignored; with no ranked statuses at all the
// result is PASS.
func Worst(statuses []Status) Status {
	worst := StatusPass
	worstRank := 0
	for _, s := range statuses {
		if rank, ok := s.Severity(); ok && rank > worstRank {
			worst = s
			worstRank = rank
		}
	}
	return worst
}

// Reaches reports whether s is at least as severe as the failOn threshold,
// used to map a verdict status to a non-zero exit code.
func (s Status) Reaches(failOn Status) bool {
	rank, ok := s.Severity()
	if !ok {
		return false
	}
	threshold, ok := failOn.Severity()
	if !ok {
		return false
	}
	return threshold > 0 && rank >= threshold
}
