package detector

import (
	"regexp"
	"strings"
)

// All patterns run against text normalized by terms.Normalize (lowercase,
// marks stripped).
var (
	dosagePattern = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:mg|g|ml|cc|mcg|units?)\b`)

	frequencyPattern = regexp.MustCompile(`(?i)\b(?:` +
		`(?:\d+|one|two|three|four|five|six|once|twice)\s+times?\s+(?:a\s+|per\s+|each\s+)?(?:day|daily|week|month|hour)s?` +
		`|every\s+(?:\d+|other)\s+(?:hours?|days?)` +
		`|(?:once|twice)\s+(?:a\s+|per\s+)?(?:day|daily|week|month)` +
		`|every\s+(?:morning|night|evening)` +
		`|at\s+bedtime` +
		`|bid|tid|qid|qd|qhs|prn` +
		`|nightly|daily` +
		`)\b`)

	durationPattern = regexp.MustCompile(`(?i)\bfor\s+(?:\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten)\s+(?:days?|weeks?|months?)\b`)

	prescribePattern = regexp.MustCompile(`(?i)\b(?:prescrib(?:e|es|ed|ing)|prescription|rx)\b`)

	labOrderPattern = regexp.MustCompile(`(?i)\b(?:order(?:ing)?|need|get|run|check|draw(?:ing)?)\b[^.!?]{0,60}?\b(?:tests?|labs?|lab work|blood work|bloodwork|panel|levels?|count|cultures?)\b`)

	referralPattern = regexp.MustCompile(`(?i)\b(?:refer(?:ring|red)?\s+(?:you\s+|her\s+|him\s+|them\s+)?to|see\s+an?|consult(?:ation)?\s+with|sending\s+you\s+to)\s+(?:a\s+|an\s+|the\s+)?([a-z][a-z-]*(?:\s+[a-z][a-z-]*){0,2})`)

	followUpPattern = regexp.MustCompile(`(?i)\b(?:come\s+back|follow[- ]?up|see\s+you|return|schedule)\b`)

	timeframePattern = regexp.MustCompile(`(?i)\b(?:(?:in\s+)?(?:\d+|a|an|one|two|three|four|five|six|seven|eight|nine|ten|couple\s+of|few)\s+(?:days?|weeks?|months?)|next\s+(?:week|month)|tomorrow)\b`)

	imagingPattern = regexp.MustCompile(`(?i)\b(?:x[- ]?ray|mri|ct\s+scan|cat\s+scan|ultrasound|echo(?:cardiogram)?|ekg|ecg|mammogram|colonoscopy)\b`)

	urgencyPattern = regexp.MustCompile(`(?i)\b(?:stat|urgent(?:ly)?|immediately|emergent|asap|right\s+away)\b`)
)

// urgencyIn returns the escalated urgency for the utterance, defaulting to
// routine when no urgency keyword is present.
func urgencyIn(text string) Urgency {
	keyword := urgencyPattern.FindString(text)
	if keyword == "" {
		return UrgencyRoutine
	}
	switch {
	case strings.HasPrefix(keyword, "stat"):
		return UrgencyStat
	case strings.HasPrefix(keyword, "emergent"):
		return UrgencyEmergent
	default:
		return UrgencyUrgent
	}
}

// knownSpecialties validates the token captured by referralPattern.
var knownSpecialties = map[string]bool{
	"cardiologist":       true,
	"cardiology":         true,
	"dermatologist":      true,
	"dermatology":        true,
	"neurologist":        true,
	"neurology":          true,
	"orthopedist":        true,
	"orthopedics":        true,
	"gastroenterologist": true,
	"endocrinologist":    true,
	"psychiatrist":       true,
	"psychologist":       true,
	"oncologist":         true,
	"urologist":          true,
	"rheumatologist":     true,
	"pulmonologist":      true,
	"ophthalmologist":    true,
	"nephrologist":       true,
	"allergist":          true,
	"gynecologist":       true,
	"obstetrician":       true,
	"podiatrist":         true,
	"otolaryngologist":   true,
	"ent":                true,
	"physical therapist": true,
}

// validateSpecialty resolves the captured phrase to a specialty. The capture
// may include trailing words ("cardiologist next week"), so prefixes are
// tried longest first. A phrase containing "specialist" or "doctor" is also
// accepted.
func validateSpecialty(captured string) (string, bool) {
	words := strings.Fields(captured)
	max := len(words)
	if max > 3 {
		max = 3
	}
	for n := max; n >= 1; n-- {
		candidate := strings.Join(words[:n], " ")
		if knownSpecialties[candidate] {
			return candidate, true
		}
	}
	for n := 1; n <= max; n++ {
		candidate := strings.Join(words[:n], " ")
		if strings.Contains(words[n-1], "specialist") || strings.Contains(words[n-1], "doctor") {
			return candidate, true
		}
	}
	return "", false
}
