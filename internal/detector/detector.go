package detector

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/medlingo/interpreter-gateway/internal/events"
	"github.com/medlingo/interpreter-gateway/internal/observability"
	"github.com/medlingo/interpreter-gateway/internal/terms"
)

// Dosage mentions this close to a medication name boost its match confidence.
const dosageProximity = 50

// Detector is the rule-based medical action engine. It is stateless beyond
// the read-only term index and safe for concurrent use.
type Detector struct {
	index  *terms.Index
	logger zerolog.Logger
}

// New creates a detector over the given term index. A nil index means the
// default vocabulary.
func New(index *terms.Index) *Detector {
	if index == nil {
		index = terms.NewIndex()
	}
	return &Detector{
		index:  index,
		logger: observability.GetLogger().With().Str("component", "detector").Logger(),
	}
}

// Detect extracts clinical actions from one utterance. Non-clinician
// utterances never yield actions. Each of the five matchers contributes at
// most one action of its type; a failure in one matcher does not suppress
// the others.
func (d *Detector) Detect(text string, role events.SpeakerRole, dctx Context) []Action {
	if role != events.RoleClinician {
		return nil
	}

	normalized := terms.Normalize(text)

	matchers := []struct {
		name string
		fn   func(string) *Action
	}{
		{"prescription", d.matchPrescription},
		{"lab_order", d.matchLabOrder},
		{"referral", d.matchReferral},
		{"follow_up", d.matchFollowUp},
		{"diagnostic_test", d.matchDiagnosticTest},
	}

	var actions []Action
	for _, m := range matchers {
		action := d.runMatcher(m.name, m.fn, normalized)
		if action == nil {
			continue
		}
		action.SourceText = text
		action.Confidence = clamp01(action.Confidence)
		action.Context = dctx
		actions = append(actions, *action)
	}
	return actions
}

// runMatcher isolates a single matcher: a panic is logged and treated as no
// match so the remaining matchers still run.
func (d *Detector) runMatcher(name string, fn func(string) *Action, text string) (action *Action) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Interface("panic", r).Str("matcher", name).Msg("Matcher failed")
			action = nil
		}
	}()
	return fn(text)
}

func (d *Detector) matchPrescription(text string) *Action {
	meds := d.index.FindCategory(text, terms.CategoryMedication)
	if len(meds) == 0 {
		return nil
	}

	// A dosage near the medication name raises confidence in that match
	dosageLocs := dosagePattern.FindAllStringIndex(text, -1)
	for i := range meds {
		for _, loc := range dosageLocs {
			if abs(loc[0]-meds[i].Position) <= dosageProximity {
				meds[i].Confidence = math.Min(meds[i].Confidence+0.1, 1.0)
				break
			}
		}
	}

	best := meds[0]
	for _, m := range meds[1:] {
		if m.Confidence > best.Confidence {
			best = m
		}
	}

	score := 0.0
	dosage := dosagePattern.FindString(text)
	if dosage != "" {
		score += 0.3
	}
	frequency := frequencyPattern.FindString(text)
	if frequency != "" {
		score += 0.2
	}
	duration := durationPattern.FindString(text)
	if duration != "" {
		score += 0.2
	}
	if prescribePattern.MatchString(text) {
		score += 0.3
	}
	score += best.Confidence * 0.3
	score = clamp01(score)

	if score < 0.5 {
		return nil
	}

	return &Action{
		Type: TypePrescription,
		Details: PrescriptionDetails{
			Medication: best.Term.Canonical,
			Dosage:     dosage,
			Frequency:  frequency,
			Duration:   duration,
			Codes:      best.Term.Codes,
		},
		Confidence:   score,
		MatchedTerms: meds,
	}
}

func (d *Detector) matchLabOrder(text string) *Action {
	labs := d.index.FindCategory(text, terms.CategoryLab)
	ordered := labOrderPattern.MatchString(text)
	if !ordered && len(labs) == 0 {
		return nil
	}

	confidence := 0.7
	if ordered {
		confidence = 0.9
	}

	name := "laboratory tests"
	var codes terms.Codes
	if len(labs) > 0 {
		name = labs[0].Term.Canonical
		codes = labs[0].Term.Codes
	}

	return &Action{
		Type: TypeLabOrder,
		Details: LabOrderDetails{
			TestName: name,
			Urgency:  urgencyIn(text),
			Codes:    codes,
		},
		Confidence:   confidence,
		MatchedTerms: labs,
	}
}

func (d *Detector) matchReferral(text string) *Action {
	m := referralPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	specialty, ok := validateSpecialty(m[1])
	if !ok {
		return nil
	}

	return &Action{
		Type: TypeReferral,
		Details: ReferralDetails{
			Specialty: specialty,
			Priority:  urgencyIn(text),
		},
		Confidence: 0.8,
	}
}

func (d *Detector) matchFollowUp(text string) *Action {
	if !followUpPattern.MatchString(text) {
		return nil
	}

	timeframe := timeframePattern.FindString(text)
	if timeframe == "" {
		return nil
	}

	return &Action{
		Type:       TypeFollowUp,
		Details:    FollowUpDetails{Timeframe: timeframe},
		Confidence: 0.85,
	}
}

func (d *Detector) matchDiagnosticTest(text string) *Action {
	procs := d.index.FindCategory(text, terms.CategoryProcedure)
	if len(procs) > 0 {
		return &Action{
			Type: TypeDiagnosticTest,
			Details: DiagnosticTestDetails{
				TestName: procs[0].Term.Canonical,
				Urgency:  urgencyIn(text),
				Codes:    procs[0].Term.Codes,
			},
			Confidence:   0.8,
			MatchedTerms: procs,
		}
	}

	if name := imagingPattern.FindString(text); name != "" {
		return &Action{
			Type: TypeDiagnosticTest,
			Details: DiagnosticTestDetails{
				TestName: name,
				Urgency:  urgencyIn(text),
			},
			Confidence: 0.7,
		}
	}

	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
