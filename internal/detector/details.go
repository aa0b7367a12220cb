package detector

import "github.com/medlingo/interpreter-gateway/internal/terms"

// Type discriminates the kinds of clinical actions the rule engine extracts.
type Type string

const (
	TypePrescription   Type = "prescription"
	TypeLabOrder       Type = "lab_order"
	TypeReferral       Type = "referral"
	TypeFollowUp       Type = "follow_up"
	TypeDiagnosticTest Type = "diagnostic_test"
)

// Urgency escalation for orders and tests.
type Urgency string

const (
	UrgencyRoutine  Urgency = "routine"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyStat     Urgency = "stat"
	UrgencyEmergent Urgency = "emergent"
)

// Details is the type-discriminated payload of a detected action. Exactly
// one concrete shape exists per action type; the sealed interface lets a
// switch over variants be checked for exhaustiveness.
type Details interface {
	ActionType() Type
}

// PrescriptionDetails describes a medication order.
type PrescriptionDetails struct {
	Medication string      `json:"medication"`
	Dosage     string      `json:"dosage,omitempty"`
	Frequency  string      `json:"frequency,omitempty"`
	Duration   string      `json:"duration,omitempty"`
	Codes      terms.Codes `json:"codes,omitempty"`
}

func (PrescriptionDetails) ActionType() Type { return TypePrescription }

// LabOrderDetails describes a laboratory order.
type LabOrderDetails struct {
	TestName string      `json:"testName"`
	Urgency  Urgency     `json:"urgency"`
	Codes    terms.Codes `json:"codes,omitempty"`
}

func (LabOrderDetails) ActionType() Type { return TypeLabOrder }

// ReferralDetails describes a referral to a specialist.
type ReferralDetails struct {
	Specialty string  `json:"specialty"`
	Priority  Urgency `json:"priority"`
}

func (ReferralDetails) ActionType() Type { return TypeReferral }

// FollowUpDetails describes a follow-up appointment instruction.
type FollowUpDetails struct {
	Timeframe string `json:"timeframe"`
}

func (FollowUpDetails) ActionType() Type { return TypeFollowUp }

// DiagnosticTestDetails describes an imaging or diagnostic procedure order.
type DiagnosticTestDetails struct {
	TestName string      `json:"testName"`
	Urgency  Urgency     `json:"urgency"`
	Codes    terms.Codes `json:"codes,omitempty"`
}

func (DiagnosticTestDetails) ActionType() Type { return TypeDiagnosticTest }

// Context carries the conversation the utterance belongs to.
type Context struct {
	ConversationID string `json:"conversationId,omitempty"`
	UtteranceID    string `json:"utteranceId,omitempty"`
}

// Action is one structured clinical directive extracted from an utterance.
// It has no identity of its own until a caller persists it.
type Action struct {
	Type         Type          `json:"type"`
	Details      Details       `json:"details"`
	Confidence   float64       `json:"confidence"`
	SourceText   string        `json:"sourceText"`
	MatchedTerms []terms.Match `json:"matchedTerms,omitempty"`
	Context      Context       `json:"context,omitempty"`
}
