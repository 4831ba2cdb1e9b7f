package domain

import "strings"

// Intent is the coarse category of a user question.
type Intent string

// Supported intents.
const (
	IntentInstruction Intent = "instruction"
	IntentSetup       Intent = "setup"
	IntentDiagnosis   Intent = "diagnosis"
	IntentMaintenance Intent = "maintenance"
	IntentExplanation Intent = "explanation"
	IntentSafety      Intent = "safety"
)

// AllIntents returns the closed intent taxonomy.
func AllIntents() []Intent {
	return []Intent{
		IntentInstruction,
		IntentSetup,
		IntentDiagnosis,
		IntentMaintenance,
		IntentExplanation,
		IntentSafety,
	}
}

// IsValid returns true if the intent is part of the taxonomy.
func (i Intent) IsValid() bool {
	for _, known := range AllIntents() {
		if i == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}

// Style returns the answer-formatting instruction for the intent.
func (i Intent) Style() string {
	switch i {
	case IntentInstruction:
		return "Answer with clear, numbered steps."
	case IntentSetup:
		return "Explain how to install or configure it properly."
	case IntentDiagnosis:
		return "List possible causes and recommended solutions."
	case IntentMaintenance:
		return "Explain how and when to perform maintenance."
	case IntentSafety:
		return "List all relevant safety warnings and precautions."
	default:
		return "Provide a clear and concise explanation."
	}
}

// ParseIntent interprets a model reply, falling back to explanation.
func ParseIntent(reply string) Intent {
	s := strings.ToLower(strings.TrimSpace(reply))
	s = strings.Trim(s, " \t\r\n.,;:!\"'`*")
	if i := Intent(s); i.IsValid() {
		return i
	}
	return IntentExplanation
}
