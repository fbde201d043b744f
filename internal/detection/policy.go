package detection

import "github.com/verbalis/voicedetect-go/internal/conf"

// Class labels as reported to callers.
const (
	LabelHuman = "HUMAN"
	LabelAI    = "AI_GENERATED"
)

// Policy maps a raw classifier output to the reported label and explanation.
// It is state-free; thresholds come from configuration.
type Policy struct {
	settings conf.PolicySettings
}

// NewPolicy creates a Policy from the policy settings.
func NewPolicy(settings *conf.PolicySettings) *Policy {
	return &Policy{settings: *settings}
}

// Apply returns the final reported label. An AI_GENERATED verdict below the
// override threshold is downgraded to HUMAN, biasing the system against
// false fraud accusations. The confidence value itself is never adjusted,
// only the label flips.
func (p *Policy) Apply(label string, confidence float64) string {
	if label == LabelAI && confidence < p.settings.OverrideThreshold {
		return LabelHuman
	}
	return label
}

// Explain returns the fraud-risk narrative for the final label and
// confidence tier.
func (p *Policy) Explain(label string, confidence float64) string {
	if label == LabelAI {
		switch {
		case confidence > p.settings.HighConfidence:
			return "High confidence AI-generated voice detected. " +
				"Spectral patterns show synthetic characteristics. " +
				"Recommend additional verification for fraud prevention."
		case confidence > p.settings.LowConfidence:
			return "Likely AI-generated voice with moderate confidence. " +
				"Some synthetic markers detected. " +
				"Proceed with caution in sensitive contexts."
		default:
			return "Possible AI-generated voice with low confidence. " +
				"Mixed signals detected. " +
				"Consider secondary verification methods."
		}
	}

	switch {
	case confidence > p.settings.HighConfidence:
		return "High confidence human voice detected. " +
			"Natural acoustic patterns consistent with human speech. " +
			"Low fraud risk based on audio analysis."
	case confidence > p.settings.LowConfidence:
		return "Likely human voice with moderate confidence. " +
			"Predominantly natural speech characteristics. " +
			"Standard verification recommended."
	default:
		return "Possible human voice with low confidence. " +
			"Ambiguous acoustic features. " +
			"Additional verification recommended for high-stakes decisions."
	}
}
