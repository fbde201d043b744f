// Package detection composes acquisition, decoding, feature extraction,
// classification and the decision policy into one inference transaction.
package detection

// Result is the outcome of one inference call. It is created fresh per
// request, never mutated after construction and never persisted.
type Result struct {
	Label            string  `json:"label"`
	Confidence       float64 `json:"confidence"`
	Language         string  `json:"language"`
	Explanation      string  `json:"fraud_risk_explanation"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
}
