package detection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/verbalis/voicedetect-go/internal/conf"
)

func testPolicy() *Policy {
	return NewPolicy(&conf.PolicySettings{
		OverrideThreshold: 0.85,
		HighConfidence:    0.85,
		LowConfidence:     0.65,
	})
}

func TestPolicyApply(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name       string
		label      string
		confidence float64
		want       string
	}{
		{"AI below threshold downgrades", LabelAI, 0.84, LabelHuman},
		{"AI at threshold stays", LabelAI, 0.85, LabelAI},
		{"AI above threshold stays", LabelAI, 0.97, LabelAI},
		{"AI barely below downgrades", LabelAI, 0.8499, LabelHuman},
		{"human low confidence stays", LabelHuman, 0.51, LabelHuman},
		{"human high confidence stays", LabelHuman, 0.99, LabelHuman},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Apply(tt.label, tt.confidence))
		})
	}
}

func TestPolicyExplainTiers(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		name       string
		label      string
		confidence float64
		contains   string
	}{
		{"AI high", LabelAI, 0.95, "High confidence AI-generated voice detected"},
		{"AI at high boundary falls to moderate", LabelAI, 0.85, "moderate confidence"},
		{"AI moderate", LabelAI, 0.70, "Likely AI-generated voice"},
		{"AI low", LabelAI, 0.60, "Possible AI-generated voice"},
		{"human high", LabelHuman, 0.95, "High confidence human voice detected"},
		{"human moderate", LabelHuman, 0.70, "Likely human voice"},
		{"human low", LabelHuman, 0.55, "Possible human voice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, p.Explain(tt.label, tt.confidence), tt.contains)
		})
	}
}
