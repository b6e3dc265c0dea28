package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		persona string
		want    string
	}{
		{Legal, "sample_legal_contract.txt"},
		{Financial, "sample_financial_report.txt"},
		{Technical, "sample_technical_spec.txt"},
		{Academic, "sample_academic_paper.txt"},
		{Narrative, "sample_narrative_story.txt"},
		{"poetic", FallbackFile},
		{"", FallbackFile},
		{"Legal", FallbackFile},
	}
	for _, tt := range tests {
		t.Run(tt.persona, func(t *testing.T) {
			assert.Equal(t, tt.want, Filename(tt.persona))
		})
	}
}

func TestKnown(t *testing.T) {
	assert.True(t, Known(Academic))
	assert.False(t, Known("medical"))
}
