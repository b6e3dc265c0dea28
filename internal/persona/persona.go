package persona

const (
	Legal     = "legal"
	Financial = "financial"
	Technical = "technical"
	Academic  = "academic"
	Narrative = "narrative"

	// Default is used when a turn names no persona.
	Default = Narrative
	// FallbackFile is sent for personas outside the table.
	FallbackFile = "sample_technical_spec.txt"
)

// Files maps each persona to the sample document it is asked about.
// Read-only.
var Files = map[string]string{
	Legal:     "sample_legal_contract.txt",
	Financial: "sample_financial_report.txt",
	Technical: "sample_technical_spec.txt",
	Academic:  "sample_academic_paper.txt",
	Narrative: "sample_narrative_story.txt",
}

// Filename resolves a persona to its sample document.
// Unknown personas silently fall back to the technical spec.
func Filename(name string) string {
	if f, ok := Files[name]; ok {
		return f
	}
	return FallbackFile
}

// Known reports whether name is one of the fixed personas.
func Known(name string) bool {
	_, ok := Files[name]
	return ok
}
