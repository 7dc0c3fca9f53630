package types

// ReferenceKind classifies where a reference to a name or path was found.
// Each kind carries a different false-positive risk, so the scanner and the
// scope options both key off it.
type ReferenceKind string

const (
	RefImportStatement   ReferenceKind = "import-statement"
	RefQualifiedPath     ReferenceKind = "qualified-path"
	RefStringLiteralPath ReferenceKind = "string-literal-path"
	RefDocLink           ReferenceKind = "doc-link"
	RefConfigPathValue   ReferenceKind = "config-path-value"
	RefComment           ReferenceKind = "comment"
	RefProse             ReferenceKind = "prose"
)

// Confidence grades how certain the scanner is that a textual match is a
// genuine reference rather than coincidental text.
type Confidence string

const (
	ConfidenceWeak   Confidence = "weak"
	ConfidenceMedium Confidence = "medium"
	ConfidenceStrong Confidence = "strong"
)
