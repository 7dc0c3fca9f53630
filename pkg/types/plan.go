package types

import (
	"fmt"
	"sort"
	"time"
)

// EditLocation is a half-open range in a file. Lines and columns are
// zero-based; the end position is exclusive.
type EditLocation struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

func (l EditLocation) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", l.StartLine, l.StartCol, l.EndLine, l.EndCol)
}

// Before reports whether l ends at or before other begins.
func (l EditLocation) Before(other EditLocation) bool {
	if l.EndLine != other.StartLine {
		return l.EndLine < other.StartLine
	}
	return l.EndCol <= other.StartCol
}

// Overlaps reports whether two ranges share at least one position.
func (l EditLocation) Overlaps(other EditLocation) bool {
	return !l.Before(other) && !other.Before(l)
}

// TextEdit is one textual replacement in one file.
type TextEdit struct {
	FilePath     string       `json:"filePath"`
	Location     EditLocation `json:"location"`
	OriginalText string       `json:"originalText"`
	NewText      string       `json:"newText"`
	// Priority breaks ties between edits at the same position: the
	// higher-priority edit's text lands first in the output.
	Priority    int    `json:"priority,omitempty"`
	Description string `json:"description,omitempty"`
}

// UpdateType classifies a cross-file dependency update.
type UpdateType string

const (
	UpdateImport       UpdateType = "import"
	UpdateReference    UpdateType = "reference"
	UpdateManifestPath UpdateType = "manifest-path"
)

// DependencyUpdate is an edit in a file other than the plan's source file,
// produced by the reference updater to keep cross-file references consistent.
type DependencyUpdate struct {
	TargetFile   string       `json:"targetFile"`
	UpdateType   UpdateType   `json:"updateType"`
	OldReference string       `json:"oldReference"`
	NewReference string       `json:"newReference"`
	Location     EditLocation `json:"location"`
	Confidence   Confidence   `json:"confidence,omitempty"`
}

// ValidationKind names a structural check to run before commit.
type ValidationKind string

const (
	ValidateChecksum   ValidationKind = "checksum"
	ValidateFileExists ValidationKind = "file-exists"
	// ValidateFileNew asserts the file does not exist yet; the plan
	// creates it.
	ValidateFileNew ValidationKind = "file-new"
)

// ValidationRule is a pre-commit check recorded when the plan was built.
type ValidationRule struct {
	Kind     ValidationKind `json:"kind"`
	FilePath string         `json:"filePath"`
	// Checksum is the SHA-256 hex digest of the file at plan time, set for
	// ValidateChecksum rules.
	Checksum string `json:"checksum,omitempty"`
}

// Strategy records which path produced a plan.
type Strategy string

const (
	StrategyOracle Strategy = "oracle"
	StrategyNative Strategy = "native"
)

// Safety is the advisory classification of a generated plan. It never blocks
// generation; callers consult it to decide whether to auto-apply.
type Safety string

const (
	SafetySafe           Safety = "safe"
	SafetyRequiresReview Safety = "requires_review"
	SafetyExperimental   Safety = "experimental"
)

// ImpactArea is the rough blast radius of a plan.
type ImpactArea string

const (
	ImpactLocal       ImpactArea = "local"
	ImpactFunction    ImpactArea = "function"
	ImpactFile        ImpactArea = "file"
	ImpactCrossFile   ImpactArea = "cross-file"
	ImpactCrossModule ImpactArea = "cross-module"
)

// PlanMetadata records provenance for a plan.
type PlanMetadata struct {
	IntentName      string            `json:"intentName"`
	IntentArguments map[string]string `json:"intentArguments,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	// ComplexityScore is a rough 1-10 estimate of how involved the change is.
	ComplexityScore int          `json:"complexityScore"`
	ImpactAreas     []ImpactArea `json:"impactAreas,omitempty"`
	Strategy        Strategy     `json:"strategy"`
	Safety          Safety       `json:"safety"`
}

// EditPlan is the central artifact: a full description of one refactoring,
// immutable once produced. Plan generators build it; they never write to
// disk. A separate apply step validates and executes it.
type EditPlan struct {
	SourceFile        string             `json:"sourceFile"`
	Edits             []TextEdit         `json:"edits"`
	DependencyUpdates []DependencyUpdate `json:"dependencyUpdates,omitempty"`
	FileOps           []FileOp           `json:"fileOps,omitempty"`
	Validations       []ValidationRule   `json:"validations,omitempty"`
	Metadata          PlanMetadata       `json:"metadata"`
}

// Files returns the sorted, de-duplicated set of files the plan touches,
// across both direct edits and dependency updates.
func (p *EditPlan) Files() []string {
	seen := make(map[string]struct{})
	for _, e := range p.Edits {
		seen[e.FilePath] = struct{}{}
	}
	for _, d := range p.DependencyUpdates {
		seen[d.TargetFile] = struct{}{}
	}
	for _, op := range p.FileOps {
		seen[op.Path] = struct{}{}
		if op.NewPath != "" {
			seen[op.NewPath] = struct{}{}
		}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// AllEdits flattens direct edits and dependency updates into one edit list.
// Dependency updates become plain text edits replacing the old reference.
func (p *EditPlan) AllEdits() []TextEdit {
	edits := make([]TextEdit, 0, len(p.Edits)+len(p.DependencyUpdates))
	edits = append(edits, p.Edits...)
	for _, d := range p.DependencyUpdates {
		edits = append(edits, TextEdit{
			FilePath:     d.TargetFile,
			Location:     d.Location,
			OriginalText: d.OldReference,
			NewText:      d.NewReference,
			Description:  fmt.Sprintf("update %s reference", d.UpdateType),
		})
	}
	return edits
}

// ChecksumFor returns the recorded plan-time checksum for path, if any.
func (p *EditPlan) ChecksumFor(path string) (string, bool) {
	for _, v := range p.Validations {
		if v.Kind == ValidateChecksum && v.FilePath == path {
			return v.Checksum, true
		}
	}
	return "", false
}

// CheckOverlaps verifies the plan invariant that no two edits on the same
// file have overlapping ranges. Generators call this before returning.
func (p *EditPlan) CheckOverlaps() error {
	byFile := make(map[string][]TextEdit)
	for _, e := range p.AllEdits() {
		byFile[e.FilePath] = append(byFile[e.FilePath], e)
	}
	for file, edits := range byFile {
		sort.Slice(edits, func(i, j int) bool {
			a, b := edits[i].Location, edits[j].Location
			if a.StartLine != b.StartLine {
				return a.StartLine < b.StartLine
			}
			return a.StartCol < b.StartCol
		})
		for i := 1; i < len(edits); i++ {
			if edits[i-1].Location.Overlaps(edits[i].Location) {
				return NewInvalidRequest("plan contains overlapping edits in %s at %s and %s",
					file, edits[i-1].Location, edits[i].Location)
			}
		}
	}
	return nil
}
