package apply

import (
	"fmt"
	"os"

	"github.com/mamaar/reshape/pkg/project"
	"github.com/mamaar/reshape/pkg/types"
)

// ChecksumSource yields the current checksum of a file. The watch cache
// satisfies it; a Validator without one hashes from disk on every check.
type ChecksumSource interface {
	Get(path string) (string, error)
}

// Validator checks a plan against current disk state before any byte is
// written. Every rejection carries the code a caller needs: stale_plan for
// content drift, resource_not_found for missing files, invalid_request for
// structural defects in the plan itself.
type Validator struct {
	project   *project.Project
	checksums ChecksumSource
}

func NewValidator(p *project.Project) *Validator {
	return &Validator{project: p}
}

// Validate runs every check. The plan is rejected when any touched file has
// no validation rule, a checksum no longer matches, a to-be-created file
// already exists, an edit range is out of bounds, or recorded original text
// no longer matches the file.
func (v *Validator) Validate(plan *types.EditPlan) error {
	if err := plan.CheckOverlaps(); err != nil {
		return err
	}

	covered := make(map[string]struct{}, len(plan.Validations))
	for _, rule := range plan.Validations {
		covered[rule.FilePath] = struct{}{}
		switch rule.Kind {
		case types.ValidateChecksum:
			if err := v.checkChecksum(rule); err != nil {
				return err
			}
		case types.ValidateFileExists:
			if _, err := os.Stat(rule.FilePath); err != nil {
				return types.NewResourceNotFound("file", rule.FilePath)
			}
		case types.ValidateFileNew:
			if _, err := os.Stat(rule.FilePath); err == nil {
				return types.NewInvalidRequest("file already exists: %s", rule.FilePath)
			}
		default:
			return types.NewInvalidRequest("unknown validation kind %q", rule.Kind)
		}
	}
	for _, file := range plan.Files() {
		if _, ok := covered[file]; !ok {
			return types.NewInvalidRequest("plan touches %s without a validation rule", file)
		}
	}

	return v.checkEdits(plan)
}

func (v *Validator) checkChecksum(rule types.ValidationRule) error {
	actual, err := v.currentChecksum(rule.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return types.NewResourceNotFound("file", rule.FilePath)
		}
		return fmt.Errorf("failed to checksum %s: %w", rule.FilePath, err)
	}
	if actual != rule.Checksum {
		return types.NewStalePlan(rule.FilePath, rule.Checksum, actual)
	}
	return nil
}

func (v *Validator) currentChecksum(path string) (string, error) {
	if v.checksums != nil {
		return v.checksums.Get(path)
	}
	return project.ChecksumFile(path)
}

// checkEdits verifies ranges and recorded original text against current
// content. Checksums already passed, so a mismatch here means the plan
// itself is inconsistent rather than the file having drifted; it is still
// reported as staleness because the fix is the same: regenerate the plan.
func (v *Validator) checkEdits(plan *types.EditPlan) error {
	contents := make(map[string][]byte)
	for _, edit := range plan.AllEdits() {
		content, ok := contents[edit.FilePath]
		if !ok {
			var err error
			content, err = os.ReadFile(edit.FilePath)
			if err != nil {
				if os.IsNotExist(err) {
					return types.NewResourceNotFound("file", edit.FilePath)
				}
				return fmt.Errorf("failed to read %s: %w", edit.FilePath, err)
			}
			contents[edit.FilePath] = content
		}
		actual, err := types.ExtractRange(content, edit.Location)
		if err != nil {
			return types.NewInvalidRequest("edit range %s is invalid in %s: %v",
				edit.Location, v.project.Rel(edit.FilePath), err)
		}
		if actual != edit.OriginalText {
			return types.NewStalePlan(edit.FilePath, edit.OriginalText, actual).
				WithDetail("location", edit.Location.String())
		}
	}
	return nil
}
