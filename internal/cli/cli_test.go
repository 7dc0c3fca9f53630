package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mamaar/reshape/pkg/lang"
	"github.com/mamaar/reshape/pkg/types"
)

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out.String()
}

func TestCapabilitiesCommand(t *testing.T) {
	out := runCommand(t, "capabilities")

	var descs []lang.Descriptor
	if err := json.Unmarshal([]byte(out), &descs); err != nil {
		t.Fatalf("output is not descriptor JSON: %v\n%s", err, out)
	}
	if len(descs) != 3 {
		t.Fatalf("expected 3 languages, got %d", len(descs))
	}
	byLang := make(map[string]lang.Descriptor)
	for _, d := range descs {
		byLang[d.Language] = d
	}
	if !byLang["go"].Has(lang.CapRefactorSupport) {
		t.Error("go should support refactoring")
	}
	if byLang["python"].Has(lang.CapWorkspaceSupport) {
		t.Error("python should not support workspaces")
	}
}

func TestVersionCommand(t *testing.T) {
	out := runCommand(t, "version")
	if out == "" {
		t.Fatal("version printed nothing")
	}
}

func TestPlanRenameCommand(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "a.py")
	if err := os.WriteFile(src, []byte("def old_name():\n    pass\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := runCommand(t, "--project", root, "plan", "rename", "a.py", "new_name", "--symbol", "old_name")

	var plan types.EditPlan
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("output is not a plan: %v\n%s", err, out)
	}
	if plan.Metadata.IntentName != "rename" {
		t.Errorf("intent = %q", plan.Metadata.IntentName)
	}
	if len(plan.Edits) != 1 {
		t.Errorf("edits = %d", len(plan.Edits))
	}
}
