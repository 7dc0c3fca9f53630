package types

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEditLocationOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b EditLocation
		want bool
	}{
		{
			name: "disjoint lines",
			a:    EditLocation{StartLine: 0, EndLine: 0, StartCol: 0, EndCol: 5},
			b:    EditLocation{StartLine: 2, EndLine: 2, StartCol: 0, EndCol: 5},
			want: false,
		},
		{
			name: "adjacent on same line",
			a:    EditLocation{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 4},
			b:    EditLocation{StartLine: 1, StartCol: 4, EndLine: 1, EndCol: 8},
			want: false,
		},
		{
			name: "overlapping on same line",
			a:    EditLocation{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 5},
			b:    EditLocation{StartLine: 1, StartCol: 4, EndLine: 1, EndCol: 8},
			want: true,
		},
		{
			name: "containment",
			a:    EditLocation{StartLine: 0, StartCol: 0, EndLine: 5, EndCol: 0},
			b:    EditLocation{StartLine: 2, StartCol: 1, EndLine: 2, EndCol: 3},
			want: true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v (symmetry)", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestEditPlanCheckOverlaps(t *testing.T) {
	plan := &EditPlan{
		SourceFile: "a.go",
		Edits: []TextEdit{
			{FilePath: "a.go", Location: EditLocation{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 3}},
			{FilePath: "a.go", Location: EditLocation{StartLine: 3, StartCol: 0, EndLine: 3, EndCol: 3}},
			{FilePath: "b.go", Location: EditLocation{StartLine: 1, StartCol: 0, EndLine: 1, EndCol: 3}},
		},
	}
	if err := plan.CheckOverlaps(); err != nil {
		t.Fatalf("expected no overlap, got %v", err)
	}

	plan.Edits = append(plan.Edits, TextEdit{
		FilePath: "a.go",
		Location: EditLocation{StartLine: 1, StartCol: 2, EndLine: 1, EndCol: 5},
	})
	err := plan.CheckOverlaps()
	if err == nil {
		t.Fatal("expected overlap error")
	}
	if CodeOf(err) != CodeInvalidRequest {
		t.Errorf("expected invalid_request, got %s", CodeOf(err))
	}
}

func TestEditPlanFiles(t *testing.T) {
	plan := &EditPlan{
		SourceFile: "src/main.py",
		Edits: []TextEdit{
			{FilePath: "src/main.py"},
			{FilePath: "src/util.py"},
		},
		DependencyUpdates: []DependencyUpdate{
			{TargetFile: "docs/readme.md", UpdateType: UpdateReference},
			{TargetFile: "src/util.py", UpdateType: UpdateImport},
		},
	}
	files := plan.Files()
	want := []string{"docs/readme.md", "src/main.py", "src/util.py"}
	if len(files) != len(want) {
		t.Fatalf("expected %d files, got %d: %v", len(want), len(files), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestEditPlanJSONRoundTrip(t *testing.T) {
	plan := &EditPlan{
		SourceFile: "lib.rs",
		Edits: []TextEdit{
			{
				FilePath:     "lib.rs",
				Location:     EditLocation{StartLine: 4, StartCol: 7, EndLine: 4, EndCol: 15},
				OriginalText: "old_name",
				NewText:      "new_name",
				Description:  "rename declaration",
			},
		},
		Validations: []ValidationRule{
			{Kind: ValidateChecksum, FilePath: "lib.rs", Checksum: "abc123"},
		},
		Metadata: PlanMetadata{
			IntentName:      "rename",
			IntentArguments: map[string]string{"new_name": "new_name"},
			CreatedAt:       time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			ComplexityScore: 2,
			Strategy:        StrategyNative,
			Safety:          SafetyRequiresReview,
		},
	}

	data, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got EditPlan
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.SourceFile != plan.SourceFile {
		t.Errorf("source file %q, want %q", got.SourceFile, plan.SourceFile)
	}
	if len(got.Edits) != 1 || got.Edits[0].Location != plan.Edits[0].Location {
		t.Errorf("edits did not survive round trip: %+v", got.Edits)
	}
	if got.Metadata.Strategy != StrategyNative {
		t.Errorf("strategy %q, want native", got.Metadata.Strategy)
	}
	if sum, ok := got.ChecksumFor("lib.rs"); !ok || sum != "abc123" {
		t.Errorf("ChecksumFor = %q, %v", sum, ok)
	}
}
