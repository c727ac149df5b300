package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"luamend/pkg/ast"
)

func TestParseConfigDefaults(t *testing.T) {
	config, err := ParseConfig(strings.NewReader(""), "luamend.yml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if config.ThrowawayVariable != "_" {
		t.Fatalf("expected default throwaway variable, got %q", config.ThrowawayVariable)
	}
	if config.MaxLoopIterations != 500 {
		t.Fatalf("expected default loop budget, got %d", config.MaxLoopIterations)
	}
	if !config.PerformMutations {
		t.Fatal("expected mutations enabled by default")
	}
	if len(config.Includes) != 0 {
		t.Fatalf("expected no includes by default, got %v", config.Includes)
	}
}

func TestParseConfigFull(t *testing.T) {
	document := `
includes:
  - math
  - tonumber
throwaway_variable: _DISCARD
max_loop_iterations: 100
perform_mutations: false
`
	config, err := ParseConfig(strings.NewReader(document), "luamend.yml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if diff := cmp.Diff([]string{"math", "tonumber"}, config.Includes); diff != "" {
		t.Fatalf("includes mismatch (-want +got):\n%s", diff)
	}
	if config.ThrowawayVariable != "_DISCARD" {
		t.Fatalf("expected _DISCARD, got %q", config.ThrowawayVariable)
	}
	if config.MaxLoopIterations != 100 {
		t.Fatalf("expected 100, got %d", config.MaxLoopIterations)
	}
	if config.PerformMutations {
		t.Fatal("expected mutations disabled")
	}
}

func TestParseConfigScalarInclude(t *testing.T) {
	config, err := ParseConfig(strings.NewReader("includes: math"), "luamend.yml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if diff := cmp.Diff([]string{"math"}, config.Includes); diff != "" {
		t.Fatalf("includes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseConfigValidation(t *testing.T) {
	cases := []struct {
		name     string
		document string
		fragment string
	}{
		{
			name:     "UnknownInclude",
			document: "includes: [os]",
			fragment: "not a library",
		},
		{
			name:     "DuplicateInclude",
			document: "includes: [math, math]",
			fragment: "listed twice",
		},
		{
			name:     "BadThrowaway",
			document: `throwaway_variable: "1bad"`,
			fragment: "not a valid identifier",
		},
		{
			name:     "NegativeBudget",
			document: "max_loop_iterations: -1",
			fragment: "must be positive",
		},
	}
	for _, tc := range cases {
		_, err := ParseConfig(strings.NewReader(tc.document), "luamend.yml")
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		validation, ok := err.(*ValidationError)
		if !ok {
			t.Fatalf("%s: expected validation error, got %T: %v", tc.name, err, err)
		}
		if !strings.Contains(validation.Error(), tc.fragment) {
			t.Fatalf("%s: expected %q in %q", tc.name, tc.fragment, validation.Error())
		}
	}
}

func TestParseConfigRejectsUnknownKeys(t *testing.T) {
	if _, err := ParseConfig(strings.NewReader("unknown_key: 1"), "luamend.yml"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadConfigFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "luamend.yml")
	if err := os.WriteFile(path, []byte("includes: [string]\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if diff := cmp.Diff([]string{"string"}, config.Includes); diff != "" {
		t.Fatalf("includes mismatch (-want +got):\n%s", diff)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRewriteAppliesEngine(t *testing.T) {
	config, err := ParseConfig(strings.NewReader("includes: [math]"), "luamend.yml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	block, err := config.Rewrite("test.lua", `return math.floor(2.7)`)
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if diff := cmp.Diff("return 2\n", ast.Render(block)); diff != "" {
		t.Fatalf("rewrite mismatch (-want +got):\n%s", diff)
	}
}

func TestRewriteWithoutMutations(t *testing.T) {
	config, err := ParseConfig(strings.NewReader("perform_mutations: false"), "luamend.yml")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	block, err := config.Rewrite("test.lua", `local a = 1 + 2`)
	if err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if diff := cmp.Diff("local a = 1 + 2\n", ast.Render(block)); diff != "" {
		t.Fatalf("expected source untouched (-want +got):\n%s", diff)
	}
}

func TestRewriteReportsParseErrors(t *testing.T) {
	config := DefaultConfig()
	if _, err := config.Rewrite("test.lua", "local = 5"); err == nil {
		t.Fatal("expected parse error")
	}
}
