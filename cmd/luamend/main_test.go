package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFindConfigFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := findConfigFile(dir); !errors.Is(err, errConfigNotFound) {
		t.Fatalf("expected errConfigNotFound, got %v", err)
	}

	writeFile(t, filepath.Join(dir, "luamend.yml"), "includes: [math]")
	found, err := findConfigFile(dir)
	if err != nil {
		t.Fatalf("findConfigFile returned error: %v", err)
	}
	if want := filepath.Join(dir, "luamend.yml"); found != want {
		t.Fatalf("findConfigFile = %q, want %q", found, want)
	}
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := captureCLI(t, []string{"--version"})
	if code != 0 {
		t.Fatalf("version exited %d", code)
	}
	if !strings.Contains(stdout, "luamend") {
		t.Fatalf("expected version string, got %q", stdout)
	}
}

func TestRunWithoutArguments(t *testing.T) {
	if code, _, _ := captureCLI(t, nil); code != 1 {
		t.Fatalf("expected exit code 1 for missing arguments")
	}
}

func TestProcessWritesToStdout(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "input.lua")
	writeFile(t, source, "local a = 1 + 2\nreturn a")

	code, stdout, stderr := captureCLI(t, []string{"process", source})
	if code != 0 {
		t.Fatalf("process exited %d (stderr: %q)", code, stderr)
	}
	if want := "local a = 3\nreturn 3\n"; stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}
}

func TestProcessInPlace(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "input.lua")
	writeFile(t, source, "return 2 * 21")

	code, stdout, stderr := captureCLI(t, []string{"process", "--in-place", source})
	if code != 0 {
		t.Fatalf("process exited %d (stderr: %q)", code, stderr)
	}
	if stdout != "" {
		t.Fatalf("expected no stdout with --in-place, got %q", stdout)
	}
	contents, err := os.ReadFile(source)
	if err != nil {
		t.Fatalf("read rewritten file: %v", err)
	}
	if want := "return 42\n"; string(contents) != want {
		t.Fatalf("rewritten file = %q, want %q", string(contents), want)
	}
}

func TestProcessWithConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "luamend.yml")
	writeFile(t, configPath, "includes: [math]")
	source := filepath.Join(dir, "input.lua")
	writeFile(t, source, "return math.max(1, 5)")

	code, stdout, stderr := captureCLI(t, []string{"process", "--config", configPath, source})
	if code != 0 {
		t.Fatalf("process exited %d (stderr: %q)", code, stderr)
	}
	if want := "return 5\n"; stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}
}

func TestProcessFindsConfigInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "luamend.yml"), "perform_mutations: false")
	source := filepath.Join(dir, "input.lua")
	writeFile(t, source, "local a = 1 + 2")

	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer func() {
		if chdirErr := os.Chdir(oldWD); chdirErr != nil {
			t.Fatalf("restore working directory: %v", chdirErr)
		}
	}()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	code, stdout, stderr := captureCLI(t, []string{"process", "input.lua"})
	if code != 0 {
		t.Fatalf("process exited %d (stderr: %q)", code, stderr)
	}
	if want := "local a = 1 + 2\n"; stdout != want {
		t.Fatalf("stdout = %q, want %q", stdout, want)
	}
}

func TestProcessReportsParseErrors(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "broken.lua")
	writeFile(t, source, "local = 5")

	code, _, stderr := captureCLI(t, []string{"process", source})
	if code == 0 {
		t.Fatalf("expected failure for unparsable source")
	}
	if !strings.Contains(stderr, "broken.lua") {
		t.Fatalf("expected file name in error, got %q", stderr)
	}
}

func TestProcessReportsMissingFile(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := captureCLI(t, []string{"process", filepath.Join(dir, "absent.lua")})
	if code == 0 {
		t.Fatalf("expected failure for missing file")
	}
	if stderr == "" {
		t.Fatalf("expected error output")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(strings.TrimSpace(contents)+"\n"), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}

func captureCLI(t *testing.T, args []string) (int, string, string) {
	t.Helper()

	stdout := os.Stdout
	stderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("stdout pipe: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("stderr pipe: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code := run(args)

	if err := wOut.Close(); err != nil {
		t.Fatalf("stdout close: %v", err)
	}
	if err := wErr.Close(); err != nil {
		t.Fatalf("stderr close: %v", err)
	}

	os.Stdout = stdout
	os.Stderr = stderr

	outBytes, err := io.ReadAll(rOut)
	if err != nil {
		t.Fatalf("stdout read: %v", err)
	}
	errBytes, err := io.ReadAll(rErr)
	if err != nil {
		t.Fatalf("stderr read: %v", err)
	}

	return code, string(outBytes), string(errBytes)
}
