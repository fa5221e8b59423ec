package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nodegraph.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	cfg := writeConfig(t, "log: {level: error}\ndiagnostics: {color: never}\ntypes:\n  - name: Image\n")
	code = run(append([]string{"--config", cfg}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestDemo(t *testing.T) {
	code, out, errOut := runCLI(t, "demo", "4")
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, errOut)
	}
	for _, want := range []string{
		"addThree", "4 => 7",
		"square", "4 => 16",
		"negate", "4 => -8",
		"hundredOver", "Int -> String", "4 => 25",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDemoRuntimeFailure(t *testing.T) {
	code, out, errOut := runCLI(t, "demo", "0")
	if code != 1 {
		t.Fatalf("exit code %d, want 1", code)
	}
	if !strings.Contains(errOut, "error[R001]") || !strings.Contains(errOut, "division by zero") {
		t.Errorf("stderr = %q", errOut)
	}
	// the other programs still ran
	if !strings.Contains(out, "0 => 3") {
		t.Errorf("output = %q", out)
	}
}

func TestListings(t *testing.T) {
	code, out, _ := runCLI(t, "types")
	if code != 0 || !strings.Contains(out, "Int") || !strings.Contains(out, "Image") {
		t.Errorf("types: code %d, output:\n%s", code, out)
	}

	code, out, _ = runCLI(t, "classes")
	if code != 0 || !strings.Contains(out, "add ::") || !strings.Contains(out, "addFloat :: Float -> Float -> Float") {
		t.Errorf("classes: code %d, output:\n%s", code, out)
	}

	code, out, _ = runCLI(t, "builtins")
	if code != 0 || !strings.Contains(out, "showInt") {
		t.Errorf("builtins: code %d, output:\n%s", code, out)
	}
}

func TestUsageErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(nil, &out, &errOut); code != 2 || !strings.Contains(errOut.String(), "Usage") {
		t.Errorf("no args: code %d, stderr %q", code, errOut.String())
	}

	code, _, errOut2 := runCLI(t, "frobnicate")
	if code != 2 || !strings.Contains(errOut2, "Unknown command: frobnicate") {
		t.Errorf("unknown command: code %d, stderr %q", code, errOut2)
	}

	code, _, errOut2 = runCLI(t, "demo", "four")
	if code != 2 || !strings.Contains(errOut2, "invalid argument") {
		t.Errorf("bad demo arg: code %d, stderr %q", code, errOut2)
	}

	errOut.Reset()
	bad := writeConfig(t, "log: {level: loud}\n")
	if code := run([]string{"--config", bad, "types"}, &out, &errOut); code != 1 || !strings.Contains(errOut.String(), "log.level") {
		t.Errorf("bad config: code %d, stderr %q", code, errOut.String())
	}
}
