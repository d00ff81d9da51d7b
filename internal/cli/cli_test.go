package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MANIMGEN_WORK_DIR", t.TempDir())
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("GROQ_BASE_URL", "")
	t.Setenv("MANIMGEN_QUALITY", "")

	var out bytes.Buffer
	root := newRootCmd(&out, &out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerate_EmptyPromptReportsValidation(t *testing.T) {
	out, err := execute(t, "generate", "--title", "Demo One")
	var rf runFailedError
	if !errors.As(err, &rf) {
		t.Fatalf("expected reported run failure, got %v", err)
	}
	if !strings.Contains(out, "Please enter a prompt.") {
		t.Fatalf("expected validation banner, got:\n%s", out)
	}
	if strings.Contains(out, "Generating Manim script") {
		t.Fatalf("no request should start for an empty prompt:\n%s", out)
	}
}

func TestGenerate_MissingKeyFailsAtRequest(t *testing.T) {
	out, err := execute(t, "generate", "Show", "a", "circle")
	var rf runFailedError
	if !errors.As(err, &rf) {
		t.Fatalf("expected reported run failure, got %v", err)
	}
	if !strings.Contains(out, "GROQ_API_KEY is not set") {
		t.Fatalf("expected auth failure banner, got:\n%s", out)
	}
}

func TestGenerate_ConfigErrorsAreNotRunFailures(t *testing.T) {
	_, err := execute(t, "generate", "--quality", "ultra", "circle")
	if err == nil || !strings.Contains(err.Error(), `unknown quality "ultra"`) {
		t.Fatalf("expected quality error, got %v", err)
	}
	var rf runFailedError
	if errors.As(err, &rf) {
		t.Fatalf("config errors must be printed by Main, got run failure")
	}
}

func TestRoot_UnknownFlag(t *testing.T) {
	_, err := execute(t, "generate", "--wat")
	if err == nil || !strings.Contains(err.Error(), "unknown flag: --wat") {
		t.Fatalf("expected unknown flag error, got %v", err)
	}
}
