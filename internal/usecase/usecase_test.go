package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/forPelevin/manimgen/internal/apperr"
	"github.com/forPelevin/manimgen/internal/domain/scene"
	"github.com/forPelevin/manimgen/internal/types"
)

type fakeLLM struct {
	out   string
	err   error
	calls int
	got   string
}

func (f *fakeLLM) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.got = prompt
	return f.out, f.err
}

type fakeScripts struct {
	err    error
	calls  int
	title  string
	code   string
	prefix string
}

func (f *fakeScripts) WriteScript(title, code string) (string, error) {
	f.calls++
	f.title, f.code = title, code
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join(f.prefix, scene.ScriptFileName(title)), nil
}

type fakeRenderer struct {
	out   types.RenderOutcome
	err   error
	calls int
	path  string
}

func (f *fakeRenderer) Render(_ context.Context, scriptPath string) (types.RenderOutcome, error) {
	f.calls++
	f.path = scriptPath
	return f.out, f.err
}

type fakeLocator struct {
	videos []string
	err    error
	calls  int
}

func (f *fakeLocator) Locate(scriptPath string) (string, []string, error) {
	f.calls++
	return scene.OutputDir("media", scriptPath, scene.QualityLow), f.videos, f.err
}

type fakeProber struct {
	d   time.Duration
	err error
}

func (f fakeProber) ProbeDuration(context.Context, string) (time.Duration, error) {
	return f.d, f.err
}

type fixture struct {
	llm      *fakeLLM
	scripts  *fakeScripts
	renderer *fakeRenderer
	locator  *fakeLocator
	stages   []types.Stage
}

func newFixture() *fixture {
	return &fixture{
		llm:      &fakeLLM{out: "from manim import *\nclass Demo(Scene):\n    pass"},
		scripts:  &fakeScripts{},
		renderer: &fakeRenderer{},
		locator:  &fakeLocator{videos: []string{"Demo.mp4"}},
	}
}

func (f *fixture) run(t *testing.T, req types.GenerationRequest, prober *fakeProber) (types.Result, error) {
	t.Helper()
	d := Deps{LLM: f.llm, Scripts: f.scripts, Renderer: f.renderer, Locator: f.locator}
	if prober != nil {
		d.Prober = *prober
	}
	return New(d).Run(context.Background(), Input{
		Request: req,
		OnStage: func(s types.Stage) { f.stages = append(f.stages, s) },
	})
}

func TestRun_Success(t *testing.T) {
	f := newFixture()
	res, err := f.run(t, types.GenerationRequest{Title: "Demo One", Prompt: "Show a circle turning into a square"}, &fakeProber{d: 3 * time.Second})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Succeeded() || res.Message != "Video generated successfully!" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.llm.got != "Show a circle turning into a square" {
		t.Fatalf("prompt not passed verbatim: %q", f.llm.got)
	}
	if res.Script.FilePath != "manim_script_Demo_One.py" || f.renderer.path != res.Script.FilePath {
		t.Fatalf("unexpected script path %q (rendered %q)", res.Script.FilePath, f.renderer.path)
	}
	wantDir := filepath.Join("media", "videos", "manim_script_Demo_One", "480p15")
	if res.Render.OutputDirectory != wantDir {
		t.Fatalf("output dir = %q, want %q", res.Render.OutputDirectory, wantDir)
	}
	if res.VideoPath != filepath.Join(wantDir, "Demo.mp4") {
		t.Fatalf("unexpected video path %q", res.VideoPath)
	}
	if res.VideoLength != 3*time.Second {
		t.Fatalf("expected probed duration, got %v", res.VideoLength)
	}
	if res.Script.SanitizedText != "" {
		t.Fatalf("code must not be returned when show-code is off")
	}
	want := []types.Stage{
		types.StageValidating, types.StageRequesting, types.StageSanitizing,
		types.StageWriting, types.StageRendering, types.StageLocating, types.StageSuccess,
	}
	if !reflect.DeepEqual(f.stages, want) {
		t.Fatalf("stages = %v, want %v", f.stages, want)
	}
}

func TestRun_EmptyPromptStopsBeforeAnyCall(t *testing.T) {
	for _, prompt := range []string{"", "   \n\t"} {
		f := newFixture()
		res, err := f.run(t, types.GenerationRequest{Title: "Demo", Prompt: prompt}, nil)
		if !apperr.IsValidation(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if res.FailedStage != types.StageValidating || res.Message != "Please enter a prompt." {
			t.Fatalf("unexpected result: %+v", res)
		}
		if f.llm.calls+f.scripts.calls+f.renderer.calls+f.locator.calls != 0 {
			t.Fatalf("expected no external calls")
		}
	}
}

func TestRun_FencedCompletionIsSanitizedBeforeWrite(t *testing.T) {
	f := newFixture()
	f.llm.out = "```python\nfrom manim import *\nclass Demo(Scene):\n    def construct(self): self.add(Circle())\n```"

	res, err := f.run(t, types.GenerationRequest{Prompt: "circle", ShowCode: true}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "from manim import *\nclass Demo(Scene):\n    def construct(self): self.add(Circle())"
	if f.scripts.code != want {
		t.Fatalf("written code = %q, want %q", f.scripts.code, want)
	}
	if res.Script.SanitizedText != want {
		t.Fatalf("show-code result = %q", res.Script.SanitizedText)
	}
	if filepath.Base(res.Script.FilePath) != "manim_script_scene.py" {
		t.Fatalf("expected fallback name, got %q", res.Script.FilePath)
	}
}

func TestRun_RenderFailureSkipsLocator(t *testing.T) {
	f := newFixture()
	f.renderer.out = types.RenderOutcome{ExitCode: 1, Stderr: "SyntaxError: invalid syntax"}
	f.renderer.err = apperr.Render(1, errors.New("exit status 1"))

	res, err := f.run(t, types.GenerationRequest{Prompt: "circle"}, nil)
	if !apperr.IsRender(err) {
		t.Fatalf("expected render error, got %v", err)
	}
	if res.Render.ExitCode != 1 || res.Render.Stderr != "SyntaxError: invalid syntax" {
		t.Fatalf("expected exit code and stderr in result, got %+v", res.Render)
	}
	if res.Message != "Manim rendering failed (code 1)." || res.FailedStage != types.StageRendering {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.locator.calls != 0 {
		t.Fatalf("locator must not run after a render failure")
	}
}

func TestRun_NonZeroExitWithoutErrorStillFails(t *testing.T) {
	f := newFixture()
	f.renderer.out = types.RenderOutcome{ExitCode: 2}

	_, err := f.run(t, types.GenerationRequest{Prompt: "circle"}, nil)
	if !apperr.IsRender(err) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestRun_EmptyOutputDirIsNotFound(t *testing.T) {
	f := newFixture()
	f.locator.videos = nil

	res, err := f.run(t, types.GenerationRequest{Prompt: "circle"}, nil)
	if !apperr.IsNotFound(err) {
		t.Fatalf("expected not found error, got %v", err)
	}
	if res.Message != "No MP4 video found in output directory." || res.FailedStage != types.StageLocating {
		t.Fatalf("unexpected result: %+v", res)
	}
	if f.stages[len(f.stages)-1] != types.StageFailed {
		t.Fatalf("expected terminal failed stage, got %v", f.stages)
	}
}

func TestRun_MultipleVideosPickFirst(t *testing.T) {
	f := newFixture()
	f.locator.videos = []string{"A.mp4", "B.mp4"}

	res, err := f.run(t, types.GenerationRequest{Prompt: "circle"}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if filepath.Base(res.VideoPath) != "A.mp4" || len(res.Render.VideoFiles) != 2 {
		t.Fatalf("unexpected selection: %q from %v", res.VideoPath, res.Render.VideoFiles)
	}
}

func TestRun_ServiceFailure(t *testing.T) {
	f := newFixture()
	f.llm.err = apperr.Service(apperr.ReasonRateLimit, "groq: status 429", errors.New("slow down"))

	res, err := f.run(t, types.GenerationRequest{Prompt: "circle"}, nil)
	if !apperr.IsService(err) {
		t.Fatalf("expected service error, got %v", err)
	}
	if res.Message != "groq: status 429: slow down" {
		t.Fatalf("service errors are reported verbatim, got %q", res.Message)
	}
	if f.scripts.calls != 0 {
		t.Fatalf("no script should be written after a service failure")
	}
}

func TestRun_UntypedErrorsAreClassified(t *testing.T) {
	f := newFixture()
	f.llm.err = errors.New("boom")
	_, err := f.run(t, types.GenerationRequest{Prompt: "circle"}, nil)
	if !apperr.IsService(err) {
		t.Fatalf("expected service classification, got %v", err)
	}

	f = newFixture()
	f.scripts.err = errors.New("disk full")
	res, err := f.run(t, types.GenerationRequest{Prompt: "circle"}, nil)
	if !apperr.IsFilesystem(err) || res.FailedStage != types.StageWriting {
		t.Fatalf("expected filesystem failure at writing, got %v / %+v", err, res)
	}
	if f.renderer.calls != 0 {
		t.Fatalf("renderer must not run after a write failure")
	}
}

func TestRun_ProbeFailureDoesNotFailRun(t *testing.T) {
	f := newFixture()
	res, err := f.run(t, types.GenerationRequest{Prompt: "circle"}, &fakeProber{err: errors.New("no ffprobe")})
	if err != nil || !res.Succeeded() {
		t.Fatalf("expected success, got %v / %+v", err, res)
	}
	if res.VideoLength != 0 {
		t.Fatalf("expected zero duration, got %v", res.VideoLength)
	}
}
