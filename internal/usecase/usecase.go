package usecase

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/forPelevin/manimgen/internal/apperr"
	"github.com/forPelevin/manimgen/internal/domain/fences"
	"github.com/forPelevin/manimgen/internal/ports"
	"github.com/forPelevin/manimgen/internal/types"
)

const (
	msgEmptyPrompt = "Please enter a prompt."
	msgSuccess     = "Video generated successfully!"
	msgNoVideo     = "No MP4 video found in output directory."
)

type Deps struct {
	LLM      ports.Completer
	Scripts  ports.ScriptWriter
	Renderer ports.Renderer
	Locator  ports.VideoLocator
	// Prober is optional.
	Prober ports.VideoProber
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	Request types.GenerationRequest
	// OnStage is called synchronously as each stage starts, and once more
	// with the terminal stage.
	OnStage func(types.Stage)
	Logf    func(format string, args ...any)
}

// Run drives one request through every stage in order. The first failing
// stage ends the run; the returned Result always carries a terminal stage and
// a user-facing message.
func (u Usecase) Run(ctx context.Context, in Input) (types.Result, error) {
	onStage := in.OnStage
	if onStage == nil {
		onStage = func(types.Stage) {}
	}
	logf := in.Logf
	if logf == nil {
		logf = func(string, ...any) {}
	}

	var res types.Result
	fail := func(stage types.Stage, err error) (types.Result, error) {
		if s := apperr.StageOf(err); s != "" {
			stage = s
		}
		res.Stage = types.StageFailed
		res.FailedStage = stage
		res.ErrorKind = string(apperr.KindOf(err))
		res.Message = apperr.UserMessage(err)
		onStage(types.StageFailed)
		return res, err
	}

	onStage(types.StageValidating)
	req := in.Request
	if strings.TrimSpace(req.Prompt) == "" {
		return fail(types.StageValidating, apperr.Validation(msgEmptyPrompt))
	}

	onStage(types.StageRequesting)
	raw, err := u.d.LLM.Complete(ctx, req.Prompt)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Service(apperr.ReasonUpstream, "completion failed", err)
		}
		return fail(types.StageRequesting, err)
	}
	res.Script.RawText = raw

	onStage(types.StageSanitizing)
	code := fences.Strip(raw)
	if req.ShowCode {
		res.Script.SanitizedText = code
	}

	onStage(types.StageWriting)
	path, err := u.d.Scripts.WriteScript(req.Title, code)
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Filesystem("Could not save script.", err)
		}
		return fail(types.StageWriting, err)
	}
	res.Script.FilePath = path
	logf("script written: %s", path)

	onStage(types.StageRendering)
	outcome, err := u.d.Renderer.Render(ctx, path)
	res.Render = outcome
	if err == nil && outcome.ExitCode != 0 {
		err = apperr.Render(outcome.ExitCode, nil)
	}
	if err != nil {
		if apperr.KindOf(err) == "" {
			err = apperr.Render(outcome.ExitCode, err)
		}
		return fail(types.StageRendering, err)
	}

	onStage(types.StageLocating)
	dir, videos, err := u.d.Locator.Locate(path)
	res.Render.OutputDirectory = dir
	res.Render.VideoFiles = videos
	if err != nil {
		return fail(types.StageLocating, apperr.New(apperr.KindFilesystem, types.StageLocating, "Could not read output directory.", err))
	}
	if len(videos) == 0 {
		return fail(types.StageLocating, apperr.NotFound(msgNoVideo))
	}
	res.VideoPath = filepath.Join(dir, videos[0])
	if len(videos) > 1 {
		logf("%d videos in %s, using %s", len(videos), dir, videos[0])
	}

	if u.d.Prober != nil {
		d, err := u.d.Prober.ProbeDuration(ctx, res.VideoPath)
		if err != nil {
			logf("probe %s: %v", res.VideoPath, err)
		} else {
			res.VideoLength = d
		}
	}

	res.Stage = types.StageSuccess
	res.Message = msgSuccess
	onStage(types.StageSuccess)
	return res, nil
}
