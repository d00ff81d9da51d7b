package manim

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/forPelevin/manimgen/internal/apperr"
	"github.com/forPelevin/manimgen/internal/domain/scene"
	"github.com/forPelevin/manimgen/internal/metrics"
	"github.com/forPelevin/manimgen/internal/types"
)

const defaultMediaDir = "media"

type Adapter struct {
	bin      string
	mediaDir string
	quality  scene.Quality
}

// New returns a renderer for the manim executable at bin. mediaDir is
// relative to the script's directory unless absolute.
func New(bin, mediaDir string, quality scene.Quality) *Adapter {
	if bin == "" {
		bin = "manim"
	}
	if mediaDir == "" {
		mediaDir = defaultMediaDir
	}
	if quality.Flag == "" {
		quality = scene.QualityLow
	}
	return &Adapter{bin: bin, mediaDir: mediaDir, quality: quality}
}

func (a *Adapter) Args(scriptPath string) []string {
	args := []string{filepath.Base(scriptPath), a.quality.Flag}
	if filepath.Clean(a.mediaDir) != defaultMediaDir {
		args = append(args, "--media_dir", a.mediaDir)
	}
	return args
}

// Render runs manim from the script's directory and waits for it. Both
// output streams are captured separately. A process that never started
// reports exit code -1.
func (a *Adapter) Render(ctx context.Context, scriptPath string) (types.RenderOutcome, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, a.bin, a.Args(scriptPath)...)
	cmd.Dir = filepath.Dir(scriptPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := types.RenderOutcome{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
		} else {
			out.ExitCode = -1
			if out.Stderr == "" {
				out.Stderr = err.Error()
			}
		}
	}
	metrics.IncRenderExit(strconv.Itoa(out.ExitCode))
	if out.ExitCode != 0 {
		if err == nil {
			err = errors.New("manim exited with status " + strconv.Itoa(out.ExitCode))
		}
		return out, apperr.Render(out.ExitCode, err)
	}
	return out, nil
}
