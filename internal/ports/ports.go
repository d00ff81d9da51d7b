package ports

import (
	"context"
	"time"

	"github.com/forPelevin/manimgen/internal/types"
)

// Completer turns a free-text scene prompt into raw model output.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type ScriptWriter interface {
	WriteScript(title, code string) (path string, err error)
}

// Renderer runs manim against a script. A non-zero exit is reported in the
// outcome and as an error.
type Renderer interface {
	Render(ctx context.Context, scriptPath string) (types.RenderOutcome, error)
}

type VideoLocator interface {
	Locate(scriptPath string) (dir string, videos []string, err error)
}

type VideoProber interface {
	ProbeDuration(ctx context.Context, videoPath string) (time.Duration, error)
}
