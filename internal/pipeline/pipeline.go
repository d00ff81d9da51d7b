package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/forPelevin/manimgen/internal/apperr"
	"github.com/forPelevin/manimgen/internal/config"
	"github.com/forPelevin/manimgen/internal/metrics"
	"github.com/forPelevin/manimgen/internal/ports"
	"github.com/forPelevin/manimgen/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/manimgen/internal/ports/adapters/filesystem"
	"github.com/forPelevin/manimgen/internal/ports/adapters/groq"
	"github.com/forPelevin/manimgen/internal/ports/adapters/manim"
	"github.com/forPelevin/manimgen/internal/types"
	"github.com/forPelevin/manimgen/internal/usecase"
)

// Runner owns the adapters for one process and executes runs one at a time.
type Runner struct {
	mu  sync.Mutex
	uc  usecase.Usecase
	log zerolog.Logger

	newID func() string
	now   func() time.Time
}

// New validates cfg and wires the real adapters.
func New(cfg config.Config, log zerolog.Logger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	q := cfg.Quality()
	deps := usecase.Deps{
		LLM:      groq.New(cfg.Groq.APIKey, cfg.Groq.Model, cfg.Groq.BaseURL),
		Scripts:  filesystem.NewScriptStore(cfg.Paths.WorkDir),
		Renderer: manim.New(cfg.Manim.Bin, cfg.Paths.MediaDir, q),
		Locator:  filesystem.NewLocator(cfg.Paths.WorkDir, cfg.Paths.MediaDir, q),
		Prober:   ffmpeg.New(cfg.Manim.FFprobeBin),
	}
	log.Debug().
		Str("model", cfg.Groq.Model).
		Str("work_dir", cfg.Paths.WorkDir).
		Str("media_dir", cfg.Paths.MediaDir).
		Str("quality", q.Name).
		Msg("pipeline ready")
	return NewWithDeps(deps, log), nil
}

func NewWithDeps(d usecase.Deps, log zerolog.Logger) *Runner {
	return &Runner{
		uc:    usecase.New(d),
		log:   log,
		newID: func() string { return uuid.NewString() },
		now:   time.Now,
	}
}

// Run executes one request. Concurrent callers queue on the runner. onEvent
// may be nil; it is called on the calling goroutine.
func (r *Runner) Run(ctx context.Context, req types.GenerationRequest, onEvent func(types.Event)) (types.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	metrics.IncActiveRuns()
	defer metrics.DecActiveRuns()

	id := r.newID()
	log := r.log.With().Str("run_id", id).Logger()
	started := r.now()

	var (
		current    types.Stage
		stageStart = started
	)
	onStage := func(s types.Stage) {
		now := r.now()
		if current != "" {
			metrics.ObserveStageDuration(string(current), now.Sub(stageStart))
		}
		current, stageStart = s, now
		log.Debug().Str("stage", string(s)).Msg(s.Label())
		if onEvent != nil {
			onEvent(types.Event{RunID: id, Stage: s, Label: s.Label()})
		}
	}

	res, err := r.uc.Run(ctx, usecase.Input{
		Request: req,
		OnStage: onStage,
		Logf: func(format string, args ...any) {
			log.Debug().Msgf(format, args...)
		},
	})
	res.RunID = id
	res.StartedAt = started
	res.FinishedAt = r.now()
	elapsed := res.FinishedAt.Sub(started)
	metrics.ObserveRunDuration(elapsed)

	if err != nil {
		metrics.IncRun("failed")
		metrics.IncRunFailure(string(apperr.KindOf(err)), string(res.FailedStage))
		ev := log.Warn().
			Str("title", req.Title).
			Str("stage", string(res.FailedStage)).
			Str("kind", res.ErrorKind).
			Dur("duration", elapsed).
			Err(err)
		if res.Render.ExitCode != 0 {
			ev = ev.Int("exit_code", res.Render.ExitCode)
		}
		ev.Msg("run failed")
		return res, err
	}

	metrics.IncRun("success")
	log.Info().
		Str("title", req.Title).
		Str("script", res.Script.FilePath).
		Str("video", res.VideoPath).
		Dur("video_length", res.VideoLength).
		Dur("duration", elapsed).
		Msg("run finished")
	return res, nil
}

// ensure adapters implement ports
var _ ports.Completer = (*groq.Adapter)(nil)
var _ ports.ScriptWriter = (*filesystem.ScriptStore)(nil)
var _ ports.Renderer = (*manim.Adapter)(nil)
var _ ports.VideoLocator = (*filesystem.Locator)(nil)
var _ ports.VideoProber = (*ffmpeg.Prober)(nil)
