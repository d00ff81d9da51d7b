package types

import "time"

type GenerationRequest struct {
	Title    string `json:"title"`
	Prompt   string `json:"prompt"`
	ShowCode bool   `json:"show_code"`
}

type GeneratedScript struct {
	RawText       string `json:"-"`
	SanitizedText string `json:"code,omitempty"`
	FilePath      string `json:"file_path,omitempty"`
}

type RenderOutcome struct {
	ExitCode        int      `json:"exit_code"`
	Stdout          string   `json:"stdout,omitempty"`
	Stderr          string   `json:"stderr,omitempty"`
	OutputDirectory string   `json:"output_directory,omitempty"`
	VideoFiles      []string `json:"video_files,omitempty"`
}

// Stage is a pipeline run state. Success and Failed are terminal.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StageRequesting Stage = "requesting"
	StageSanitizing Stage = "sanitizing"
	StageWriting    Stage = "writing"
	StageRendering  Stage = "rendering"
	StageLocating   Stage = "locating"
	StageSuccess    Stage = "success"
	StageFailed     Stage = "failed"
)

func (s Stage) Terminal() bool { return s == StageSuccess || s == StageFailed }

// Label is the progress text shown while the stage runs.
func (s Stage) Label() string {
	switch s {
	case StageValidating:
		return "Checking prompt..."
	case StageRequesting:
		return "Generating Manim script from LLM..."
	case StageSanitizing:
		return "Cleaning up generated code..."
	case StageWriting:
		return "Saving script..."
	case StageRendering:
		return "Rendering video with Manim (quick low-res)..."
	case StageLocating:
		return "Locating rendered video..."
	case StageSuccess:
		return "Video generated successfully!"
	case StageFailed:
		return "Generation failed."
	default:
		return ""
	}
}

type Event struct {
	RunID string `json:"run_id"`
	Stage Stage  `json:"stage"`
	Label string `json:"label"`
}

type Result struct {
	RunID       string          `json:"run_id"`
	Stage       Stage           `json:"stage"`
	FailedStage Stage           `json:"failed_stage,omitempty"`
	ErrorKind   string          `json:"error_kind,omitempty"`
	Message     string          `json:"message"`
	Script      GeneratedScript `json:"script"`
	Render      RenderOutcome   `json:"render"`
	VideoPath   string          `json:"video_path,omitempty"`
	VideoLength time.Duration   `json:"video_length,omitempty"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
}

func (r Result) Succeeded() bool { return r.Stage == StageSuccess }
