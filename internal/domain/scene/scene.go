package scene

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	ScriptPrefix  = "manim_script"
	ScriptExt     = ".py"
	FallbackTitle = "scene"
	VideoExt      = ".mp4"
)

// Quality is a manim render preset. Flag and Label always travel together:
// manim writes `-ql` renders under `480p15`, `-qh` under `1080p60`, and so on.
type Quality struct {
	Name  string
	Flag  string
	Label string
}

var (
	QualityLow        = Quality{Name: "low", Flag: "-ql", Label: "480p15"}
	QualityMedium     = Quality{Name: "medium", Flag: "-qm", Label: "720p30"}
	QualityHigh       = Quality{Name: "high", Flag: "-qh", Label: "1080p60"}
	QualityProduction = Quality{Name: "production", Flag: "-qp", Label: "1440p60"}
	Quality4K         = Quality{Name: "4k", Flag: "-qk", Label: "2160p60"}
)

var qualities = []Quality{QualityLow, QualityMedium, QualityHigh, QualityProduction, Quality4K}

func ParseQuality(name string) (Quality, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return QualityLow, nil
	}
	for _, q := range qualities {
		if q.Name == n {
			return q, nil
		}
	}
	return Quality{}, fmt.Errorf("unknown quality %q (want low, medium, high, production or 4k)", name)
}

// ScriptFileName derives the script file name from a user title: spaces and
// path separators become underscores, and an empty or whitespace-only title
// falls back to "scene".
func ScriptFileName(title string) string {
	name := FallbackTitle
	if strings.TrimSpace(title) != "" {
		name = strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(title)
	}
	return fmt.Sprintf("%s_%s%s", ScriptPrefix, name, ScriptExt)
}

// BaseName is the script file name without directory and extension. manim
// names its output directory after it.
func BaseName(scriptPath string) string {
	base := filepath.Base(scriptPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputDir is where manim leaves the video for scriptPath:
// <mediaDir>/videos/<base name>/<quality label>.
func OutputDir(mediaDir, scriptPath string, q Quality) string {
	return filepath.Join(mediaDir, "videos", BaseName(scriptPath), q.Label)
}

func IsVideo(name string) bool {
	return strings.HasSuffix(name, VideoExt)
}
