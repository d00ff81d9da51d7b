// Package filesystem persists generated scripts and finds the videos manim
// leaves behind.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/forPelevin/manimgen/internal/apperr"
	"github.com/forPelevin/manimgen/internal/domain/scene"
)

type ScriptStore struct {
	dir string
}

func NewScriptStore(workDir string) *ScriptStore {
	if workDir == "" {
		workDir = "."
	}
	return &ScriptStore{dir: workDir}
}

// WriteScript overwrites the script derived from title with code.
func (s *ScriptStore) WriteScript(title, code string) (string, error) {
	p := filepath.Join(s.dir, scene.ScriptFileName(title))
	if err := os.WriteFile(p, []byte(code), 0o644); err != nil {
		return "", apperr.Filesystem(fmt.Sprintf("Could not save script %s.", filepath.Base(p)), err)
	}
	return p, nil
}

type Locator struct {
	mediaDir string
	quality  scene.Quality
}

// NewLocator looks under mediaDir, resolved against workDir when relative.
func NewLocator(workDir, mediaDir string, quality scene.Quality) *Locator {
	if mediaDir == "" {
		mediaDir = "media"
	}
	if !filepath.IsAbs(mediaDir) && workDir != "" {
		mediaDir = filepath.Join(workDir, mediaDir)
	}
	if quality.Label == "" {
		quality = scene.QualityLow
	}
	return &Locator{mediaDir: mediaDir, quality: quality}
}

func (l *Locator) Dir(scriptPath string) string {
	return scene.OutputDir(l.mediaDir, scriptPath, l.quality)
}

// Locate lists the videos in the output directory of scriptPath, sorted by
// name. A missing directory yields no videos and no error.
func (l *Locator) Locate(scriptPath string) (string, []string, error) {
	dir := l.Dir(scriptPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dir, nil, nil
		}
		return dir, nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var videos []string
	for _, e := range entries {
		if e.IsDir() || !scene.IsVideo(e.Name()) {
			continue
		}
		videos = append(videos, e.Name())
	}
	return dir, videos, nil
}
