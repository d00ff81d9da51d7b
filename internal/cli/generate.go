package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forPelevin/manimgen/internal/logging"
	"github.com/forPelevin/manimgen/internal/pipeline"
	"github.com/forPelevin/manimgen/internal/types"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [flags] <prompt>",
		Short: "Generate and render one animation from a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return generate(cmd, strings.Join(args, " "))
		},
	}
	cmd.Flags().String("title", "", "Scene title, used for the script file name")
	cmd.Flags().Bool("show-code", false, "Print the generated Manim code")
	cmd.Flags().String("quality", "", "Render quality (low, medium, high, production, 4k)")
	return cmd
}

func generate(cmd *cobra.Command, prompt string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if q, _ := cmd.Flags().GetString("quality"); q != "" {
		cfg.Manim.Quality = q
	}
	title, _ := cmd.Flags().GetString("title")
	showCode, _ := cmd.Flags().GetBool("show-code")

	log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, true)
	runner, err := pipeline.New(*cfg, log)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	dim := color.New(color.Faint)
	res, runErr := runner.Run(context.Background(), types.GenerationRequest{
		Title:    title,
		Prompt:   prompt,
		ShowCode: showCode,
	}, func(e types.Event) {
		if !e.Stage.Terminal() {
			dim.Fprintf(errOut, "• %s\n", e.Label)
		}
	})

	if showCode && res.Script.SanitizedText != "" {
		color.New(color.FgCyan, color.Bold).Fprintln(out, "Generated Manim code:")
		fmt.Fprintln(out, res.Script.SanitizedText)
		fmt.Fprintln(out)
	}

	if runErr != nil {
		color.New(color.FgRed, color.Bold).Fprintf(errOut, "✗ %s\n", res.Message)
		if res.FailedStage == types.StageRendering {
			printStream(errOut, "stderr", res.Render.Stderr)
			printStream(errOut, "stdout", res.Render.Stdout)
		}
		return runFailedError{runErr}
	}

	color.New(color.FgGreen, color.Bold).Fprintf(out, "✓ %s\n", res.Message)
	fmt.Fprintf(out, "  video: %s\n", res.VideoPath)
	if res.VideoLength > 0 {
		fmt.Fprintf(out, "  length: %s\n", res.VideoLength.Round(100*time.Millisecond))
	}
	if n := len(res.Render.VideoFiles); n > 1 {
		color.New(color.FgYellow).Fprintf(out, "  %d videos found, showing the first\n", n)
	}
	return nil
}

func printStream(w io.Writer, name, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	color.New(color.FgYellow).Fprintf(w, "--- manim %s ---\n", name)
	fmt.Fprintln(w, s)
}
