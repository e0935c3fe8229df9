package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dubber/internal/jobs"
	"dubber/internal/language"
	"dubber/internal/pipeline"
)

// jobFlags maps CLI flags onto pipeline options.
type jobFlags struct {
	targetLanguage string
	sourceLanguage string
	action         string
	modelSize      string
	voice          string
	subtitlesOnly  bool
	burnIn         bool
	noSubtitles    bool
}

func (f *jobFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.targetLanguage, "target", "t", "", "Target language (code or name, e.g. fr, french)")
	cmd.Flags().StringVarP(&f.sourceLanguage, "language", "l", "", "Spoken language of the source (default: auto-detect)")
	cmd.Flags().StringVar(&f.action, "action", pipeline.ActionTranscribe, "Recognition action: transcribe or translate (to English)")
	cmd.Flags().StringVarP(&f.modelSize, "model", "m", "", "Whisper model size override (tiny, base, small, medium, large)")
	cmd.Flags().StringVar(&f.voice, "voice", "", "Synthesis voice model override")
	cmd.Flags().BoolVar(&f.subtitlesOnly, "subtitles-only", false, "Stop after subtitle translation; skip dubbing")
	cmd.Flags().BoolVar(&f.burnIn, "burn-in", false, "Burn subtitles into the output video")
	cmd.Flags().BoolVar(&f.noSubtitles, "no-subtitles", false, "Do not keep subtitle files as output artifacts")
}

func (f *jobFlags) options() jobs.Options {
	return jobs.Options{
		ModelSize:       f.modelSize,
		Language:        f.sourceLanguage,
		TargetLanguage:  f.targetLanguage,
		Action:          f.action,
		Voice:           f.voice,
		EmitSubtitles:   !f.noSubtitles,
		SubtitlesOnly:   f.subtitlesOnly,
		BurnInSubtitles: f.burnIn,
	}
}

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var flags jobFlags

	cmd := &cobra.Command{
		Use:   "process <video>",
		Short: "Dub a single video and wait for the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			registry, err := jobs.NewRegistry(cfg, logger)
			if err != nil {
				return err
			}
			defer registry.Close()

			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			input, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			handle, err := registry.Submit(sigCtx, input, flags.options())
			if err != nil {
				return err
			}
			go func() {
				<-sigCtx.Done()
				handle.Cancel()
			}()

			job, err := watchJob(cmd, registry, handle)
			if err != nil {
				return err
			}
			if job.Status == pipeline.StatusFailed {
				return fmt.Errorf("job %s failed: %s", job.ID, job.Message)
			}

			out := cmd.OutOrStdout()
			if job.DetectedLanguage != "" {
				fmt.Fprintf(out, "Detected language: %s\n", language.DisplayName(job.DetectedLanguage))
			}
			fmt.Fprintln(out, job.Message)
			fmt.Fprintln(out, renderArtifactTable(job))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// watchJob polls the registry and prints each status transition until the
// job reaches a terminal state.
func watchJob(cmd *cobra.Command, registry *jobs.Registry, handle *jobs.Handle) (jobs.Job, error) {
	out := cmd.OutOrStdout()
	done := make(chan struct{})
	var final jobs.Job
	var waitErr error
	go func() {
		final, waitErr = handle.Wait(context.Background())
		close(done)
	}()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	colorize := isTerminal(out)
	var lastStatus jobs.Status
	printProgress := func() {
		job, err := registry.Status(handle.ID)
		if err != nil || job.Status == lastStatus {
			return
		}
		lastStatus = job.Status
		line := fmt.Sprintf("[%3d%%] %-18s %s", job.Progress, job.Status, job.Message)
		if colorize {
			switch job.Status {
			case pipeline.StatusCompleted:
				line = "\x1b[32m" + line + "\x1b[0m"
			case pipeline.StatusFailed:
				line = "\x1b[31m" + line + "\x1b[0m"
			}
		}
		fmt.Fprintln(out, line)
	}

	for {
		select {
		case <-done:
			printProgress()
			return final, waitErr
		case <-ticker.C:
			printProgress()
		}
	}
}

func renderArtifactTable(job jobs.Job) string {
	rows := [][]string{}
	add := func(kind, path string) {
		if path != "" {
			rows = append(rows, []string{kind, path})
		}
	}
	add("subtitles", job.SubtitlePath)
	add("translated subtitles", job.TranslatedSubtitlePath)
	add("dub track", job.DubTrackPath)
	add("video", job.VideoPath)
	add("bundle", job.BundlePath)
	return renderTable([]string{"Artifact", "Path"}, rows, []columnAlignment{alignLeft, alignLeft})
}
