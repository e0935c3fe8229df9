package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"dubber/internal/jobs"
	"dubber/internal/pipeline"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var flags jobFlags

	cmd := &cobra.Command{
		Use:   "batch <video>...",
		Short: "Dub several videos concurrently and wait for all of them",
		Args:  cobra.MinimumNArgs(1),
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

			handles := make([]*jobs.Handle, 0, len(args))
			for _, arg := range args {
				input, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve input path: %w", err)
				}
				handle, err := registry.Submit(sigCtx, input, flags.options())
				if err != nil {
					return fmt.Errorf("submit %s: %w", arg, err)
				}
				handles = append(handles, handle)
			}
			go func() {
				<-sigCtx.Done()
				for _, handle := range handles {
					handle.Cancel()
				}
			}()

			failed := 0
			for _, handle := range handles {
				job, err := handle.Wait(context.Background())
				if err != nil {
					return err
				}
				if job.Status == pipeline.StatusFailed {
					failed++
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderJobTable(registry.List()))
			if failed > 0 {
				return fmt.Errorf("%d of %d jobs failed", failed, len(handles))
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func renderJobTable(list []jobs.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			shortID(job.ID),
			filepath.Base(job.InputPath),
			string(job.Status),
			strconv.Itoa(job.Progress) + "%",
			job.Message,
		})
	}
	return renderTable(
		[]string{"Job", "Input", "Status", "Progress", "Message"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
