package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/psantana5/timekeeper/pkg/measure"
	"github.com/psantana5/timekeeper/pkg/metrics"
	"github.com/psantana5/timekeeper/pkg/report"
	"github.com/psantana5/timekeeper/pkg/timekeeper"
)

var (
	execName         string
	execLapOnOutput  bool
	execPrintMetrics bool
)

var execCmd = &cobra.Command{
	Use:   "exec [flags] -- <command> [args...]",
	Short: "Time a command",
	Long: `Runs a command and measures it as one timing. With --lap-on-output every line
the command writes to stdout records a lap. The command's output is passed
through unchanged; the finished timing is written to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVarP(&execName, "name", "n", "", "timing name (default is the command name)")
	execCmd.Flags().BoolVar(&execLapOnOutput, "lap-on-output", false, "record a lap for every line of stdout")
	execCmd.Flags().BoolVar(&execPrintMetrics, "print-metrics", false, "write the collected metrics in Prometheus text format")
}

func runExec(cmd *cobra.Command, args []string) error {
	name := execName
	if name == "" {
		name = filepath.Base(args[0])
	}

	logger, err := newLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	reg := prometheus.NewRegistry()
	tk := timekeeper.New(cfg.Label, timekeeper.WithObserver(metrics.NewExporter(reg, cfg.Label)))

	timing, runErr := measure.FuncContext(cmd.Context(), tk, name, func(ctx context.Context) error {
		return runTimedCommand(ctx, tk, name, args, cmd.OutOrStdout())
	})
	report.NewPrinter(tk, logger).Print(timing)

	if err := report.Write(cmd.ErrOrStderr(), format, []report.Summary{report.Summarize(timing)}); err != nil {
		return err
	}
	if execPrintMetrics {
		if err := writeMetrics(cmd.ErrOrStderr(), reg); err != nil {
			return err
		}
	}

	return runErr
}

// runTimedCommand runs args, copying its stdout line by line to out and
// lapping the timing per line when requested
func runTimedCommand(ctx context.Context, tk *timekeeper.Timekeeper, name string, args []string, out io.Writer) error {
	c := exec.CommandContext(ctx, args[0], args[1:]...)
	c.Stdin = os.Stdin
	c.Stderr = os.Stderr

	stdout, err := c.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to attach to stdout: %w", err)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", args[0], err)
	}

	g, gctx := errgroup.WithContext(ctx)

	lines := make(chan string)
	g.Go(func() error {
		defer close(lines)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return scanner.Err()
	})

	var forwarded <-chan string = lines
	if execLapOnOutput {
		forwarded = measure.LapEach(gctx, tk, name, lines)
	}
	g.Go(func() error {
		for line := range forwarded {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		return nil
	})

	pumpErr := g.Wait()
	if pumpErr != nil {
		// nothing drains stdout anymore
		c.Process.Kill()
	}
	if err := c.Wait(); err != nil {
		return fmt.Errorf("%s failed: %w", args[0], err)
	}
	return pumpErr
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	return nil
}
