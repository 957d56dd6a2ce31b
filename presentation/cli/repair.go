package cli

import (
	"context"
	"fmt"

	"browser_scripts/application/repair"
	"browser_scripts/application/runner"
	"browser_scripts/infrastructure/storage"
	"browser_scripts/presentation/terminal"

	"github.com/spf13/cobra"
)

func newRepairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Find the current app controls and update the selectors file",
		Long: `Inspects the image chat app for the controls the translator needs,
writes a report and patches the selectors file with what it found.
Run "repair inspect" or "repair apply" to do only one of the two steps.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := inspect(cmd); err != nil {
				return err
			}
			return apply(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Inspect the app and write the selectors report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Patch the selectors file from the last report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return apply(cmd)
		},
	})

	return cmd
}

func inspect(cmd *cobra.Command) error {
	term := terminal.NewTerminalInterface(cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	term.Banner("SELECTOR INSPECTION")

	sess, err := openSession(term)
	if err != nil {
		return err
	}
	defer sess.Close()

	r := repair.NewRepairer(sess.browser, sess.pipeline, storage.NewReportStore(), cfg.Translator.AppURL, logger)
	progress := func(percent int, status string) {
		term.Println(fmt.Sprintf("[%3d%%] %s", percent, status))
	}

	return runJob(cmd.Context(), "repair-inspect", func(ctx context.Context, stop runner.StopFlag) error {
		report, err := r.Inspect(ctx, cfg.Repair.ReportFile, progress)
		if err != nil {
			return err
		}
		term.Println(fmt.Sprintf("Found %d control(s), report: %s", len(report), cfg.Repair.ReportFile))
		return nil
	})
}

func apply(cmd *cobra.Command) error {
	report, err := repair.LoadReport(storage.NewReportStore(), cfg.Repair.ReportFile)
	if err != nil {
		return err
	}

	changes, err := repair.Apply(report, cfg.Translator.SelectorsFile, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d change(s) applied to %s\n", changes, cfg.Translator.SelectorsFile)
	return nil
}
