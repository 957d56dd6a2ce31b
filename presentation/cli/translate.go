package cli

import (
	"context"
	"time"

	"browser_scripts/application/runner"
	"browser_scripts/application/translator"
	"browser_scripts/infrastructure/config"
	"browser_scripts/infrastructure/storage"
	"browser_scripts/presentation/terminal"

	"github.com/spf13/cobra"
)

const downloadTimeout = 60 * time.Second

func newTranslateCmd() *cobra.Command {
	var keepOpen bool

	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Translate every image of the images folder through the image chat app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			term := terminal.NewTerminalInterface(cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			term.Banner("IMAGE TRANSLATOR")

			selectors, err := config.LoadSelectors(cfg.Translator.SelectorsFile)
			if err != nil {
				logger.WithError(err).Warn("Using the default selectors")
			}

			term.Println("A dedicated browser profile is used:")
			term.Println("  1. A new browser window opens.")
			term.Println("  2. The first time, log in by hand.")
			term.Println("  3. If the image tool is not selected, select it yourself.")
			if err := term.Pause(cmd.Context(), "Ready to start"); err != nil {
				return err
			}

			sess, err := openSession(term)
			if err != nil {
				return err
			}
			defer sess.Close()

			t := translator.NewTranslator(
				sess.browser,
				sess.pipeline,
				storage.NewReportStore(),
				storage.NewDownloader(downloadTimeout),
				selectors,
				cfg.Translator,
				logger,
			)

			err = runJob(cmd.Context(), "translate", func(ctx context.Context, stop runner.StopFlag) error {
				_, err := t.Run(ctx, stop)
				return err
			})
			if err != nil {
				return err
			}

			if keepOpen {
				return term.Pause(cmd.Context(), "Done, the browser closes when you continue")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepOpen, "keep-open", true, "wait for Enter before closing the browser")
	return cmd
}
