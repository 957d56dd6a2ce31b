package cli

import (
	"context"
	"fmt"
	"strings"

	"browser_scripts/application/instagram"
	"browser_scripts/application/runner"
	"browser_scripts/domain/entities"
	"browser_scripts/infrastructure/security"
	"browser_scripts/infrastructure/storage"
	"browser_scripts/presentation/terminal"

	"github.com/spf13/cobra"
)

func newInstagramCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instagram <profile-url>",
		Short: "Capture every post of an Instagram profile as screenshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileURL := strings.TrimSpace(args[0])
			if !strings.Contains(profileURL, "instagram.com") {
				return fmt.Errorf("%w: %s", entities.ErrInvalidProfileURL, profileURL)
			}

			term := terminal.NewTerminalInterface(cmd.InOrStdin(), cmd.OutOrStdout(), logger)
			term.Banner("INSTAGRAM CAPTURE")

			sess, err := openSession(term)
			if err != nil {
				return err
			}
			defer sess.Close()

			scraper := instagram.NewScraper(
				sess.browser,
				sess.pipeline,
				security.NewSecurityLayer(logger),
				storage.NewReportStore(),
				cfg.Instagram,
				logger,
			)

			return runJob(cmd.Context(), "instagram", func(ctx context.Context, stop runner.StopFlag) error {
				_, err := scraper.Run(ctx, profileURL, stop)
				return err
			})
		},
	}
	return cmd
}
