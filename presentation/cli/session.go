package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"browser_scripts/application/pipeline"
	"browser_scripts/application/runner"
	"browser_scripts/domain/interfaces"
	"browser_scripts/infrastructure/browser"
	"browser_scripts/presentation/terminal"
)

// session is one browser window plus the console the operator answers on
type session struct {
	browser  interfaces.Browser
	term     *terminal.TerminalInterface
	pipeline *pipeline.Pipeline
}

func openSession(term *terminal.TerminalInterface) (*session, error) {
	logger.Info("Starting browser")
	b, err := browser.NewBrowserController(cfg.Browser, logger)
	if err != nil {
		return nil, err
	}
	return &session{
		browser:  b,
		term:     term,
		pipeline: pipeline.New(term, logger),
	}, nil
}

func (s *session) Close() {
	if err := s.browser.Close(); err != nil {
		logger.WithError(err).Warn("Failed to close the browser")
	}
}

// runJob runs fn on the runner and waits for it. The first interrupt asks the
// job to stop after the current item, the second one cancels it.
func runJob(ctx context.Context, name string, fn runner.JobFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	return waitJob(ctx, cancel, runner.New(logger), name, fn, sigs)
}

func waitJob(ctx context.Context, cancel context.CancelFunc, r *runner.Runner, name string, fn runner.JobFunc, sigs <-chan os.Signal) error {
	if _, err := r.Start(ctx, name, fn); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- r.Wait() }()

	for {
		select {
		case err := <-done:
			return err
		case <-sigs:
			if r.Stopping() {
				logger.Warn("Interrupted again, aborting")
				cancel()
				continue
			}
			logger.Warn("Interrupt received, finishing the current item (interrupt again to abort)")
			r.Stop()
		}
	}
}
