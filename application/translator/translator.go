package translator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"browser_scripts/application/pipeline"
	"browser_scripts/application/runner"
	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
	"browser_scripts/infrastructure/config"
	"browser_scripts/infrastructure/storage"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// middle of the 1280x900 browser window
const (
	windowCenterX = 640
	windowCenterY = 450
)

// Timing holds the fixed waits between page interactions
type Timing struct {
	PageLoad      time.Duration
	Popup         time.Duration
	Menu          time.Duration
	UploadSettle  time.Duration
	BeforePrompt  time.Duration
	PromptSettle  time.Duration
	Response      time.Duration
	BeforeSave    time.Duration
	ClearSettle   time.Duration
	BetweenImages time.Duration
}

// DefaultTiming - waits tuned for the live app
func DefaultTiming(responseWait time.Duration) Timing {
	return Timing{
		PageLoad:      5 * time.Second,
		Popup:         500 * time.Millisecond,
		Menu:          time.Second,
		UploadSettle:  3 * time.Second,
		BeforePrompt:  2 * time.Second,
		PromptSettle:  time.Second,
		Response:      responseWait,
		BeforeSave:    3 * time.Second,
		ClearSettle:   2 * time.Second,
		BetweenImages: 2 * time.Second,
	}
}

type Translator struct {
	browser    interfaces.Browser
	pipeline   *pipeline.Pipeline
	store      interfaces.ReportStore
	downloader interfaces.Downloader
	selectors  entities.SelectorSet
	cfg        config.TranslatorConfig
	logger     *logrus.Logger
	now        func() time.Time

	Timing Timing
}

// NewTranslator - creates new translator instance
func NewTranslator(
	browser interfaces.Browser,
	pipe *pipeline.Pipeline,
	store interfaces.ReportStore,
	downloader interfaces.Downloader,
	selectors entities.SelectorSet,
	cfg config.TranslatorConfig,
	logger *logrus.Logger,
) *Translator {
	return &Translator{
		browser:    browser,
		pipeline:   pipe,
		store:      store,
		downloader: downloader,
		selectors:  selectors,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		Timing:     DefaultTiming(cfg.ResponseWait),
	}
}

// Run - translates every image of the images directory, one conversation per image
func (t *Translator) Run(ctx context.Context, stop runner.StopFlag) (entities.TranslationReport, error) {
	report := entities.TranslationReport{
		RunID:     uuid.NewString(),
		StartedAt: t.now(),
	}

	images, err := storage.ScanImages(t.cfg.ImagesDir, t.cfg.Extensions)
	if err != nil {
		return report, err
	}
	if len(images) == 0 {
		return report, fmt.Errorf("%w in %s", entities.ErrNoImages, t.cfg.ImagesDir)
	}

	t.logger.Infof("Found %d image(s)", len(images))
	for _, image := range images {
		t.logger.Infof("  - %s", filepath.Base(image))
	}
	report.Total = len(images)

	if err := t.Prepare(ctx); err != nil {
		return report, fmt.Errorf("failed to open the app: %w", err)
	}

	var runErr error
	for i, image := range images {
		if stop != nil && stop.Stopping() {
			t.logger.Warn("Stop requested, skipping the remaining images")
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("task canceled: %w", err)
			break
		}

		t.logger.Infof("Image %d/%d: %s", i+1, len(images), filepath.Base(image))
		result := t.Process(ctx, image)
		report.Results = append(report.Results, result)
		if result.Result != "" {
			report.Successful++
		}

		if i < len(images)-1 {
			t.logger.Info("Preparing for the next image")
			t.ClearConversation(ctx)
			pipeline.Sleep(ctx, t.Timing.BetweenImages)
		}
	}

	report.FinishedAt = t.now()
	t.logSummary(report)

	if err := t.store.SaveJSON(t.cfg.ReportFile, report); err != nil {
		t.logger.WithError(err).Error("Failed to write the translation report")
		if runErr == nil {
			runErr = err
		}
	}

	return report, runErr
}

// Process - uploads one image, sends the prompt, waits and saves the answer
func (t *Translator) Process(ctx context.Context, image string) entities.ImageResult {
	result := entities.ImageResult{Original: image}

	safe, err := storage.SafeCopy(image, t.cfg.TempDir)
	if err != nil {
		result.Error = err.Error()
		t.logger.WithError(err).Error("Failed to copy the image to a safe path")
		return result
	}
	result.SafeCopy = safe
	t.logger.Debugf("Image copied to %s", safe)

	if outcome := t.Upload(ctx, safe); !outcome.Handled() {
		result.Error = outcome.Err.Error()
		t.logger.WithError(outcome.Err).Error("Upload failed")
		return result
	}

	if outcome := t.SendPrompt(ctx); !outcome.Handled() {
		result.Error = outcome.Err.Error()
		t.logger.WithError(outcome.Err).Error("Prompt could not be sent")
		return result
	}

	t.logger.Info("Waiting for the response")
	if err := pipeline.Sleep(ctx, t.Timing.Response); err != nil {
		result.Error = err.Error()
		return result
	}

	saved, err := t.SaveResult(ctx, filepath.Base(image))
	if err != nil {
		result.Error = err.Error()
		t.logger.WithError(err).Error("Result image was not saved")
		return result
	}
	result.Result = saved
	return result
}

func (t *Translator) logSummary(report entities.TranslationReport) {
	t.logger.Infof("Translated %d/%d", report.Successful, report.Total)
	for _, r := range report.Results {
		entry := t.logger.WithField("image", filepath.Base(r.Original))
		switch {
		case r.Result != "":
			entry.Infof("-> %s", filepath.Base(r.Result))
		case r.Error != "":
			entry.Warnf("failed: %s", r.Error)
		default:
			entry.Warn("no result saved")
		}
	}
}

// popupXPath - matches buttons whose label or text contains one of labels
func popupXPath(labels []string) string {
	conditions := make([]string, 0, len(labels)*2)
	for _, label := range labels {
		conditions = append(conditions,
			fmt.Sprintf("contains(@aria-label, '%s')", label),
			fmt.Sprintf("contains(text(), '%s')", label),
		)
	}
	return "xpath=//button[" + strings.Join(conditions, " or ") + "]"
}
