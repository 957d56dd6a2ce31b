package repair

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"browser_scripts/application/pipeline"
	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
	"browser_scripts/infrastructure/config"

	"github.com/go-viper/mapstructure/v2"
	"github.com/sirupsen/logrus"
)

const popupButtons = "xpath=//button[contains(text(), 'Entendido') or contains(text(), 'Got it')]"

// ProgressFunc receives the inspection progress (0-100) and what is being done
type ProgressFunc func(percent int, status string)

type probe struct {
	key      string
	label    string
	progress int
	script   string
	keywords []string
}

var probes = []probe{
	{entities.ControlToolsButton, "tools button", 40, toolsProbeScript, []string{"herramienta", "tool"}},
	{entities.ControlImageTool, "create image option", 55, imageToolProbeScript, []string{"crear imagen", "create image"}},
	{entities.ControlUploadButton, "upload button", 70, labelProbeScript, []string{"subida", "upload", "adjuntar"}},
	{entities.ControlSendButton, "send button", 85, labelProbeScript, []string{"enviar", "send"}},
}

// Repairer inspects the live app for the controls the translator needs and
// patches the selectors file with what it found
type Repairer struct {
	browser  interfaces.Browser
	pipeline *pipeline.Pipeline
	store    interfaces.ReportStore
	appURL   string
	logger   *logrus.Logger

	PageLoad time.Duration
	Menu     time.Duration
}

// NewRepairer - creates new repairer instance
func NewRepairer(browser interfaces.Browser, pipe *pipeline.Pipeline, store interfaces.ReportStore, appURL string, logger *logrus.Logger) *Repairer {
	return &Repairer{
		browser:  browser,
		pipeline: pipe,
		store:    store,
		appURL:   appURL,
		logger:   logger,
		PageLoad: 5 * time.Second,
		Menu:     time.Second,
	}
}

// Inspect - probes the page for each control and writes the report to reportFile
func (r *Repairer) Inspect(ctx context.Context, reportFile string, progress ProgressFunc) (entities.SelectorReport, error) {
	if progress == nil {
		progress = func(int, string) {}
	}
	report := entities.SelectorReport{}

	progress(10, "Opening the app")
	r.logger.Infof("Navigating to %s", r.appURL)
	if err := r.browser.Navigate(ctx, r.appURL); err != nil {
		return report, fmt.Errorf("failed to open the app: %w", err)
	}
	if err := pipeline.Sleep(ctx, r.PageLoad); err != nil {
		return report, err
	}
	if closed := pipeline.ClickVisible(ctx, r.browser, popupButtons); closed > 0 {
		r.logger.Infof("Closed %d popup(s)", closed)
	}

	progress(30, "Inspecting the interface")
	for _, p := range probes {
		progress(p.progress, "Looking for the "+p.label)

		outcome := r.pipeline.Run(ctx, pipeline.Action{
			Name: "probe-" + p.key,
			Strategies: []pipeline.Strategy{{
				Name: "script-probe",
				Run: func(ctx context.Context) (interface{}, error) {
					return r.probe(ctx, p)
				},
			}},
		})
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !outcome.OK() {
			r.logger.WithField("control", p.key).Warnf("%s not found", p.label)
			continue
		}

		best := outcome.Value.(entities.Candidate)
		report[p.key] = best
		r.logger.WithFields(logrus.Fields{
			"control":    p.key,
			"aria-label": best.AriaLabel,
			"text":       best.Text,
		}).Info("Found")

		// the image tool only shows up in the open tools menu
		if p.key == entities.ControlToolsButton && best.AriaLabel != "" {
			r.openMenu(ctx, best.AriaLabel)
		}
	}

	progress(95, "Saving report")
	if err := r.store.SaveJSON(reportFile, report); err != nil {
		return report, fmt.Errorf("failed to save report: %w", err)
	}
	r.logger.Infof("Report saved: %s", reportFile)

	progress(100, "Inspection completed")
	return report, nil
}

// probe - runs the probe script and returns the first candidate
func (r *Repairer) probe(ctx context.Context, p probe) (entities.Candidate, error) {
	result, err := r.browser.Evaluate(ctx, p.script, p.keywords)
	if err != nil {
		return entities.Candidate{}, err
	}

	var candidates []entities.Candidate
	if err := mapstructure.Decode(result, &candidates); err != nil {
		return entities.Candidate{}, fmt.Errorf("unexpected probe result: %w", err)
	}
	if len(candidates) == 0 {
		return entities.Candidate{}, fmt.Errorf("%w: %s", entities.ErrElementNotFound, p.label)
	}
	return candidates[0], nil
}

func (r *Repairer) openMenu(ctx context.Context, ariaLabel string) {
	btn, err := pipeline.FirstVisible(ctx, r.browser, fmt.Sprintf("button[aria-label='%s']", pipeline.QuoteCSS(ariaLabel)))
	if err != nil {
		r.logger.WithError(err).Debug("Tools button could not be clicked")
		return
	}
	if err := btn.Click(ctx); err != nil {
		r.logger.WithError(err).Debug("Tools button could not be clicked")
		return
	}
	pipeline.Sleep(ctx, r.Menu)
}

// LoadReport - reads a report written by Inspect
func LoadReport(store interfaces.ReportStore, path string) (entities.SelectorReport, error) {
	report := entities.SelectorReport{}
	if err := store.LoadJSON(path, &report); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return report, fmt.Errorf("%w: run the inspection first", entities.ErrEmptyReport)
		}
		return report, err
	}
	return report, nil
}

// Apply - patches the selectors file with the report, keeping a .backup of the
// previous content. A missing file is created from the defaults. Returns the number of changes; the file is written only
// when there is at least one.
func Apply(report entities.SelectorReport, selectorsPath string, logger *logrus.Logger) (int, error) {
	if len(report) == 0 {
		return 0, fmt.Errorf("%w: run the inspection first", entities.ErrEmptyReport)
	}

	// a missing file starts from the defaults and needs no backup
	original, err := os.ReadFile(selectorsPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Infof("%s not found, starting from the default selectors", selectorsPath)
	case err != nil:
		return 0, fmt.Errorf("failed to read selectors: %w", err)
	default:
		backup := selectorsPath + ".backup"
		if err := os.WriteFile(backup, original, 0644); err != nil {
			return 0, fmt.Errorf("failed to create backup: %w", err)
		}
		logger.Infof("Backup created: %s", backup)
	}

	set, err := config.LoadSelectors(selectorsPath)
	if err != nil {
		return 0, err
	}

	changes := 0

	if c, ok := report[entities.ControlToolsButton]; ok && c.AriaLabel != "" {
		selector := fmt.Sprintf("button[aria-label='%s']", pipeline.QuoteCSS(c.AriaLabel))
		if promoted, changed := promote(set.ToolsButton, selector); changed {
			set.ToolsButton = promoted
			changes++
			logger.Infof("Updated tools button -> %s", c.AriaLabel)
		}
	}

	if c, ok := report[entities.ControlSendButton]; ok && c.AriaLabel != "" && !contains(set.SendButtonLabels, c.AriaLabel) {
		if len(set.SendButtonLabels) == 0 {
			set.SendButtonLabels = []string{c.AriaLabel}
		} else {
			set.SendButtonLabels[0] = c.AriaLabel
		}
		changes++
		logger.Infof("Updated send button -> %s", c.AriaLabel)
	}

	if c, ok := report[entities.ControlUploadButton]; ok && c.AriaLabel != "" {
		selector := fmt.Sprintf("button[aria-label*='%s']", pipeline.QuoteCSS(c.AriaLabel))
		if promoted, changed := promote(set.UploadMenu, selector); changed {
			set.UploadMenu = promoted
			changes++
			logger.Infof("Updated upload button -> %s", c.AriaLabel)
		}
	}

	if changes == 0 {
		logger.Info("No changes needed, the selectors are up to date")
		return 0, nil
	}

	if err := config.SaveSelectors(selectorsPath, set); err != nil {
		return 0, err
	}
	logger.Infof("Selectors updated with %d change(s)", changes)
	return changes, nil
}

// promote - moves value to the front of list; changed is false when it already was first
func promote(list []string, value string) ([]string, bool) {
	if len(list) > 0 && list[0] == value {
		return list, false
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, value)
	for _, item := range list {
		if item != value {
			out = append(out, item)
		}
	}
	return out, true
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
