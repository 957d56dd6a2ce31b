package translator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"browser_scripts/application/pipeline"
	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
	"browser_scripts/infrastructure/storage"
)

// Prepare - opens the app, closes the welcome popups and activates the image tool.
// Failing to activate the tool is logged and the run goes on.
func (t *Translator) Prepare(ctx context.Context) error {
	t.logger.Infof("Opening %s", t.cfg.AppURL)
	if err := t.browser.Navigate(ctx, t.cfg.AppURL); err != nil {
		return err
	}
	if err := pipeline.Sleep(ctx, t.Timing.PageLoad); err != nil {
		return err
	}

	if closed := pipeline.ClickVisible(ctx, t.browser, popupXPath(t.selectors.PopupClose)); closed > 0 {
		t.logger.Debugf("Closed %d popup(s)", closed)
		pipeline.Sleep(ctx, t.Timing.Popup)
	}

	t.logger.Info("Activating the image tool")
	outcome := t.pipeline.Run(ctx, pipeline.Action{
		Name: "activate-image-tool",
		Strategies: append([]pipeline.Strategy{{
			Name: "tools-menu",
			Run:  t.openToolsMenu,
		}}, pipeline.SelectorStrategies(t.browser, t.selectors.QuickAccess, pipeline.ClickElement)...),
		Settle: t.Timing.Menu,
	})
	if !outcome.OK() {
		t.logger.Warn("Could not activate the image tool, select Tools > Create images manually")
		return ctx.Err()
	}

	t.logger.WithField("strategy", outcome.Strategy).Info("Image tool activated")
	return nil
}

func (t *Translator) openToolsMenu(ctx context.Context) (interface{}, error) {
	tools, err := t.findToolsButton(ctx)
	if err != nil {
		return nil, err
	}
	if err := tools.Click(ctx); err != nil {
		return nil, err
	}
	if err := pipeline.Sleep(ctx, t.Timing.Menu); err != nil {
		return nil, err
	}

	items, err := t.browser.Query(ctx, t.selectors.MenuItems)
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(t.selectors.ImageToolText)
	for _, item := range items {
		text, err := item.Text(ctx)
		if err != nil || !strings.Contains(strings.ToLower(text), want) {
			continue
		}
		if err := item.Click(ctx); err != nil {
			continue
		}
		return item, nil
	}
	return nil, fmt.Errorf("%w: menu item %q", entities.ErrElementNotFound, t.selectors.ImageToolText)
}

// findToolsButton - configured selectors first, then any visible button mentioning a tools keyword
func (t *Translator) findToolsButton(ctx context.Context) (interfaces.Element, error) {
	for _, selector := range t.selectors.ToolsButton {
		if el, err := pipeline.FirstVisible(ctx, t.browser, selector); err == nil {
			return el, nil
		}
	}

	buttons, err := t.browser.Query(ctx, "button")
	if err != nil {
		return nil, err
	}
	for _, btn := range buttons {
		if !btn.IsVisible(ctx) {
			continue
		}
		text, _ := btn.Text(ctx)
		aria, _ := btn.Attribute(ctx, "aria-label")
		haystack := strings.ToLower(text + " " + aria)
		for _, keyword := range t.selectors.ToolsKeywords {
			if strings.Contains(haystack, strings.ToLower(keyword)) {
				return btn, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: tools button", entities.ErrElementNotFound)
}

// Upload - attaches path to the conversation
func (t *Translator) Upload(ctx context.Context, path string) entities.Outcome {
	t.logger.WithField("file", filepath.Base(path)).Info("Uploading image")

	return t.pipeline.Run(ctx, pipeline.Action{
		Name: "upload-image",
		Strategies: []pipeline.Strategy{
			{
				Name: "visible-file-input",
				Run: func(ctx context.Context) (interface{}, error) {
					inputs, err := t.browser.QueryScript(ctx, revealFileInputScript, t.selectors.FileInput)
					if err != nil {
						return nil, err
					}
					if len(inputs) == 0 {
						return nil, fmt.Errorf("%w: %s", entities.ErrElementNotFound, t.selectors.FileInput)
					}
					return nil, inputs[0].SetFiles(ctx, path)
				},
			},
			{
				Name: "upload-menu",
				Run: func(ctx context.Context) (interface{}, error) {
					if err := t.clickUploadFiles(ctx); err != nil {
						return nil, err
					}
					if err := pipeline.Sleep(ctx, t.Timing.Menu); err != nil {
						return nil, err
					}
					inputs, err := t.browser.Query(ctx, t.selectors.FileInput)
					if err != nil {
						return nil, err
					}
					for _, input := range inputs {
						if err := input.SetFiles(ctx, path); err == nil {
							return nil, nil
						}
					}
					return nil, fmt.Errorf("%w: no file input after opening the menu", entities.ErrUploadFailed)
				},
			},
			{
				Name: "file-chooser",
				Run: func(ctx context.Context) (interface{}, error) {
					return nil, t.browser.UploadWithChooser(ctx, func() error {
						return t.clickUploadFiles(ctx)
					}, path)
				},
			},
		},
		Timeout: 15 * time.Second,
		Settle:  t.Timing.UploadSettle,
		Manual:  fmt.Sprintf("Upload %s by hand, then press Enter", path),
	})
}

// clickUploadFiles - opens the upload menu when needed and clicks "upload files"
func (t *Translator) clickUploadFiles(ctx context.Context) error {
	if btn, err := t.firstVisible(ctx, t.selectors.UploadFiles); err == nil {
		return btn.Click(ctx)
	}

	menu, err := t.firstVisible(ctx, t.selectors.UploadMenu)
	if err != nil {
		return err
	}
	if err := menu.Click(ctx); err != nil {
		return err
	}
	if err := pipeline.Sleep(ctx, t.Timing.Menu); err != nil {
		return err
	}

	btn, err := t.firstVisible(ctx, t.selectors.UploadFiles)
	if err != nil {
		return err
	}
	return btn.Click(ctx)
}

func (t *Translator) firstVisible(ctx context.Context, selectors []string) (interfaces.Element, error) {
	for _, selector := range selectors {
		if el, err := pipeline.FirstVisible(ctx, t.browser, selector); err == nil {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", entities.ErrElementNotFound, strings.Join(selectors, ", "))
}

// SendPrompt - writes the prompt and sends it
func (t *Translator) SendPrompt(ctx context.Context) entities.Outcome {
	t.logger.WithField("prompt", t.cfg.Prompt).Info("Writing prompt")
	pipeline.Sleep(ctx, t.Timing.BeforePrompt)

	return t.pipeline.Run(ctx, pipeline.Action{
		Name: "send-prompt",
		Strategies: []pipeline.Strategy{{
			Name: "script",
			Run: func(ctx context.Context) (interface{}, error) {
				sent, err := t.browser.Evaluate(ctx, sendPromptScript, map[string]interface{}{
					"textbox": t.selectors.Textbox,
					"text":    t.cfg.Prompt,
					"labels":  t.selectors.SendButtonLabels,
				})
				if err != nil {
					return nil, err
				}
				if ok, _ := sent.(bool); !ok {
					return nil, fmt.Errorf("%w: %s", entities.ErrElementNotFound, t.selectors.Textbox)
				}
				return nil, nil
			},
		}},
		Input: func(ctx context.Context) (interface{}, error) {
			if err := t.focusTextbox(ctx); err != nil {
				return nil, err
			}
			if err := t.browser.InsertText(ctx, t.cfg.Prompt); err != nil {
				return nil, err
			}
			if err := pipeline.Sleep(ctx, 500*time.Millisecond); err != nil {
				return nil, err
			}
			return nil, t.browser.PressKey(ctx, "Enter")
		},
		Settle: t.Timing.PromptSettle,
		Manual: fmt.Sprintf("Type the prompt %q and send it, then press Enter", t.cfg.Prompt),
	})
}

// focusTextbox - clicks the textbox, through its coordinates when the click is
// intercepted, or the middle of the window when there is no textbox at all
func (t *Translator) focusTextbox(ctx context.Context) error {
	textbox, err := pipeline.FirstVisible(ctx, t.browser, t.selectors.Textbox)
	if err != nil {
		t.logger.Debug("Textbox not found, clicking the middle of the window")
		return t.browser.ClickAt(ctx, windowCenterX, windowCenterY)
	}
	if err := textbox.NativeClick(ctx); err == nil {
		return nil
	}
	x, y, err := textbox.Center(ctx)
	if err != nil {
		return err
	}
	return t.browser.ClickAt(ctx, x, y)
}

// SaveResult - saves the last generated image. A manual save returns an empty path.
func (t *Translator) SaveResult(ctx context.Context, original string) (string, error) {
	if err := pipeline.Sleep(ctx, t.Timing.BeforeSave); err != nil {
		return "", err
	}

	located := t.pipeline.Run(ctx, pipeline.Action{
		Name: "locate-result",
		Strategies: []pipeline.Strategy{{
			Name: "last-generated-image",
			Run: func(ctx context.Context) (interface{}, error) {
				return t.lastResultImage(ctx)
			},
		}},
		Manual: "No result image found. If there is one, save it by hand, then press Enter",
	})
	switch located.Status {
	case entities.OutcomeManual:
		return "", nil
	case entities.OutcomeFailed:
		return "", located.Err
	}

	img := located.Value.(interfaces.Element)
	src, _ := img.Attribute(ctx, "src")

	base := strings.TrimSuffix(original, filepath.Ext(original))
	name := fmt.Sprintf("translation_%s_%s.png", base, t.now().Format("20060102_150405"))
	dst := filepath.Join(t.cfg.OutputDir, name)

	saved := t.pipeline.Run(ctx, pipeline.Action{
		Name: "save-result",
		Strategies: []pipeline.Strategy{
			{
				Name:    "download-url",
				Applies: func(ctx context.Context) bool { return strings.HasPrefix(src, "http") },
				Run: func(ctx context.Context) (interface{}, error) {
					return nil, t.downloader.Download(ctx, src, dst)
				},
			},
			{
				Name:    "decode-data-url",
				Applies: func(ctx context.Context) bool { return strings.HasPrefix(src, "data:") },
				Run: func(ctx context.Context) (interface{}, error) {
					return nil, storage.DecodeDataURL(src, dst)
				},
			},
			{
				Name: "element-screenshot",
				Run: func(ctx context.Context) (interface{}, error) {
					img.ScrollIntoView(ctx)
					return nil, img.Screenshot(ctx, dst)
				},
			},
		},
		Timeout: 30 * time.Second,
		Manual:  "Save the image by hand (right click > Save image), then press Enter",
	})
	switch saved.Status {
	case entities.OutcomeSucceeded, entities.OutcomeFallback:
		t.logger.WithField("strategy", saved.Strategy).Infof("Image saved: %s", name)
		return dst, nil
	case entities.OutcomeManual:
		return "", nil
	default:
		return "", saved.Err
	}
}

// lastResultImage - the last element that looks like a generated image
func (t *Translator) lastResultImage(ctx context.Context) (interfaces.Element, error) {
	candidates, err := t.browser.Query(ctx, t.selectors.ResultImages)
	if err != nil {
		return nil, err
	}

	var last interfaces.Element
	for _, el := range candidates {
		if isResultImage(ctx, el) {
			last = el
		}
	}
	if last == nil {
		return nil, fmt.Errorf("%w: result image", entities.ErrElementNotFound)
	}
	return last, nil
}

func isResultImage(ctx context.Context, el interfaces.Element) bool {
	src, _ := el.Attribute(ctx, "src")
	alt, _ := el.Attribute(ctx, "alt")
	class, _ := el.Attribute(ctx, "class")
	tag, _ := el.TagName(ctx)

	switch {
	case strings.Contains(src, "blob:"), strings.Contains(src, "data:image"):
		return true
	case strings.Contains(strings.ToLower(src), "generated"), strings.Contains(strings.ToLower(alt), "generated"):
		return true
	case strings.Contains(strings.ToLower(class), "response"), tag == "canvas":
		return true
	}

	// large images that are not icons
	if src == "" {
		return false
	}
	width, err := el.Width(ctx)
	return err == nil && width > 200
}

// ClearConversation - starts a new chat; reloading the page is the fallback
func (t *Translator) ClearConversation(ctx context.Context) entities.Outcome {
	return t.pipeline.Run(ctx, pipeline.Action{
		Name: "new-chat",
		Strategies: pipeline.SelectorStrategies(t.browser, t.selectors.NewChat, func(ctx context.Context, el interfaces.Element) (interface{}, error) {
			return nil, el.NativeClick(ctx)
		}),
		Settle: t.Timing.ClearSettle,
		Input: func(ctx context.Context) (interface{}, error) {
			if err := t.browser.Reload(ctx); err != nil {
				return nil, err
			}
			return nil, pipeline.Sleep(ctx, t.Timing.PageLoad)
		},
	})
}
