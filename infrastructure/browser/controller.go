package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
	"browser_scripts/infrastructure/config"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

type browserController struct {
	pw         *playwright.Playwright
	context    playwright.BrowserContext
	page       playwright.Page
	pages      []playwright.Page
	pagesMutex sync.Mutex
	logger     *logrus.Logger
}

// NewBrowserController - starts chromium on a persistent profile so the
// login done by hand on the first run is reused afterwards
func NewBrowserController(cfg config.BrowserConfig, logger *logrus.Logger) (interfaces.Browser, error) {
	if err := os.MkdirAll(cfg.ProfileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create profile directory: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	options := playwright.BrowserTypeLaunchPersistentContextOptions{
		Headless: playwright.Bool(cfg.Headless),
		Viewport: &playwright.Size{
			Width:  1280,
			Height: 900,
		},
		AcceptDownloads: playwright.Bool(true),
		Args: []string{
			"--disable-popup-blocking",
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--disable-infobars",
			"--disable-notifications",
		},
	}
	if cfg.SlowMo > 0 {
		options.SlowMo = playwright.Float(cfg.SlowMo)
	}
	if cfg.Channel != "" {
		options.Channel = playwright.String(cfg.Channel)
	}

	browserContext, err := pw.Chromium.LaunchPersistentContext(cfg.ProfileDir, options)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	var page playwright.Page
	if existing := browserContext.Pages(); len(existing) > 0 {
		page = existing[0]
	} else {
		page, err = browserContext.NewPage()
		if err != nil {
			browserContext.Close()
			pw.Stop()
			return nil, fmt.Errorf("failed to create page: %w", err)
		}
	}

	controller := &browserController{
		pw:      pw,
		context: browserContext,
		page:    page,
		pages:   []playwright.Page{page},
		logger:  logger,
	}
	controller.track(page)

	browserContext.OnPage(func(newPage playwright.Page) {
		controller.pagesMutex.Lock()
		controller.pages = append(controller.pages, newPage)
		controller.page = newPage
		controller.pagesMutex.Unlock()

		controller.track(newPage)
	})

	return controller, nil
}

// track accepts dialogs and falls back to the first page when the active one closes
func (b *browserController) track(page playwright.Page) {
	page.OnDialog(func(dialog playwright.Dialog) {
		b.logger.WithField("type", dialog.Type()).Debug("accepting dialog")
		dialog.Accept()
	})

	page.OnClose(func(closedPage playwright.Page) {
		b.pagesMutex.Lock()
		defer b.pagesMutex.Unlock()

		for i, p := range b.pages {
			if p == closedPage {
				b.pages = append(b.pages[:i], b.pages[i+1:]...)
				break
			}
		}

		if b.page == closedPage && len(b.pages) > 0 {
			b.page = b.pages[0]
		}
	})
}

func (b *browserController) current() playwright.Page {
	b.pagesMutex.Lock()
	defer b.pagesMutex.Unlock()
	return b.page
}

// Navigate - navigates to the specified URL
func (b *browserController) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.current().Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutMs(ctx, defaultTimeout),
	})
	return mapError(err)
}

// Reload - reloads the current page
func (b *browserController) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := b.current().Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   timeoutMs(ctx, defaultTimeout),
	})
	return mapError(err)
}

// CurrentURL - returns the URL of the active page
func (b *browserController) CurrentURL(ctx context.Context) string {
	return b.current().URL()
}

// Query - returns every element matching a CSS selector or "xpath=" expression
func (b *browserController) Query(ctx context.Context, selector string) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	handles, err := b.current().QuerySelectorAll(selector)
	if err != nil {
		return nil, mapError(err)
	}

	elements := make([]interfaces.Element, 0, len(handles))
	for _, h := range handles {
		elements = append(elements, &element{handle: h, page: b})
	}
	return elements, nil
}

// QueryScript - runs body as a function of arg and unwraps the element or
// element array it returns
func (b *browserController) QueryScript(ctx context.Context, body string, arg interface{}) ([]interfaces.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	script := "(arg) => { const found = (() => {" + body + "})(); " +
		"if (!found) return []; return Array.isArray(found) ? found : [found]; }"

	handle, err := b.current().EvaluateHandle(script, arg)
	if err != nil {
		return nil, mapError(err)
	}
	defer handle.Dispose()

	properties, err := handle.GetProperties()
	if err != nil {
		return nil, mapError(err)
	}

	// array properties are keyed by index, keep the order the script produced
	indexes := make([]int, 0, len(properties))
	byIndex := make(map[int]playwright.JSHandle, len(properties))
	for key, property := range properties {
		i, err := strconv.Atoi(key)
		if err != nil {
			property.Dispose()
			continue
		}
		indexes = append(indexes, i)
		byIndex[i] = property
	}
	sort.Ints(indexes)

	elements := make([]interfaces.Element, 0, len(indexes))
	for _, i := range indexes {
		if el := byIndex[i].AsElement(); el != nil {
			elements = append(elements, &element{handle: el, page: b})
		}
	}
	return elements, nil
}

// Evaluate - runs a script and returns its value
func (b *browserController) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var (
		result interface{}
		err    error
	)
	if arg == nil {
		result, err = b.current().Evaluate(script)
	} else {
		result, err = b.current().Evaluate(script, arg)
	}
	return result, mapError(err)
}

// Screenshot - takes a screenshot of the current page
func (b *browserController) Screenshot(ctx context.Context, path string) error {
	_, err := b.current().Screenshot(playwright.PageScreenshotOptions{
		Path:    playwright.String(path),
		Timeout: timeoutMs(ctx, defaultTimeout),
	})
	return mapError(err)
}

// PressKey - presses a key on the focused element
func (b *browserController) PressKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapError(b.current().Keyboard().Press(key))
}

// InsertText - inserts text into the focused element
func (b *browserController) InsertText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapError(b.current().Keyboard().InsertText(text))
}

// ClickAt - clicks at viewport coordinates
func (b *browserController) ClickAt(ctx context.Context, x, y float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapError(b.current().Mouse().Click(x, y))
}

// UploadWithChooser - answers the file chooser opened by trigger. Native
// dialogs never appear because the chooser is intercepted.
func (b *browserController) UploadWithChooser(ctx context.Context, trigger func() error, path string) error {
	chooser, err := b.current().ExpectFileChooser(trigger, playwright.PageExpectFileChooserOptions{
		Timeout: timeoutMs(ctx, 10*time.Second),
	})
	if err != nil {
		return mapError(err)
	}
	if err := chooser.SetFiles(path); err != nil {
		return fmt.Errorf("%w: %w", entities.ErrUploadFailed, mapError(err))
	}
	return nil
}

// Close - closes the browser and stops playwright
func (b *browserController) Close() error {
	var closeErr error

	if b.context != nil {
		if err := b.context.Close(); err != nil && !isClosed(err) {
			closeErr = fmt.Errorf("failed to close context: %w", err)
		}
		b.context = nil
	}

	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && !isClosed(err) {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; failed to stop playwright: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("failed to stop playwright: %w", err)
			}
		}
		b.pw = nil
	}

	return closeErr
}

// timeoutMs turns the context deadline into a playwright timeout
func timeoutMs(ctx context.Context, fallback time.Duration) *float64 {
	timeout := fallback
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout < time.Millisecond {
			timeout = time.Millisecond
		}
	}
	return playwright.Float(float64(timeout.Milliseconds()))
}

func isClosed(err error) bool {
	if errors.Is(err, playwright.ErrTargetClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "closed") || strings.Contains(errStr, "target closed")
}

// mapError translates driver errors into the domain errors the pipeline understands
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, playwright.ErrTimeout):
		return fmt.Errorf("%w: %v", entities.ErrTimeout, err)
	case isClosed(err):
		return fmt.Errorf("%w: browser closed: %v", entities.ErrUnrecoverable, err)
	default:
		return err
	}
}
