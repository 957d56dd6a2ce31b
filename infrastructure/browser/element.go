package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"

	"github.com/playwright-community/playwright-go"
)

const elementTimeout = 5 * time.Second

// element wraps a playwright handle; page is kept so Closest can build new elements
type element struct {
	handle playwright.ElementHandle
	page   *browserController
}

func (e *element) IsVisible(ctx context.Context) bool {
	visible, err := e.handle.IsVisible()
	return err == nil && visible
}

func (e *element) IsEnabled(ctx context.Context) bool {
	enabled, err := e.handle.IsEnabled()
	return err == nil && enabled
}

func (e *element) Attribute(ctx context.Context, name string) (string, error) {
	value, err := e.handle.GetAttribute(name)
	return value, mapError(err)
}

func (e *element) Text(ctx context.Context) (string, error) {
	text, err := e.handle.InnerText()
	return strings.TrimSpace(text), mapError(err)
}

func (e *element) TagName(ctx context.Context) (string, error) {
	tag, err := e.handle.Evaluate("el => el.tagName.toLowerCase()")
	if err != nil {
		return "", mapError(err)
	}
	s, _ := tag.(string)
	return s, nil
}

func (e *element) Width(ctx context.Context) (float64, error) {
	box, err := e.handle.BoundingBox()
	if err != nil {
		return 0, mapError(err)
	}
	if box == nil {
		return 0, nil
	}
	return box.Width, nil
}

func (e *element) Center(ctx context.Context) (float64, float64, error) {
	box, err := e.handle.BoundingBox()
	if err != nil {
		return 0, 0, mapError(err)
	}
	if box == nil {
		return 0, 0, fmt.Errorf("%w: element is not rendered", entities.ErrElementNotFound)
	}
	return box.X + box.Width/2, box.Y + box.Height/2, nil
}

// Click - clicks from a script so overlays and covering layers do not intercept it
func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := e.handle.Evaluate("el => el.click()")
	return mapError(err)
}

func (e *element) NativeClick(ctx context.Context) error {
	return mapError(e.handle.Click(playwright.ElementHandleClickOptions{
		Timeout: timeoutMs(ctx, elementTimeout),
	}))
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	_, err := e.handle.Evaluate("el => el.scrollIntoView({block: 'center', inline: 'center'})")
	return mapError(err)
}

func (e *element) Screenshot(ctx context.Context, path string) error {
	_, err := e.handle.Screenshot(playwright.ElementHandleScreenshotOptions{
		Path:    playwright.String(path),
		Timeout: timeoutMs(ctx, elementTimeout),
	})
	return mapError(err)
}

func (e *element) SetFiles(ctx context.Context, path string) error {
	err := e.handle.SetInputFiles(path, playwright.ElementHandleSetInputFilesOptions{
		Timeout: timeoutMs(ctx, elementTimeout),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", entities.ErrUploadFailed, mapError(err))
	}
	return nil
}

func (e *element) Closest(ctx context.Context, selector string) (interfaces.Element, error) {
	handle, err := e.handle.EvaluateHandle("(el, selector) => el.closest(selector)", selector)
	if err != nil {
		return nil, mapError(err)
	}
	found := handle.AsElement()
	if found == nil {
		handle.Dispose()
		return nil, fmt.Errorf("%w: no ancestor matches %s", entities.ErrElementNotFound, selector)
	}
	return &element{handle: found, page: e.page}, nil
}
