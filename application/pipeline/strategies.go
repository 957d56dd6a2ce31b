package pipeline

import (
	"context"
	"fmt"
	"strings"

	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
)

// FirstVisible - returns the first visible element matching selector
func FirstVisible(ctx context.Context, browser interfaces.Browser, selector string) (interfaces.Element, error) {
	elements, err := browser.Query(ctx, selector)
	if err != nil {
		return nil, err
	}
	for _, el := range elements {
		if el.IsVisible(ctx) {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", entities.ErrElementNotFound, selector)
}

// SelectorStrategies - builds one strategy per selector; each resolves the first
// visible match and hands it to use
func SelectorStrategies(browser interfaces.Browser, selectors []string, use func(ctx context.Context, el interfaces.Element) (interface{}, error)) []Strategy {
	strategies := make([]Strategy, 0, len(selectors))
	for _, selector := range selectors {
		selector := selector
		strategies = append(strategies, Strategy{
			Name: selector,
			Run: func(ctx context.Context) (interface{}, error) {
				el, err := FirstVisible(ctx, browser, selector)
				if err != nil {
					return nil, err
				}
				return use(ctx, el)
			},
		})
	}
	return strategies
}

// ClickElement - clicks el from a script and returns it
func ClickElement(ctx context.Context, el interfaces.Element) (interface{}, error) {
	if err := el.Click(ctx); err != nil {
		return nil, err
	}
	return el, nil
}

// ClickVisible - clicks every visible element matching selector and returns how many were clicked
func ClickVisible(ctx context.Context, browser interfaces.Browser, selector string) int {
	elements, err := browser.Query(ctx, selector)
	if err != nil {
		return 0
	}
	clicked := 0
	for _, el := range elements {
		if !el.IsVisible(ctx) {
			continue
		}
		if err := el.Click(ctx); err == nil {
			clicked++
		}
	}
	return clicked
}

var cssQuoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `\"`, "\n", " ")

// QuoteCSS - escapes value for use inside a quoted CSS attribute selector
func QuoteCSS(value string) string {
	return cssQuoter.Replace(value)
}
