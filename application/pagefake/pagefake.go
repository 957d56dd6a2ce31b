// Package pagefake provides an in-memory Browser that tests script against
// instead of a live page.
package pagefake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"browser_scripts/domain/entities"
	"browser_scripts/domain/interfaces"
)

// Element is a fake page node
type Element struct {
	Tag       string
	Attrs     map[string]string
	InnerText string
	Visible   bool
	Disabled  bool
	W, X, Y   float64
	Parent    *Element
	ClickErr  error
	// OnClick runs after a successful click
	OnClick func()

	mu     sync.Mutex
	clicks int
	files  []string
	shots  []string
}

// NewElement - creates a visible element with the given tag and attributes (name, value pairs)
func NewElement(tag string, attrs ...string) *Element {
	el := &Element{Tag: tag, Attrs: map[string]string{}, Visible: true, W: 100}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.Attrs[attrs[i]] = attrs[i+1]
	}
	return el
}

// Clicks returns how many times the element was clicked
func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

// Files returns the files set on the element
func (e *Element) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.files...)
}

// Shots returns the screenshot paths written for the element
func (e *Element) Shots() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.shots...)
}

func (e *Element) IsVisible(ctx context.Context) bool { return e.Visible }
func (e *Element) IsEnabled(ctx context.Context) bool { return !e.Disabled }

func (e *Element) Attribute(ctx context.Context, name string) (string, error) {
	return e.Attrs[name], nil
}

func (e *Element) Text(ctx context.Context) (string, error)    { return e.InnerText, nil }
func (e *Element) TagName(ctx context.Context) (string, error) { return e.Tag, nil }
func (e *Element) Width(ctx context.Context) (float64, error)  { return e.W, nil }

func (e *Element) Center(ctx context.Context) (float64, float64, error) {
	return e.X, e.Y, nil
}

func (e *Element) Click(ctx context.Context) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.mu.Lock()
	e.clicks++
	e.mu.Unlock()
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) NativeClick(ctx context.Context) error { return e.Click(ctx) }

func (e *Element) ScrollIntoView(ctx context.Context) error { return nil }

func (e *Element) Screenshot(ctx context.Context, path string) error {
	if !e.Visible {
		return fmt.Errorf("%w: element not visible", entities.ErrElementNotFound)
	}
	if err := writePNG(path); err != nil {
		return err
	}
	e.mu.Lock()
	e.shots = append(e.shots, path)
	e.mu.Unlock()
	return nil
}

func (e *Element) SetFiles(ctx context.Context, path string) error {
	if e.Tag != "input" {
		return fmt.Errorf("element is not an input")
	}
	e.mu.Lock()
	e.files = append(e.files, path)
	e.mu.Unlock()
	return nil
}

func (e *Element) Closest(ctx context.Context, selector string) (interfaces.Element, error) {
	tags := strings.Split(selector, ",")
	for cur := e; cur != nil; cur = cur.Parent {
		for _, tag := range tags {
			if strings.TrimSpace(tag) == cur.Tag {
				return cur, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no ancestor %s", entities.ErrElementNotFound, selector)
}

// Rule answers scripts containing a marker
type Rule struct {
	Contains string
	Result   interface{}
	Elements []*Element
	Err      error
	// Do runs before the result is returned
	Do func(arg interface{})
	// Answer computes the Evaluate result from the argument, replacing Result
	Answer func(arg interface{}) interface{}
}

// Browser is the fake page
type Browser struct {
	mu sync.Mutex

	url        string
	selectors  map[string][]*Element
	rules      []*Rule
	keys       []string
	inserted   []string
	clicksAt   [][2]float64
	shots      []string
	navigated  []string
	reloads    int
	closed     bool
	chooserErr error
	chosen     []string

	// QueryErr is returned by every Query when set
	QueryErr error
	// OnNavigate runs after every navigation
	OnNavigate func(url string)
	// OnKey runs after every key press
	OnKey func(key string)
}

// New - creates an empty fake page at url
func New(url string) *Browser {
	return &Browser{url: url, selectors: map[string][]*Element{}}
}

// Set registers the elements a selector resolves to
func (b *Browser) Set(selector string, elements ...*Element) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectors[selector] = elements
}

// On registers a script rule; the first matching rule wins
func (b *Browser) On(rule *Rule) *Rule {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rules = append(b.rules, rule)
	return rule
}

// SetURL changes the current URL
func (b *Browser) SetURL(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.url = url
}

// FailChooser makes UploadWithChooser fail
func (b *Browser) FailChooser(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chooserErr = err
}

// Keys returns the pressed keys
func (b *Browser) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.keys...)
}

// Inserted returns the inserted text
func (b *Browser) Inserted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.inserted...)
}

// ClicksAt returns the coordinate clicks
func (b *Browser) ClicksAt() [][2]float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][2]float64(nil), b.clicksAt...)
}

// Screenshots returns the page screenshot paths
func (b *Browser) Screenshots() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.shots...)
}

// Navigations returns the visited URLs
func (b *Browser) Navigations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.navigated...)
}

// Reloads returns how many times the page was reloaded
func (b *Browser) Reloads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reloads
}

// Chosen returns the files answered to file choosers
func (b *Browser) Chosen() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.chosen...)
}

// Closed reports whether Close was called
func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

func (b *Browser) Navigate(ctx context.Context, url string) error {
	b.mu.Lock()
	b.url = url
	b.navigated = append(b.navigated, url)
	hook := b.OnNavigate
	b.mu.Unlock()
	if hook != nil {
		hook(url)
	}
	return nil
}

func (b *Browser) Reload(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reloads++
	return nil
}

func (b *Browser) CurrentURL(ctx context.Context) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.url
}

func (b *Browser) Query(ctx context.Context, selector string) ([]interfaces.Element, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.QueryErr != nil {
		return nil, b.QueryErr
	}
	return toInterfaces(b.selectors[selector]), nil
}

func (b *Browser) QueryScript(ctx context.Context, body string, arg interface{}) ([]interfaces.Element, error) {
	rule := b.match(body)
	if rule == nil {
		return nil, nil
	}
	if rule.Do != nil {
		rule.Do(arg)
	}
	if rule.Err != nil {
		return nil, rule.Err
	}
	return toInterfaces(rule.Elements), nil
}

func (b *Browser) Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error) {
	rule := b.match(script)
	if rule == nil {
		return nil, nil
	}
	if rule.Do != nil {
		rule.Do(arg)
	}
	if rule.Answer != nil {
		return rule.Answer(arg), rule.Err
	}
	return rule.Result, rule.Err
}

func (b *Browser) Screenshot(ctx context.Context, path string) error {
	if err := writePNG(path); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shots = append(b.shots, path)
	return nil
}

func (b *Browser) PressKey(ctx context.Context, key string) error {
	b.mu.Lock()
	b.keys = append(b.keys, key)
	hook := b.OnKey
	b.mu.Unlock()
	if hook != nil {
		hook(key)
	}
	return nil
}

func (b *Browser) InsertText(ctx context.Context, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.inserted = append(b.inserted, text)
	return nil
}

func (b *Browser) ClickAt(ctx context.Context, x, y float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clicksAt = append(b.clicksAt, [2]float64{x, y})
	return nil
}

func (b *Browser) UploadWithChooser(ctx context.Context, trigger func() error, path string) error {
	b.mu.Lock()
	chooserErr := b.chooserErr
	b.mu.Unlock()
	if chooserErr != nil {
		return chooserErr
	}
	if err := trigger(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chosen = append(b.chosen, path)
	return nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Browser) match(script string) *Rule {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rule := range b.rules {
		if strings.Contains(script, rule.Contains) {
			return rule
		}
	}
	return nil
}

func toInterfaces(elements []*Element) []interfaces.Element {
	out := make([]interfaces.Element, 0, len(elements))
	for _, el := range elements {
		out = append(out, el)
	}
	return out
}

func writePNG(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n"), 0644)
}

var (
	_ interfaces.Browser = (*Browser)(nil)
	_ interfaces.Element = (*Element)(nil)
)
