package interfaces

import "context"

// Element is a handle to a node found on the live page
type Element interface {
	// IsVisible reports whether the element is rendered and visible
	IsVisible(ctx context.Context) bool

	// IsEnabled reports whether the element accepts input
	IsEnabled(ctx context.Context) bool

	// Attribute returns an attribute value, empty when missing
	Attribute(ctx context.Context, name string) (string, error)

	// Text returns the rendered inner text
	Text(ctx context.Context) (string, error)

	// TagName returns the lower-case tag name
	TagName(ctx context.Context) (string, error)

	// Width returns the rendered width in pixels
	Width(ctx context.Context) (float64, error)

	// Center returns the viewport coordinates of the element center
	Center(ctx context.Context) (float64, float64, error)

	// Click clicks the element from a script, bypassing overlays
	Click(ctx context.Context) error

	// NativeClick clicks the element with a real pointer event
	NativeClick(ctx context.Context) error

	// ScrollIntoView centers the element in the viewport
	ScrollIntoView(ctx context.Context) error

	// Screenshot writes a PNG of the element to path
	Screenshot(ctx context.Context, path string) error

	// SetFiles sets the files of a file input
	SetFiles(ctx context.Context, path string) error

	// Closest returns the nearest ancestor (or self) matching selector
	Closest(ctx context.Context, selector string) (Element, error)
}

// Browser defines the page operations the automation scripts rely on
type Browser interface {
	// Navigate navigates to a URL
	Navigate(ctx context.Context, url string) error

	// Reload reloads the current page
	Reload(ctx context.Context) error

	// CurrentURL returns the current page URL
	CurrentURL(ctx context.Context) string

	// Query returns all elements matching a CSS selector or an "xpath=" expression
	Query(ctx context.Context, selector string) ([]Element, error)

	// QueryScript runs a function body that returns an element, an array of
	// elements or null, and returns handles in the order produced
	QueryScript(ctx context.Context, body string, arg interface{}) ([]Element, error)

	// Evaluate runs a script in the page and returns its JSON value
	Evaluate(ctx context.Context, script string, arg interface{}) (interface{}, error)

	// Screenshot writes a PNG of the viewport to path
	Screenshot(ctx context.Context, path string) error

	// PressKey presses a key on the focused element
	PressKey(ctx context.Context, key string) error

	// InsertText types text into the focused element
	InsertText(ctx context.Context, text string) error

	// ClickAt clicks at viewport coordinates
	ClickAt(ctx context.Context, x, y float64) error

	// UploadWithChooser runs trigger and answers the file chooser it opens with path
	UploadWithChooser(ctx context.Context, trigger func() error, path string) error

	// Close closes the browser
	Close() error
}
