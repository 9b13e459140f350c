package page

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/formfill/internal/form"
)

// Element is one node of a loaded page.
type Element interface {
	// Attr returns the attribute value and whether it is present.
	Attr(name string) (string, bool)
	// Text returns the whitespace-normalised text content.
	Text() string
	// Tag returns the lower-case element name.
	Tag() string
	Find(selector string) []Element
	Is(selector string) bool
	// Closest returns the nearest ancestor (or self) matching selector.
	Closest(selector string) (Element, bool)
}

// Page is a read-only view of a loaded form page.
type Page interface {
	URL() string
	Title() string
	Find(selector string) ([]Element, error)
	XPath(expr string) ([]Element, error)
}

// Loader loads the page at a URL.
type Loader interface {
	Load(ctx context.Context, url string) (Page, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, url string) (Page, error)

func (f LoaderFunc) Load(ctx context.Context, url string) (Page, error) {
	return f(ctx, url)
}

func unusable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", form.ErrPageUnusable, fmt.Sprintf(format, args...))
}
