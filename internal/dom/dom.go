// Package dom defines the surface the host page exposes to the core, a
// read/write view of the venue's document, plus the low-level action
// primitives used to drive it. The core never caches node identity
// beyond a single in-flight operation; the document is externally owned.
package dom

// Style is the rendered-style snapshot used for visibility checks.
type Style struct {
	Display    string
	Visibility string
	Opacity    float64
	Width      float64
	Height     float64
	FontSize   float64
}

// Element is a live handle to one node of the host page.
type Element interface {
	// Text returns the node's visible text content.
	Text() string

	// Attr returns a named attribute and whether it is present.
	Attr(name string) (string, bool)

	// TagName returns the lowercase tag name, e.g. "button".
	TagName() string

	// Value returns the current form value for input-like nodes.
	Value() string

	// SetValue replaces the form value without firing events.
	SetValue(v string)

	// Dispatch fires a bubbling synthetic event ("input", "change",
	// "blur", "click") against the node.
	Dispatch(event string)

	// Invoke runs the node's native activation (element.click()) and
	// reports whether one existed.
	Invoke() bool

	// Style returns the rendered-style snapshot.
	Style() Style
}

// Document is a handle to the host page. Query selectors are opaque
// strings interpreted by the host; the core only sequences them, so a
// venue restyle is a selector-list update, not a code change.
type Document interface {
	// URL returns the page's current location.
	URL() string

	// Title returns the page title.
	Title() string

	// ElementByID looks a node up by its id attribute.
	ElementByID(id string) (Element, bool)

	// Query returns all nodes matching the selector, document order.
	Query(selector string) []Element
}

// First returns the first element matching selector, if any.
func First(doc Document, selector string) (Element, bool) {
	els := doc.Query(selector)
	if len(els) == 0 {
		return nil, false
	}
	return els[0], true
}
