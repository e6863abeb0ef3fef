package dom

import "sync"

// StubElement is a scriptable Element for tests and the demo binary.
// Fields configure the simulated node; dispatched events and clicks are
// recorded for assertions.
type StubElement struct {
	mu sync.Mutex

	ID          string
	Tag         string
	TextContent string
	Attrs       map[string]string
	Visible     Style

	// OnInvoke, when set, backs Invoke; a nil OnInvoke with
	// NativeClick false means no native activation exists.
	NativeClick bool
	OnInvoke    func()
	OnSetValue  func(string)

	value   string
	events  []string
	invokes int
}

// NewStubElement returns a visible element with the given tag and text.
func NewStubElement(tag, text string) *StubElement {
	return &StubElement{
		Tag:         tag,
		TextContent: text,
		Attrs:       map[string]string{},
		Visible:     Style{Display: "block", Visibility: "visible", Opacity: 1, Width: 100, Height: 20, FontSize: 14},
		NativeClick: true,
	}
}

func (e *StubElement) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.TextContent
}

// SetText mutates the simulated text content, e.g. a moving price.
func (e *StubElement) SetText(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.TextContent = text
}

func (e *StubElement) Attr(name string) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.Attrs[name]
	return v, ok
}

// SetAttr adds or replaces an attribute.
func (e *StubElement) SetAttr(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Attrs == nil {
		e.Attrs = map[string]string{}
	}
	e.Attrs[name] = value
}

// RemoveAttr removes an attribute, e.g. clearing "disabled".
func (e *StubElement) RemoveAttr(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.Attrs, name)
}

func (e *StubElement) TagName() string { return e.Tag }

func (e *StubElement) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *StubElement) SetValue(v string) {
	e.mu.Lock()
	cb := e.OnSetValue
	e.value = v
	e.mu.Unlock()
	if cb != nil {
		cb(v)
	}
}

func (e *StubElement) Dispatch(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *StubElement) Invoke() bool {
	e.mu.Lock()
	native := e.NativeClick
	cb := e.OnInvoke
	if native {
		e.invokes++
	}
	e.mu.Unlock()
	if !native {
		return false
	}
	if cb != nil {
		cb()
	}
	return true
}

func (e *StubElement) Style() Style {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Visible
}

// Events returns the dispatched event names in order.
func (e *StubElement) Events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.events))
	copy(out, e.events)
	return out
}

// Invokes returns how many native activations ran.
func (e *StubElement) Invokes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.invokes
}

// Touched reports whether the element saw any value write, event, or click.
func (e *StubElement) Touched() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value != "" || len(e.events) > 0 || e.invokes > 0
}

// StubDocument is a scriptable Document keyed by id and by the opaque
// selector strings the reader/executor use.
type StubDocument struct {
	mu        sync.RWMutex
	url       string
	title     string
	byID      map[string]*StubElement
	selectors map[string][]*StubElement
}

// NewStubDocument creates an empty simulated page.
func NewStubDocument(url, title string) *StubDocument {
	return &StubDocument{
		url:       url,
		title:     title,
		byID:      map[string]*StubElement{},
		selectors: map[string][]*StubElement{},
	}
}

func (d *StubDocument) URL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.url
}

// SetURL simulates a navigation.
func (d *StubDocument) SetURL(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
}

func (d *StubDocument) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.title
}

func (d *StubDocument) ElementByID(id string) (Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.byID[id]
	if !ok {
		return nil, false
	}
	return el, true
}

func (d *StubDocument) Query(selector string) []Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	els := d.selectors[selector]
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out
}

// Add registers an element under its ID (when set) and any selectors.
func (d *StubDocument) Add(el *StubElement, selectors ...string) *StubElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el.ID != "" {
		d.byID[el.ID] = el
	}
	for _, sel := range selectors {
		d.selectors[sel] = append(d.selectors[sel], el)
	}
	return el
}

// RemoveSelector unregisters a selector, simulating a markup change.
func (d *StubDocument) RemoveSelector(selector string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.selectors, selector)
}
