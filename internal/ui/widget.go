package ui

import "unicode/utf8"

// Widget holds the state shared by every control.
type Widget struct {
	enabled bool
	visible bool
	blocked bool
}

func newWidget() Widget {
	return Widget{enabled: true, visible: true}
}

// Enabled reports whether the widget accepts user input.
func (w *Widget) Enabled() bool { return w.enabled }

// SetEnabled enables or disables the widget.
func (w *Widget) SetEnabled(enabled bool) { w.enabled = enabled }

// Visible reports whether the widget is shown.
func (w *Widget) Visible() bool { return w.visible }

// SetVisible shows or hides the widget.
func (w *Widget) SetVisible(visible bool) { w.visible = visible }

// BlockSignals suppresses (or restores) signal emission and returns the
// previous setting so callers can restore it.
func (w *Widget) BlockSignals(block bool) bool {
	prev := w.blocked
	w.blocked = block
	return prev
}

// SignalsBlocked reports whether emission is currently suppressed.
func (w *Widget) SignalsBlocked() bool { return w.blocked }

func emit[T any](w *Widget, s *Signal[T], v T) {
	if w.blocked {
		return
	}
	s.emit(v)
}

// Label displays a line of text.
type Label struct {
	Widget
	text string
}

// NewLabel creates a visible label.
func NewLabel(text string) *Label {
	return &Label{Widget: newWidget(), text: text}
}

// Text returns the label text.
func (l *Label) Text() string { return l.text }

// SetText replaces the label text.
func (l *Label) SetText(text string) { l.text = text }

// Frame groups other widgets; only its visibility and enabled state matter here.
type Frame struct {
	Widget
	name string
}

// NewFrame creates a visible frame.
func NewFrame(name string) *Frame {
	return &Frame{Widget: newWidget(), name: name}
}

// Name returns the frame's object name.
func (f *Frame) Name() string { return f.name }

// Slider is a discrete slider over an inclusive range.
type Slider struct {
	Widget
	lo, hi int
	value  int
	labels []string

	ValueChanged Signal[int]
}

// NewSlider creates a slider over [lo, hi] with optional tick labels.
func NewSlider(lo, hi int, labels ...string) *Slider {
	return &Slider{Widget: newWidget(), lo: lo, hi: hi, value: lo, labels: labels}
}

// Range returns the slider bounds.
func (s *Slider) Range() (int, int) { return s.lo, s.hi }

// Value returns the current position.
func (s *Slider) Value() int { return s.value }

// Labels returns the tick labels.
func (s *Slider) Labels() []string { return s.labels }

// SetValue clamps v into range and emits ValueChanged if the position moved.
func (s *Slider) SetValue(v int) {
	v = max(s.lo, min(v, s.hi))
	if v == s.value {
		return
	}
	s.value = v
	emit(&s.Widget, &s.ValueChanged, v)
}

// ComboItem is one entry of a ComboBox.
type ComboItem struct {
	Text string
	Data any
}

// ComboBox is a drop-down selection.
type ComboBox struct {
	Widget
	items   []ComboItem
	current int

	CurrentIndexChanged Signal[int]
}

// NewComboBox creates an empty combo box with no selection.
func NewComboBox() *ComboBox {
	return &ComboBox{Widget: newWidget(), current: -1}
}

// AddItem appends an item. The first item added becomes current, emitting
// CurrentIndexChanged like a toolkit combo box does.
func (c *ComboBox) AddItem(text string, data any) {
	c.items = append(c.items, ComboItem{Text: text, Data: data})
	if c.current < 0 {
		c.current = 0
		emit(&c.Widget, &c.CurrentIndexChanged, 0)
	}
}

// Count returns the number of items.
func (c *ComboBox) Count() int { return len(c.items) }

// CurrentIndex returns the selected index or -1.
func (c *ComboBox) CurrentIndex() int { return c.current }

// CurrentText returns the text of the selected item.
func (c *ComboBox) CurrentText() string {
	if c.current < 0 {
		return ""
	}
	return c.items[c.current].Text
}

// CurrentData returns the data of the selected item.
func (c *ComboBox) CurrentData() any {
	return c.ItemData(c.current)
}

// ItemText returns the text at index, or "" when out of range.
func (c *ComboBox) ItemText(index int) string {
	if index < 0 || index >= len(c.items) {
		return ""
	}
	return c.items[index].Text
}

// ItemData returns the data at index, or nil when out of range.
func (c *ComboBox) ItemData(index int) any {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	return c.items[index].Data
}

// FindText returns the index of the first item with the given text, or -1.
func (c *ComboBox) FindText(text string) int {
	for i, it := range c.items {
		if it.Text == text {
			return i
		}
	}
	return -1
}

// SetCurrentIndex selects index; out-of-range values are ignored.
func (c *ComboBox) SetCurrentIndex(index int) {
	if index < 0 || index >= len(c.items) || index == c.current {
		return
	}
	c.current = index
	emit(&c.Widget, &c.CurrentIndexChanged, index)
}

// SetCurrentText selects the first item with the given text.
func (c *ComboBox) SetCurrentText(text string) {
	if i := c.FindText(text); i >= 0 {
		c.SetCurrentIndex(i)
	}
}

// Switch is an on/off toggle.
type Switch struct {
	Widget
	checked bool

	CheckedChanged Signal[bool]
}

// NewSwitch creates an unchecked switch.
func NewSwitch() *Switch {
	return &Switch{Widget: newWidget()}
}

// Checked reports the switch state.
func (s *Switch) Checked() bool { return s.checked }

// SetChecked changes the state and emits CheckedChanged on a change.
func (s *Switch) SetChecked(checked bool) {
	if checked == s.checked {
		return
	}
	s.checked = checked
	emit(&s.Widget, &s.CheckedChanged, checked)
}

// TextEdit is a multi-line plain-text input.
type TextEdit struct {
	Widget
	text        string
	placeholder string

	TextChanged Signal[string]
}

// NewTextEdit creates an empty text edit.
func NewTextEdit(placeholder string) *TextEdit {
	return &TextEdit{Widget: newWidget(), placeholder: placeholder}
}

// Text returns the current plain text.
func (t *TextEdit) Text() string { return t.text }

// Placeholder returns the hint shown while empty.
func (t *TextEdit) Placeholder() string { return t.placeholder }

// Len returns the length of the text in characters.
func (t *TextEdit) Len() int { return utf8.RuneCountInString(t.text) }

// SetText replaces the text and emits TextChanged on a change.
func (t *TextEdit) SetText(text string) {
	if text == t.text {
		return
	}
	t.text = text
	emit(&t.Widget, &t.TextChanged, text)
}

// LineEdit is a single-line display of a value the user cannot type into.
type LineEdit struct {
	Widget
	text string
}

// NewLineEdit creates an empty line edit.
func NewLineEdit() *LineEdit {
	return &LineEdit{Widget: newWidget()}
}

// Text returns the displayed text.
func (l *LineEdit) Text() string { return l.text }

// SetText replaces the displayed text.
func (l *LineEdit) SetText(text string) { l.text = text }

// Button is a push button.
type Button struct {
	Widget
	text string

	Clicked Signal[struct{}]
}

// NewButton creates a push button.
func NewButton(text string) *Button {
	return &Button{Widget: newWidget(), text: text}
}

// Text returns the button caption.
func (b *Button) Text() string { return b.text }

// Click emits Clicked when the button is enabled.
func (b *Button) Click() {
	if !b.enabled {
		return
	}
	emit(&b.Widget, &b.Clicked, struct{}{})
}

// Surface is a native window region that external processes can draw into.
type Surface struct {
	Widget
	winID     uint64
	repaints  int
	destroyed bool

	Clicked   Signal[struct{}]
	Destroyed Signal[struct{}]
}

// NewSurface creates a surface backed by the given native window id.
func NewSurface(winID uint64) *Surface {
	return &Surface{Widget: newWidget(), winID: winID}
}

// WinID returns the native window id.
func (s *Surface) WinID() uint64 { return s.winID }

// Update schedules a repaint of the surface's own background.
func (s *Surface) Update() { s.repaints++ }

// Repaints returns how many repaints were requested.
func (s *Surface) Repaints() int { return s.repaints }

// Click emits Clicked.
func (s *Surface) Click() {
	if s.destroyed {
		return
	}
	emit(&s.Widget, &s.Clicked, struct{}{})
}

// Destroy releases the surface and emits Destroyed once.
func (s *Surface) Destroy() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	// Destruction is always announced, blocked or not.
	s.Destroyed.emit(struct{}{})
}

// IsDestroyed reports whether Destroy was called.
func (s *Surface) IsDestroyed() bool { return s.destroyed }
