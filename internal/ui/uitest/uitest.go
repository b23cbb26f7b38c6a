// Package uitest provides in-memory widget fakes for driving the
// presenter in tests. The fakes reproduce the event behavior of the real
// toolkit adapters: checkboxes fire on state change only, comboboxes
// select their first element on populate, numeric fields silently reject
// values outside their validation range.
package uitest

import (
	"fmt"

	"github.com/zyncrender/max-plugin/internal/ui"
)

// FakeWidget implements the shared widget capability. The zero value is
// enabled.
type FakeWidget struct {
	disabled bool
}

func (w *FakeWidget) Enabled() bool           { return !w.disabled }
func (w *FakeWidget) SetEnabled(enabled bool) { w.disabled = !enabled }

// FakeButton records a click handler and lets tests trigger it.
type FakeButton struct {
	FakeWidget
	onClicked func()
}

func (b *FakeButton) OnClicked(handler func()) { b.onClicked = handler }

// Click invokes the registered handler.
func (b *FakeButton) Click() {
	if b.onClicked != nil {
		b.onClicked()
	}
}

// FakeCheckbox fires its handler only when the state changes.
type FakeCheckbox struct {
	FakeWidget
	checked   bool
	onChecked func(bool)
}

func (c *FakeCheckbox) Checked() bool { return c.checked }

func (c *FakeCheckbox) SetChecked(checked bool) {
	if c.checked == checked {
		return
	}
	c.checked = checked
	if c.onChecked != nil {
		c.onChecked(checked)
	}
}

func (c *FakeCheckbox) OnChecked(handler func(bool)) { c.onChecked = handler }

// FakeCombobox is a single-selection dropdown fake.
type FakeCombobox struct {
	FakeWidget
	elements  []string
	selected  int
	onChanged func(string)
}

// NewFakeCombobox returns a combobox with nothing selected.
func NewFakeCombobox() *FakeCombobox {
	return &FakeCombobox{selected: -1}
}

func (c *FakeCombobox) Elements() []string { return c.elements }

func (c *FakeCombobox) Contains(element string) bool {
	for _, e := range c.elements {
		if e == element {
			return true
		}
	}
	return false
}

func (c *FakeCombobox) SelectedElement() (string, error) {
	if c.selected < 0 || c.selected >= len(c.elements) {
		return "", fmt.Errorf("combobox has no selected element")
	}
	return c.elements[c.selected], nil
}

func (c *FakeCombobox) Select(element string) error {
	for i, e := range c.elements {
		if e == element {
			c.selected = i
			if c.onChanged != nil {
				c.onChanged(element)
			}
			return nil
		}
	}
	return fmt.Errorf("combobox does not contain element %q", element)
}

func (c *FakeCombobox) Populate(elements []string) {
	c.elements = append([]string(nil), elements...)
	if len(c.elements) > 0 {
		c.selected = 0
		if c.onChanged != nil {
			c.onChanged(c.elements[0])
		}
		return
	}
	c.selected = -1
	if c.onChanged != nil {
		c.onChanged("")
	}
}

func (c *FakeCombobox) OnChanged(handler func(string)) { c.onChanged = handler }

// FakeLabel stores display text.
type FakeLabel struct {
	FakeWidget
	text string
}

func (l *FakeLabel) Text() string        { return l.text }
func (l *FakeLabel) SetText(text string) { l.text = text }

// FakeNumericField validates on set and errors on read until a value was
// accepted.
type FakeNumericField struct {
	FakeWidget
	value         int
	hasValue      bool
	minValue      int
	maxValue      int
	hasValidation bool
	onChanged     func(int)
}

func (f *FakeNumericField) Value() (int, error) {
	if !f.hasValue {
		return 0, fmt.Errorf("numeric field has no value")
	}
	return f.value, nil
}

func (f *FakeNumericField) SetValue(value int) {
	if f.hasValidation && (value < f.minValue || value > f.maxValue) {
		return
	}
	f.value = value
	f.hasValue = true
	if f.onChanged != nil {
		f.onChanged(value)
	}
}

func (f *FakeNumericField) SetValidation(min, max int) {
	f.minValue = min
	f.maxValue = max
	f.hasValidation = true
}

func (f *FakeNumericField) OnChanged(handler func(int)) { f.onChanged = handler }

// FakeTextField fires its handler on every set.
type FakeTextField struct {
	FakeWidget
	text      string
	onChanged func(string)
}

func (f *FakeTextField) Text() string { return f.text }

func (f *FakeTextField) SetText(text string) {
	f.text = text
	if f.onChanged != nil {
		f.onChanged(text)
	}
}

func (f *FakeTextField) OnChanged(handler func(string)) { f.onChanged = handler }

// FakeDialog hands out memoized fake widgets by name, so a test and the
// presenter always see the same control.
type FakeDialog struct {
	FakeWidget
	visible bool
	Caption string

	buttons       map[string]*FakeButton
	checkboxes    map[string]*FakeCheckbox
	comboboxes    map[string]*FakeCombobox
	labels        map[string]*FakeLabel
	numericFields map[string]*FakeNumericField
	textFields    map[string]*FakeTextField
}

func NewFakeDialog() *FakeDialog {
	return &FakeDialog{
		buttons:       map[string]*FakeButton{},
		checkboxes:    map[string]*FakeCheckbox{},
		comboboxes:    map[string]*FakeCombobox{},
		labels:        map[string]*FakeLabel{},
		numericFields: map[string]*FakeNumericField{},
		textFields:    map[string]*FakeTextField{},
	}
}

func (d *FakeDialog) Show(caption string) {
	d.visible = true
	d.Caption = caption
}

func (d *FakeDialog) Close()        { d.visible = false }
func (d *FakeDialog) Visible() bool { return d.visible }

func (d *FakeDialog) Button(name string) ui.Button             { return d.FakeButton(name) }
func (d *FakeDialog) Checkbox(name string) ui.Checkbox         { return d.FakeCheckbox(name) }
func (d *FakeDialog) Combobox(name string) ui.Combobox         { return d.FakeCombobox(name) }
func (d *FakeDialog) Label(name string) ui.Label               { return d.FakeLabel(name) }
func (d *FakeDialog) NumericField(name string) ui.NumericField { return d.FakeNumericField(name) }
func (d *FakeDialog) TextField(name string) ui.TextField       { return d.FakeTextField(name) }

// FakeButton returns the concrete fake behind Button.
func (d *FakeDialog) FakeButton(name string) *FakeButton {
	if _, ok := d.buttons[name]; !ok {
		d.buttons[name] = &FakeButton{}
	}
	return d.buttons[name]
}

// FakeCheckbox returns the concrete fake behind Checkbox.
func (d *FakeDialog) FakeCheckbox(name string) *FakeCheckbox {
	if _, ok := d.checkboxes[name]; !ok {
		d.checkboxes[name] = &FakeCheckbox{}
	}
	return d.checkboxes[name]
}

// FakeCombobox returns the concrete fake behind Combobox.
func (d *FakeDialog) FakeCombobox(name string) *FakeCombobox {
	if _, ok := d.comboboxes[name]; !ok {
		d.comboboxes[name] = NewFakeCombobox()
	}
	return d.comboboxes[name]
}

// FakeLabel returns the concrete fake behind Label.
func (d *FakeDialog) FakeLabel(name string) *FakeLabel {
	if _, ok := d.labels[name]; !ok {
		d.labels[name] = &FakeLabel{}
	}
	return d.labels[name]
}

// FakeNumericField returns the concrete fake behind NumericField.
func (d *FakeDialog) FakeNumericField(name string) *FakeNumericField {
	if _, ok := d.numericFields[name]; !ok {
		d.numericFields[name] = &FakeNumericField{}
	}
	return d.numericFields[name]
}

// FakeTextField returns the concrete fake behind TextField.
func (d *FakeDialog) FakeTextField(name string) *FakeTextField {
	if _, ok := d.textFields[name]; !ok {
		d.textFields[name] = &FakeTextField{}
	}
	return d.textFields[name]
}

// FakeNotifier records shown messages.
type FakeNotifier struct {
	Errors []string
	Infos  []string
}

func (n *FakeNotifier) ShowError(message string) { n.Errors = append(n.Errors, message) }
func (n *FakeNotifier) ShowInfo(message string)  { n.Infos = append(n.Infos, message) }

// LastError returns the most recent error message, or "".
func (n *FakeNotifier) LastError() string {
	if len(n.Errors) == 0 {
		return ""
	}
	return n.Errors[len(n.Errors)-1]
}

// LastInfo returns the most recent info message, or "".
func (n *FakeNotifier) LastInfo() string {
	if len(n.Infos) == 0 {
		return ""
	}
	return n.Infos[len(n.Infos)-1]
}
