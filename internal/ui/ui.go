// Package ui declares the widget capabilities the submission dialog is
// built from. Implementations belong to the host-side toolkit adapter;
// the presenter only ever talks to these interfaces.
package ui

// Widget is the capability every form control shares.
type Widget interface {
	Enabled() bool
	SetEnabled(enabled bool)
}

// Button is a clickable control.
type Button interface {
	Widget
	OnClicked(handler func())
}

// Checkbox is a two-state control. Its handler fires only when the
// checked state actually changes, whether from the user or from
// SetChecked.
type Checkbox interface {
	Widget
	Checked() bool
	SetChecked(checked bool)
	OnChecked(handler func(checked bool))
}

// Combobox is a single-selection dropdown.
type Combobox interface {
	Widget
	Elements() []string
	Contains(element string) bool
	SelectedElement() (string, error)
	Select(element string) error
	// Populate replaces the elements and selects the first one, firing
	// the changed handler; an empty list selects nothing and fires the
	// handler with "".
	Populate(elements []string)
	OnChanged(handler func(element string))
}

// Label is a read-only text control.
type Label interface {
	Widget
	Text() string
	SetText(text string)
}

// NumericField is an integer input with an inclusive validation range.
// Values outside the range are rejected by the control.
type NumericField interface {
	Widget
	Value() (int, error)
	SetValue(value int)
	SetValidation(min, max int)
	OnChanged(handler func(value int))
}

// TextField is a free text input.
type TextField interface {
	Widget
	Text() string
	SetText(text string)
	OnChanged(handler func(text string))
}

// Dialog hands out its widgets by logical name and controls visibility.
// Disabling a dialog disables every widget in it.
type Dialog interface {
	Widget
	Show(caption string)
	Close()
	Visible() bool
	Button(name string) Button
	Checkbox(name string) Checkbox
	Combobox(name string) Combobox
	Label(name string) Label
	NumericField(name string) NumericField
	TextField(name string) TextField
}

// Notifier shows modal message boxes outside any dialog.
type Notifier interface {
	ShowError(message string)
	ShowInfo(message string)
}
