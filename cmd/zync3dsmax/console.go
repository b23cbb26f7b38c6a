package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zyncrender/max-plugin/internal/ui"
)

// The console widgets reproduce the event behavior of the toolkit
// adapters the plugin binds to inside 3ds Max: checkboxes fire on state
// change only, comboboxes select their first element on populate,
// numeric fields silently reject values outside their validation range.
// The presenter cannot tell the difference.

// conWidget is the shared enabled flag. The zero value is enabled.
type conWidget struct {
	disabled bool
}

func (w *conWidget) Enabled() bool           { return !w.disabled }
func (w *conWidget) SetEnabled(enabled bool) { w.disabled = !enabled }

type conButton struct {
	conWidget
	onClicked func()
}

func (b *conButton) OnClicked(handler func()) { b.onClicked = handler }

func (b *conButton) Click() {
	if b.onClicked != nil {
		b.onClicked()
	}
}

type conCheckbox struct {
	conWidget
	checked   bool
	onChecked func(bool)
}

func (c *conCheckbox) Checked() bool { return c.checked }

func (c *conCheckbox) SetChecked(checked bool) {
	if c.checked == checked {
		return
	}
	c.checked = checked
	if c.onChecked != nil {
		c.onChecked(checked)
	}
}

func (c *conCheckbox) OnChecked(handler func(bool)) { c.onChecked = handler }

type conCombobox struct {
	conWidget
	elements  []string
	selected  int
	onChanged func(string)
}

func newConCombobox() *conCombobox {
	return &conCombobox{selected: -1}
}

func (c *conCombobox) Elements() []string { return c.elements }

func (c *conCombobox) Contains(element string) bool {
	for _, e := range c.elements {
		if e == element {
			return true
		}
	}
	return false
}

func (c *conCombobox) SelectedElement() (string, error) {
	if c.selected < 0 || c.selected >= len(c.elements) {
		return "", fmt.Errorf("combobox has no selected element")
	}
	return c.elements[c.selected], nil
}

func (c *conCombobox) Select(element string) error {
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

func (c *conCombobox) Populate(elements []string) {
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

func (c *conCombobox) OnChanged(handler func(string)) { c.onChanged = handler }

type conLabel struct {
	conWidget
	text string
}

func (l *conLabel) Text() string        { return l.text }
func (l *conLabel) SetText(text string) { l.text = text }

type conNumericField struct {
	conWidget
	value         int
	hasValue      bool
	minValue      int
	maxValue      int
	hasValidation bool
	onChanged     func(int)
}

func (f *conNumericField) Value() (int, error) {
	if !f.hasValue {
		return 0, fmt.Errorf("numeric field has no value")
	}
	return f.value, nil
}

func (f *conNumericField) SetValue(value int) {
	if f.hasValidation && (value < f.minValue || value > f.maxValue) {
		return
	}
	f.value = value
	f.hasValue = true
	if f.onChanged != nil {
		f.onChanged(value)
	}
}

func (f *conNumericField) SetValidation(min, max int) {
	f.minValue = min
	f.maxValue = max
	f.hasValidation = true
}

func (f *conNumericField) OnChanged(handler func(int)) { f.onChanged = handler }

type conTextField struct {
	conWidget
	text      string
	onChanged func(string)
}

func (f *conTextField) Text() string { return f.text }

func (f *conTextField) SetText(text string) {
	f.text = text
	if f.onChanged != nil {
		f.onChanged(text)
	}
}

func (f *conTextField) OnChanged(handler func(string)) { f.onChanged = handler }

type formSlot struct {
	kind string
	name string
}

// conDialog hands out memoized named widgets and prints the whole form on
// demand, in the order the presenter first asked for each control.
type conDialog struct {
	conWidget
	out     io.Writer
	name    string
	visible bool
	caption string

	order         []formSlot
	buttons       map[string]*conButton
	checkboxes    map[string]*conCheckbox
	comboboxes    map[string]*conCombobox
	labels        map[string]*conLabel
	numericFields map[string]*conNumericField
	textFields    map[string]*conTextField
}

func newConDialog(name string, out io.Writer) *conDialog {
	return &conDialog{
		out:           out,
		name:          name,
		buttons:       map[string]*conButton{},
		checkboxes:    map[string]*conCheckbox{},
		comboboxes:    map[string]*conCombobox{},
		labels:        map[string]*conLabel{},
		numericFields: map[string]*conNumericField{},
		textFields:    map[string]*conTextField{},
	}
}

func (d *conDialog) Show(caption string) {
	d.visible = true
	d.caption = caption
	fmt.Fprintf(d.out, "-- %s\n", caption)
}

func (d *conDialog) Close() {
	if d.visible {
		fmt.Fprintf(d.out, "-- %s dialog closed\n", d.name)
	}
	d.visible = false
}

func (d *conDialog) Visible() bool { return d.visible }

func (d *conDialog) Button(name string) ui.Button {
	if _, ok := d.buttons[name]; !ok {
		d.buttons[name] = &conButton{}
		d.order = append(d.order, formSlot{"button", name})
	}
	return d.buttons[name]
}

func (d *conDialog) Checkbox(name string) ui.Checkbox {
	if _, ok := d.checkboxes[name]; !ok {
		d.checkboxes[name] = &conCheckbox{}
		d.order = append(d.order, formSlot{"checkbox", name})
	}
	return d.checkboxes[name]
}

func (d *conDialog) Combobox(name string) ui.Combobox {
	if _, ok := d.comboboxes[name]; !ok {
		d.comboboxes[name] = newConCombobox()
		d.order = append(d.order, formSlot{"combobox", name})
	}
	return d.comboboxes[name]
}

func (d *conDialog) Label(name string) ui.Label {
	if _, ok := d.labels[name]; !ok {
		d.labels[name] = &conLabel{}
		d.order = append(d.order, formSlot{"label", name})
	}
	return d.labels[name]
}

func (d *conDialog) NumericField(name string) ui.NumericField {
	if _, ok := d.numericFields[name]; !ok {
		d.numericFields[name] = &conNumericField{}
		d.order = append(d.order, formSlot{"numeric", name})
	}
	return d.numericFields[name]
}

func (d *conDialog) TextField(name string) ui.TextField {
	if _, ok := d.textFields[name]; !ok {
		d.textFields[name] = &conTextField{}
		d.order = append(d.order, formSlot{"text", name})
	}
	return d.textFields[name]
}

func (d *conDialog) printForm() {
	if !d.visible {
		fmt.Fprintf(d.out, "%s dialog is not open\n", d.name)
		return
	}
	fmt.Fprintf(d.out, "== %s ==\n", d.caption)
	for _, slot := range d.order {
		suffix := ""
		if !d.Enabled() || !d.slotWidget(slot).Enabled() {
			suffix = "  (disabled)"
		}
		fmt.Fprintf(d.out, "  %-20s %s%s\n", slot.name, d.renderSlot(slot), suffix)
	}
}

func (d *conDialog) slotWidget(slot formSlot) ui.Widget {
	switch slot.kind {
	case "button":
		return d.buttons[slot.name]
	case "checkbox":
		return d.checkboxes[slot.name]
	case "combobox":
		return d.comboboxes[slot.name]
	case "label":
		return d.labels[slot.name]
	case "numeric":
		return d.numericFields[slot.name]
	}
	return d.textFields[slot.name]
}

func (d *conDialog) renderSlot(slot formSlot) string {
	switch slot.kind {
	case "button":
		return "[button]"
	case "checkbox":
		if d.checkboxes[slot.name].Checked() {
			return "[x]"
		}
		return "[ ]"
	case "combobox":
		box := d.comboboxes[slot.name]
		selected, err := box.SelectedElement()
		if err != nil {
			selected = "(none)"
		}
		return fmt.Sprintf("%s  <%d options>", selected, len(box.Elements()))
	case "label":
		return d.labels[slot.name].Text()
	case "numeric":
		value, err := d.numericFields[slot.name].Value()
		if err != nil {
			return "(unset)"
		}
		return strconv.Itoa(value)
	}
	return strconv.Quote(d.textFields[slot.name].Text())
}

func (d *conDialog) requireEnabled(name string, w ui.Widget) error {
	if !d.Enabled() {
		return fmt.Errorf("%s dialog is disabled", d.name)
	}
	if !w.Enabled() {
		return fmt.Errorf("%s is disabled", name)
	}
	return nil
}

func (d *conDialog) setField(name, raw string) error {
	if f, ok := d.numericFields[name]; ok {
		if err := d.requireEnabled(name, f); err != nil {
			return err
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s takes a number, got %q", name, raw)
		}
		f.SetValue(value)
		if got, err := f.Value(); err != nil || got != value {
			return fmt.Errorf("%s rejected %d", name, value)
		}
		return nil
	}
	if f, ok := d.textFields[name]; ok {
		if err := d.requireEnabled(name, f); err != nil {
			return err
		}
		f.SetText(raw)
		return nil
	}
	return fmt.Errorf("no field named %q", name)
}

func (d *conDialog) setCheckbox(name string, checked bool) error {
	box, ok := d.checkboxes[name]
	if !ok {
		return fmt.Errorf("no checkbox named %q", name)
	}
	if err := d.requireEnabled(name, box); err != nil {
		return err
	}
	box.SetChecked(checked)
	return nil
}

func (d *conDialog) pickElement(name, element string) error {
	box, ok := d.comboboxes[name]
	if !ok {
		return fmt.Errorf("no combobox named %q", name)
	}
	if err := d.requireEnabled(name, box); err != nil {
		return err
	}
	return box.Select(element)
}

func (d *conDialog) clickButton(name string) error {
	button, ok := d.buttons[name]
	if !ok {
		return fmt.Errorf("no button named %q", name)
	}
	if err := d.requireEnabled(name, button); err != nil {
		return err
	}
	button.Click()
	return nil
}

func (d *conDialog) printElements(name string) error {
	box, ok := d.comboboxes[name]
	if !ok {
		return fmt.Errorf("no combobox named %q", name)
	}
	for _, element := range box.Elements() {
		marker := " "
		if selected, err := box.SelectedElement(); err == nil && selected == element {
			marker = "*"
		}
		fmt.Fprintf(d.out, "  %s %s\n", marker, element)
	}
	return nil
}

// console is the terminal surface the presenter drives. It also stands in
// for the modal collaborators: the extra-assets file browser and the
// preemptible consent prompt read staged answers instead of blocking, so
// they never fight the command reader for stdin.
type console struct {
	out io.Writer

	submit  *conDialog
	spinner *conDialog

	stagedFiles []string
	pvmAnswer   bool
}

func newConsole(out io.Writer) *console {
	return &console{
		out:       out,
		submit:    newConDialog("submit", out),
		spinner:   newConDialog("spinner", out),
		pvmAnswer: true,
	}
}

func (c *console) ShowError(message string) { fmt.Fprintf(c.out, "ERROR: %s\n", message) }
func (c *console) ShowInfo(message string)  { fmt.Fprintf(c.out, "INFO: %s\n", message) }

// Show lists the staged extra assets in place of the file picker dialog.
func (c *console) Show(projectName string) error {
	fmt.Fprintf(c.out, "Extra assets staged for project %q:\n", projectName)
	if len(c.stagedFiles) == 0 {
		fmt.Fprintln(c.out, "  (none, stage with: files <path> ...)")
		return nil
	}
	for _, file := range c.stagedFiles {
		fmt.Fprintf(c.out, "  %s\n", file)
	}
	return nil
}

func (c *console) SelectedFiles(projectName string) ([]string, error) {
	return append([]string(nil), c.stagedFiles...), nil
}

// Prompt answers the preemptible machines consent with the staged answer.
func (c *console) Prompt() (bool, error) {
	answer := "declined"
	if c.pvmAnswer {
		answer = "accepted"
	}
	fmt.Fprintf(c.out, "Preemptible instances can be reclaimed at any time and the job restarted. Staged answer: %s\n", answer)
	return c.pvmAnswer, nil
}

func (c *console) stageFiles(paths []string) {
	c.stagedFiles = append([]string(nil), paths...)
	fmt.Fprintf(c.out, "Staged %d extra assets\n", len(c.stagedFiles))
}

func (c *console) stageConsent(accepted bool) {
	c.pvmAnswer = accepted
	if accepted {
		fmt.Fprintln(c.out, "Preemptible consent staged: accept")
		return
	}
	fmt.Fprintln(c.out, "Preemptible consent staged: decline")
}

// runWidgetCommand applies a form verb to the submit dialog.
func (c *console) runWidgetCommand(verb string, args []string) error {
	if !c.submit.Visible() {
		return fmt.Errorf("submit dialog is not open")
	}
	switch verb {
	case "show":
		c.submit.printForm()
		return nil
	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: set <field> <value>")
		}
		return c.submit.setField(args[0], strings.Join(args[1:], " "))
	case "check":
		if len(args) != 1 {
			return fmt.Errorf("usage: check <checkbox>")
		}
		return c.submit.setCheckbox(args[0], true)
	case "uncheck":
		if len(args) != 1 {
			return fmt.Errorf("usage: uncheck <checkbox>")
		}
		return c.submit.setCheckbox(args[0], false)
	case "pick":
		if len(args) < 2 {
			return fmt.Errorf("usage: pick <combobox> <element>")
		}
		return c.submit.pickElement(args[0], strings.Join(args[1:], " "))
	case "options":
		if len(args) != 1 {
			return fmt.Errorf("usage: options <combobox>")
		}
		return c.submit.printElements(args[0])
	case "click":
		if len(args) != 1 {
			return fmt.Errorf("usage: click <button>")
		}
		return c.submit.clickButton(args[0])
	}
	return fmt.Errorf("Unknown command: %s", verb)
}

func (c *console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  show                      print the submit form
  set <field> <value>       type into a text or numeric field
  check <checkbox>          tick a checkbox
  uncheck <checkbox>        untick a checkbox
  pick <combobox> <element> select a dropdown element
  options <combobox>        list a dropdown's elements
  click <button>            press a button (submit, logout, select_files)
  files <path> [path...]    stage the extra assets the file browser returns
  consent yes|no            stage the preemptible machines answer
  login <email> <password>  log in and store the session token
  poll <job-id>             follow a job until it finishes
  quit                      leave the console
`)
}
