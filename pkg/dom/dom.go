// Package dom models the parts of the browser document folio's stores
// touch: the root element's class list, element focus and custom events.
//
// Stores change a Document; the Document records each change as a Command
// that the transport drains and sends to the client, which applies it to
// the real document.
package dom

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/vango-dev/folio/internal/notify"
)

// RootTarget addresses the document root (<html>).
const RootTarget = ":root"

// Op is the kind of a Command.
type Op uint8

const (
	OpAddClass    Op = 0x10 // Add CSS class
	OpRemoveClass Op = 0x11 // Remove CSS class
	OpFocus       Op = 0x0B // Focus element
	OpDispatch    Op = 0x20 // Dispatch client event
)

// String returns the string representation of the operation.
func (op Op) String() string {
	switch op {
	case OpAddClass:
		return "AddClass"
	case OpRemoveClass:
		return "RemoveClass"
	case OpFocus:
		return "Focus"
	case OpDispatch:
		return "Dispatch"
	default:
		return fmt.Sprintf("Unknown(%d)", op)
	}
}

// MarshalText encodes the operation by name.
func (op Op) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

// Command is one change for the client to apply.
type Command struct {
	Op     Op     `json:"op"`
	Target string `json:"target,omitempty"`
	Value  string `json:"value,omitempty"`
	Detail any    `json:"detail,omitempty"`
}

// ClassList is the root element's class list.
type ClassList interface {
	SetRootClass(class string, on bool)
}

// Focuser moves focus to an element by id. Focusing is best-effort: an id
// that does not exist on the client is ignored there.
type Focuser interface {
	Focus(id string)
}

// Emitter dispatches a custom event to the client.
type Emitter interface {
	Emit(event string, detail any)
}

// Document records root classes, focus and events for one client.
type Document struct {
	mu       sync.Mutex
	classes  []string
	focused  string
	commands []Command

	hub notify.Hub
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{}
}

// SetRootClass adds or removes class on the root element. Setting a class
// to its current state records nothing.
func (d *Document) SetRootClass(class string, on bool) {
	d.mu.Lock()
	has := slices.Contains(d.classes, class)
	switch {
	case on && !has:
		d.classes = append(d.classes, class)
		d.commands = append(d.commands, Command{Op: OpAddClass, Target: RootTarget, Value: class})
	case !on && has:
		d.classes = slices.DeleteFunc(d.classes, func(c string) bool { return c == class })
		d.commands = append(d.commands, Command{Op: OpRemoveClass, Target: RootTarget, Value: class})
	default:
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	d.hub.Notify()
}

// HasRootClass reports whether the root element carries class.
func (d *Document) HasRootClass(class string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Contains(d.classes, class)
}

// RootClasses returns the root element's classes in insertion order.
func (d *Document) RootClasses() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.classes)
}

// Focus records a focus change to the element with the given id.
func (d *Document) Focus(id string) {
	d.mu.Lock()
	d.focused = id
	d.commands = append(d.commands, Command{Op: OpFocus, Target: id})
	d.mu.Unlock()

	d.hub.Notify()
}

// Focused returns the id of the last focused element.
func (d *Document) Focused() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused
}

// Emit records a custom event for the client to dispatch.
func (d *Document) Emit(event string, detail any) {
	d.mu.Lock()
	d.commands = append(d.commands, Command{Op: OpDispatch, Value: event, Detail: detail})
	d.mu.Unlock()

	d.hub.Notify()
}

// Drain returns and clears the pending commands.
func (d *Document) Drain() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := d.commands
	d.commands = nil
	return out
}

// Subscribe registers fn to run whenever a command is recorded.
func (d *Document) Subscribe(fn func()) (unsubscribe func()) {
	return d.hub.Subscribe(fn)
}

// MarshalJSON encodes the document's current state.
func (d *Document) MarshalJSON() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	classes := d.classes
	if classes == nil {
		classes = []string{}
	}
	return json.Marshal(struct {
		RootClasses []string `json:"rootClasses"`
		Focused     string   `json:"focused,omitempty"`
	}{classes, d.focused})
}

// Discard is a document that ignores every change.
var Discard discard

type discard struct{}

func (discard) SetRootClass(string, bool) {}
func (discard) Focus(string) {}
func (discard) Emit(string, any) {}
