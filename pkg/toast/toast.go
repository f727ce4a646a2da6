package toast

import (
	"github.com/vango-dev/folio/pkg/dom"
	"github.com/vango-dev/folio/pkg/nav"
)

// EventName is the event name dispatched for toasts.
// Client-side code should listen for this event.
const EventName = "folio:toast"

// Type represents the toast notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Show displays a toast notification to the user.
//
// The client receives a CustomEvent with:
//   - event.type = "folio:toast"
//   - event.detail = { level: "success|error|warning|info", message: "..." }
func Show(e dom.Emitter, level Type, message string) {
	e.Emit(EventName, map[string]any{
		"level":   string(level),
		"message": message,
	})
}

// Success shows a success toast.
//
//	toast.Success(doc, "Login successful!")
func Success(e dom.Emitter, message string) {
	Show(e, TypeSuccess, message)
}

// Error shows an error toast.
//
//	toast.Error(doc, "Incorrect password. Please try again.")
func Error(e dom.Emitter, message string) {
	Show(e, TypeError, message)
}

// Warning shows a warning toast.
func Warning(e dom.Emitter, message string) {
	Show(e, TypeWarning, message)
}

// Info shows an info toast.
func Info(e dom.Emitter, message string) {
	Show(e, TypeInfo, message)
}

// WithTitle shows a toast with a title and message.
//
//	toast.WithTitle(doc, toast.TypeSuccess, "Password reset", "Check your inbox.")
func WithTitle(e dom.Emitter, level Type, title, message string) {
	e.Emit(EventName, map[string]any{
		"level":   string(level),
		"title":   title,
		"message": message,
	})
}

// Notification shows a header notification as a toast. The notification
// id is included so the client can dismiss it through the API.
func Notification(e dom.Emitter, n nav.Notification) {
	e.Emit(EventName, map[string]any{
		"level":   string(levelFor(n.Type)),
		"message": n.Message,
		"id":      n.ID,
	})
}

// Result shows the outcome of a form submission: a success toast or an
// error toast carrying message.
func Result(e dom.Emitter, success bool, message string) {
	if success {
		Success(e, message)
		return
	}
	Error(e, message)
}

func levelFor(t nav.NotificationType) Type {
	switch t {
	case nav.Warning:
		return TypeWarning
	case nav.Error:
		return TypeError
	default:
		return TypeInfo
	}
}
