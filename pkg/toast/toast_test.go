package toast_test

import (
	"testing"

	"github.com/vango-dev/folio/pkg/dom"
	"github.com/vango-dev/folio/pkg/nav"
	"github.com/vango-dev/folio/pkg/toast"
)

// mockEmitter captures emitted events for verification.
type mockEmitter struct {
	emittedEvents []emittedEvent
}

type emittedEvent struct {
	name string
	data any
}

func (m *mockEmitter) Emit(name string, data any) {
	m.emittedEvents = append(m.emittedEvents, emittedEvent{name, data})
}

func detail(t *testing.T, m *mockEmitter) map[string]any {
	t.Helper()
	if len(m.emittedEvents) != 1 {
		t.Fatalf("expected 1 event, got %d", len(m.emittedEvents))
	}
	event := m.emittedEvents[0]
	if event.name != toast.EventName {
		t.Errorf("expected event name %q, got %q", toast.EventName, event.name)
	}
	return event.data.(map[string]any)
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name  string
		show  func(dom.Emitter, string)
		level string
	}{
		{"Success", toast.Success, "success"},
		{"Error", toast.Error, "error"},
		{"Warning", toast.Warning, "warning"},
		{"Info", toast.Info, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockEmitter{}
			tt.show(m, "Item saved!")

			data := detail(t, m)
			if data["level"] != tt.level {
				t.Errorf("expected level %s, got %v", tt.level, data["level"])
			}
			if data["message"] != "Item saved!" {
				t.Errorf("expected message 'Item saved!', got %v", data["message"])
			}
		})
	}
}

func TestWithTitle(t *testing.T) {
	m := &mockEmitter{}

	toast.WithTitle(m, toast.TypeSuccess, "Settings", "Your changes have been saved.")

	data := detail(t, m)
	if data["title"] != "Settings" {
		t.Errorf("expected title 'Settings', got %v", data["title"])
	}
	if data["level"] != "success" {
		t.Errorf("expected level success, got %v", data["level"])
	}
}

func TestNotification(t *testing.T) {
	tests := []struct {
		typ   nav.NotificationType
		level string
	}{
		{nav.Info, "info"},
		{nav.Warning, "warning"},
		{nav.Error, "error"},
		{"", "info"},
	}

	for _, tt := range tests {
		m := &mockEmitter{}
		toast.Notification(m, nav.Notification{ID: "notification-1", Message: "BTC +5%", Type: tt.typ})

		data := detail(t, m)
		if data["level"] != tt.level || data["id"] != "notification-1" || data["message"] != "BTC +5%" {
			t.Errorf("type %q: detail = %v", tt.typ, data)
		}
	}
}

func TestResult(t *testing.T) {
	m := &mockEmitter{}
	toast.Result(m, false, "Incorrect password. Please try again.")
	if data := detail(t, m); data["level"] != "error" {
		t.Errorf("failed result level = %v", data["level"])
	}

	m = &mockEmitter{}
	toast.Result(m, true, "Login successful!")
	if data := detail(t, m); data["level"] != "success" {
		t.Errorf("successful result level = %v", data["level"])
	}
}

func TestDocumentRecordsToasts(t *testing.T) {
	doc := dom.NewDocument()

	toast.Success(doc, "First")
	toast.Error(doc, "Second")
	toast.Info(doc, "Third")

	cmds := doc.Drain()
	if len(cmds) != 3 {
		t.Fatalf("expected 3 commands, got %d", len(cmds))
	}

	expected := []string{"success", "error", "info"}
	for i, cmd := range cmds {
		if cmd.Op != dom.OpDispatch || cmd.Value != toast.EventName {
			t.Errorf("command %d = %+v", i, cmd)
		}
		data := cmd.Detail.(map[string]any)
		if data["level"] != expected[i] {
			t.Errorf("event %d: expected level %s, got %v", i, expected[i], data["level"])
		}
	}
}
