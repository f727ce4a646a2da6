package dom

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetRootClass(t *testing.T) {
	d := NewDocument()

	d.SetRootClass("dark", true)
	d.SetRootClass("dark", true)
	d.SetRootClass("compact", true)
	d.SetRootClass("dark", false)
	d.SetRootClass("dark", false)

	if diff := cmp.Diff([]string{"compact"}, d.RootClasses()); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if d.HasRootClass("dark") {
		t.Error("dark should be removed")
	}

	want := []Command{
		{Op: OpAddClass, Target: RootTarget, Value: "dark"},
		{Op: OpAddClass, Target: RootTarget, Value: "compact"},
		{Op: OpRemoveClass, Target: RootTarget, Value: "dark"},
	}
	if diff := cmp.Diff(want, d.Drain()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if len(d.Drain()) != 0 {
		t.Error("Drain must clear the queue")
	}
}

func TestFocusAndEmit(t *testing.T) {
	d := NewDocument()
	notified := 0
	stop := d.Subscribe(func() { notified++ })
	defer stop()

	d.Focus("global-search")
	d.Emit("folio:toast", map[string]any{"level": "info"})

	if d.Focused() != "global-search" {
		t.Errorf("Focused = %q", d.Focused())
	}
	if notified != 2 {
		t.Errorf("notified %d times, want 2", notified)
	}

	cmds := d.Drain()
	if len(cmds) != 2 || cmds[0].Op != OpFocus || cmds[1].Op != OpDispatch || cmds[1].Value != "folio:toast" {
		t.Errorf("commands = %+v", cmds)
	}
}

func TestCommandJSON(t *testing.T) {
	data, err := json.Marshal(Command{Op: OpAddClass, Target: RootTarget, Value: "dark"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"op":"AddClass","target":":root","value":"dark"}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestDocumentJSON(t *testing.T) {
	d := NewDocument()
	data, _ := json.Marshal(d)
	if string(data) != `{"rootClasses":[]}` {
		t.Errorf("empty document json = %s", data)
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpAddClass, "AddClass"},
		{OpRemoveClass, "RemoveClass"},
		{OpFocus, "Focus"},
		{OpDispatch, "Dispatch"},
		{Op(99), "Unknown(99)"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestDiscard(t *testing.T) {
	var (
		_ ClassList = Discard
		_ Focuser   = Discard
		_ Emitter   = Discard
		_ ClassList = (*Document)(nil)
		_ Focuser   = (*Document)(nil)
		_ Emitter   = (*Document)(nil)
	)
	Discard.SetRootClass("dark", true)
	Discard.Focus("x")
	Discard.Emit("e", nil)
}
