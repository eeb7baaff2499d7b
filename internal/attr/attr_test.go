package attr

import (
	"bytes"
	"testing"

	"github.com/markschl/seqtool-sub000/internal/symtab"
)

func constValue(b []byte) ValueFunc {
	return func(*symtab.Table) []byte { return b }
}

func TestFormatValidate(t *testing.T) {
	if err := DefaultFormat().Validate(); err != nil {
		t.Fatalf("default format should validate: %v", err)
	}
	bad := Format{Delim: []byte(" "), ValueDelim: []byte(" ")}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for equal delimiters")
	}
	empty := Format{Delim: nil, ValueDelim: []byte("=")}
	if err := empty.Validate(); err == nil {
		t.Fatalf("expected error for empty delimiter")
	}
}

func TestRegisterConflict(t *testing.T) {
	e := NewEngine(DefaultFormat())
	if _, err := e.Register("size", Edit, constValue([]byte("1"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.Register("size", Delete, nil); err == nil {
		t.Fatalf("expected conflict error registering size as Delete after Edit")
	}
	id1, err := e.Register("size", Edit, constValue([]byte("2")))
	if err != nil {
		t.Fatalf("re-registering same action should succeed: %v", err)
	}
	if id1 != 0 {
		t.Fatalf("expected stable id 0, got %d", id1)
	}
}

func TestScanFind(t *testing.T) {
	e := NewEngine(DefaultFormat())
	e.Register("size", ReadOnly, nil)
	e.Register("type", ReadOnly, nil)

	desc := []byte("sample description size=42 type=bacteria")
	scanned := e.Scan(nil, desc)

	v, ok := scanned.Find("size")
	if !ok || !bytes.Equal(v, []byte("42")) {
		t.Fatalf("expected size=42, got %q ok=%v", v, ok)
	}
	v, ok = scanned.Find("type")
	if !ok || !bytes.Equal(v, []byte("bacteria")) {
		t.Fatalf("expected type=bacteria, got %q ok=%v", v, ok)
	}
	if _, ok := scanned.Find("missing"); ok {
		t.Fatalf("did not expect to find unregistered attribute")
	}
}

func TestComposeEdit(t *testing.T) {
	e := NewEngine(DefaultFormat())
	e.Register("size", Edit, constValue([]byte("99")))

	desc := []byte("description size=42 other=x")
	newID, newDesc := e.Compose(nil, desc, nil)
	if newID != nil {
		t.Fatalf("expected nil id, got %q", newID)
	}
	want := "description size=99 other=x"
	if string(newDesc) != want {
		t.Fatalf("got %q, want %q", newDesc, want)
	}
}

func TestComposeDelete(t *testing.T) {
	e := NewEngine(DefaultFormat())
	e.Register("size", Delete, nil)

	desc := []byte("description size=42 other=x")
	_, newDesc := e.Compose(nil, desc, nil)
	want := "description other=x"
	if string(newDesc) != want {
		t.Fatalf("got %q, want %q", newDesc, want)
	}

	desc2 := []byte("size=42 other=x")
	_, newDesc2 := e.Compose(nil, desc2, nil)
	want2 := "other=x"
	if string(newDesc2) != want2 {
		t.Fatalf("got %q, want %q", newDesc2, want2)
	}
}

func TestComposeDeleteAcrossReadOnly(t *testing.T) {
	e := NewEngine(DefaultFormat())
	e.Register("x", Delete, nil)
	e.Register("a", ReadOnly, nil)
	e.Register("b", Delete, nil)

	desc := []byte("x=1 a=2 b=3")
	_, newDesc := e.Compose(nil, desc, nil)
	want := "a=2"
	if string(newDesc) != want {
		t.Fatalf("got %q, want %q", newDesc, want)
	}
}

func TestComposeDeleteAcrossUnregisteredText(t *testing.T) {
	e := NewEngine(DefaultFormat())
	e.Register("a", Delete, nil)
	e.Register("b", Delete, nil)

	desc := []byte("a=1 XYZ b=2")
	_, newDesc := e.Compose(nil, desc, nil)
	want := "XYZ"
	if string(newDesc) != want {
		t.Fatalf("got %q, want %q", newDesc, want)
	}
}

func TestComposeAppend(t *testing.T) {
	e := NewEngine(DefaultFormat())
	e.Register("size", Append, constValue([]byte("7")))

	_, newDesc := e.Compose(nil, nil, nil)
	if string(newDesc) != "size=7" {
		t.Fatalf("leading delimiter should be suppressed on empty field, got %q", newDesc)
	}

	_, newDesc2 := e.Compose(nil, []byte("description"), nil)
	if string(newDesc2) != "description size=7" {
		t.Fatalf("got %q", newDesc2)
	}

	// already present: append is a no-op, existing value untouched.
	_, newDesc3 := e.Compose(nil, []byte("description size=1"), nil)
	if string(newDesc3) != "description size=1" {
		t.Fatalf("append should not duplicate an existing attribute, got %q", newDesc3)
	}
}

func TestComposeCustomDelimiters(t *testing.T) {
	format := Format{Delim: []byte(";"), ValueDelim: []byte(":"), AppendTo: TargetID}
	e := NewEngine(format)
	e.Register("len", Edit, constValue([]byte("10")))
	e.Register("tag", Append, constValue([]byte("new")))

	id := []byte("len:5;other:y")
	newID, _ := e.Compose(id, nil, nil)
	want := "len:10;other:y;tag:new"
	if string(newID) != want {
		t.Fatalf("got %q, want %q", newID, want)
	}
}
