package record

import (
	"encoding/json"
	"errors"
	"testing"
)

// testEntity is a minimal persistable entity for codec tests.
type testEntity struct {
	Name  string
	Count int
}

func (e *testEntity) RecordTag() string { return "TestEntity" }

func (e *testEntity) EncodeRecord() Record {
	return Record{
		"name":  e.Name,
		"count": e.Count,
	}
}

func decodeTestEntity(rec Record) (Entity, error) {
	name := String(rec, "name")
	if name == "" {
		return nil, errors.New("name is required")
	}
	return &testEntity{
		Name:  name,
		Count: Int(rec, "count"),
	}, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	reg.Register("TestEntity", decodeTestEntity)
	return reg
}

func TestEncode_WritesClassTag(t *testing.T) {
	rec := Encode(&testEntity{Name: "tv", Count: 2})

	if got := String(rec, TagKey); got != "TestEntity" {
		t.Errorf("record[%q] = %q, want %q", TagKey, got, "TestEntity")
	}
	if got := String(rec, "name"); got != "tv" {
		t.Errorf("record[name] = %q, want %q", got, "tv")
	}
}

func TestRegistry_RoundTrip(t *testing.T) {
	reg := newTestRegistry(t)
	original := &testEntity{Name: "living-room", Count: 7}

	ent, err := reg.Decode(Encode(original))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	decoded, ok := ent.(*testEntity)
	if !ok {
		t.Fatalf("Decode() returned %T, want *testEntity", ent)
	}
	if decoded.Name != original.Name || decoded.Count != original.Count {
		t.Errorf("Decode() = %+v, want %+v", decoded, original)
	}
}

func TestRegistry_RoundTripThroughJSON(t *testing.T) {
	// The store writes records through encoding/json; numbers come back
	// as float64 and nested records as map[string]any.
	reg := newTestRegistry(t)

	data, err := json.Marshal(Encode(&testEntity{Name: "bedroom", Count: 3}))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	ent, err := reg.Decode(rec)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded := ent.(*testEntity); decoded.Count != 3 {
		t.Errorf("Count = %d, want 3", decoded.Count)
	}
}

func TestRegistry_UnknownTag(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Decode(Record{TagKey: "FutureEntity"})
	if !errors.Is(err, ErrUnknownTag) {
		t.Errorf("Decode() error = %v, want ErrUnknownTag", err)
	}
}

func TestRegistry_MissingTag(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Decode(Record{"name": "untagged"})
	if !errors.Is(err, ErrMissingTag) {
		t.Errorf("Decode() error = %v, want ErrMissingTag", err)
	}
}

func TestRegistry_DecodeFailureWrapped(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.Decode(Record{TagKey: "TestEntity"}) // missing name
	if !errors.Is(err, ErrDecode) {
		t.Errorf("Decode() error = %v, want ErrDecode", err)
	}
}

func TestRegistry_DuplicateRegistrationPanics(t *testing.T) {
	reg := newTestRegistry(t)

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register() did not panic")
		}
	}()
	reg.Register("TestEntity", decodeTestEntity)
}

func TestRegistry_Known(t *testing.T) {
	reg := newTestRegistry(t)

	if !reg.Known("TestEntity") {
		t.Error("Known(TestEntity) = false, want true")
	}
	if reg.Known("Other") {
		t.Error("Known(Other) = true, want false")
	}
}

func TestFieldHelpers_Lenient(t *testing.T) {
	rec := Record{
		"str":   42, // wrong type
		"num":   "x",
		"float": float64(1.5),
		"int":   3,
	}

	if got := String(rec, "str"); got != "" {
		t.Errorf("String() on wrong type = %q, want empty", got)
	}
	if got := String(rec, "absent"); got != "" {
		t.Errorf("String() on absent key = %q, want empty", got)
	}
	if got := Float64(rec, "num"); got != 0 {
		t.Errorf("Float64() on wrong type = %v, want 0", got)
	}
	if got := Float64(rec, "float"); got != 1.5 {
		t.Errorf("Float64() = %v, want 1.5", got)
	}
	if got := Int(rec, "int"); got != 3 {
		t.Errorf("Int() = %v, want 3", got)
	}
	if got := Bool(rec, "absent"); got {
		t.Error("Bool() on absent key = true, want false")
	}
}

func TestSub(t *testing.T) {
	rec := Record{
		"nested":  Record{"a": "b"},
		"jsonmap": map[string]any{"c": "d"},
		"scalar":  1,
	}

	if sub, ok := Sub(rec, "nested"); !ok || String(sub, "a") != "b" {
		t.Errorf("Sub(nested) = %v, %v", sub, ok)
	}
	if sub, ok := Sub(rec, "jsonmap"); !ok || String(sub, "c") != "d" {
		t.Errorf("Sub(jsonmap) = %v, %v", sub, ok)
	}
	if _, ok := Sub(rec, "scalar"); ok {
		t.Error("Sub(scalar) ok = true, want false")
	}
	if _, ok := Sub(rec, "absent"); ok {
		t.Error("Sub(absent) ok = true, want false")
	}
}
