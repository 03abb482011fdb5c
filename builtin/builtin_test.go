package builtin

import (
	"testing"

	"nilan/value"
)

func TestNamesMatchesRegistryOrder(t *testing.T) {
	names := Names()
	if len(names) != len(Registry) {
		t.Fatalf("expected %d names, got %d", len(Registry), len(names))
	}
	for i, e := range Registry {
		if names[i] != e.Name {
			t.Errorf("index %d: expected %q, got %q", i, e.Name, names[i])
		}
	}
}

func TestLookupFindsRegisteredBuiltin(t *testing.T) {
	entry, ok := Lookup("println")
	if !ok {
		t.Fatalf("expected to find 'println'")
	}
	if entry.Name != "println" {
		t.Fatalf("expected name 'println', got %q", entry.Name)
	}
}

func TestLookupMissingBuiltin(t *testing.T) {
	if _, ok := Lookup("nonexistent"); ok {
		t.Fatalf("expected 'nonexistent' to not be found")
	}
}

func TestPrintlnReturnsUnit(t *testing.T) {
	result := builtinPrintln([]value.Value{value.Int32(1), value.Int32(2), value.Int32(3)})
	if result.Tag != value.TagUnit {
		t.Fatalf("expected println to return Unit, got %v", result.Tag)
	}
}

func TestPrintReturnsUnit(t *testing.T) {
	result := builtinPrint([]value.Value{value.NewString("hi")})
	if result.Tag != value.TagUnit {
		t.Fatalf("expected print to return Unit, got %v", result.Tag)
	}
}
