package library

import (
	"testing"

	"github.com/barun-bash/dialogic/internal/types"
)

func TestArithmeticOperatorOverload(t *testing.T) {
	r := NewDefault(nil)
	fn, ok := r.ResolveOperator("+", []types.Type{types.TNumber, types.TNumber})
	if !ok {
		t.Fatal("expected Number+Number overload")
	}
	v, err := fn.Call([]types.Value{types.Number(2), types.Number(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsNumber() != 5 {
		t.Errorf("expected 5, got %v", v.AsNumber())
	}
}

func TestStringConcatOverload(t *testing.T) {
	r := NewDefault(nil)
	v, err := r.CallOperator("+", []types.Value{types.String("a"), types.String("b")}, []types.Type{types.TString, types.TString})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.AsString() != "ab" {
		t.Errorf("expected \"ab\", got %q", v.AsString())
	}
}

func TestNoOverloadForMismatchedTypes(t *testing.T) {
	r := NewDefault(nil)
	if _, ok := r.ResolveOperator("-", []types.Type{types.TString, types.TNumber}); ok {
		t.Fatal("expected no overload for String - Number")
	}
}

func TestEqualityIsForgivingAcrossKinds(t *testing.T) {
	r := NewDefault(nil)
	v, err := r.CallOperator("==", []types.Value{types.Number(1), types.String("1")}, []types.Type{types.TNumber, types.TString})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.AsBool() {
		t.Error("expected Number(1) == String(\"1\") to be true")
	}
}

type fakeVisits struct{ counts map[string]int }

func (f fakeVisits) Visited(node string) bool   { return f.counts[node] > 0 }
func (f fakeVisits) VisitCount(node string) int { return f.counts[node] }

func TestVisitedBuiltinsUseBoundStore(t *testing.T) {
	r := NewDefault(fakeVisits{counts: map[string]int{"Start": 2}})
	got, err := r.Call("visited_count", []types.Value{types.String("Start")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AsNumber() != 2 {
		t.Errorf("expected 2, got %v", got.AsNumber())
	}
}

func TestUnknownFunctionErrors(t *testing.T) {
	r := NewDefault(nil)
	if _, err := r.Call("not_registered", nil); err == nil {
		t.Fatal("expected an error calling an unregistered function")
	}
}
