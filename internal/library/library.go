// Package library implements the DSL's Library: the registry of named
// callable functions (including operators) visible to scripts, with typed
// signatures consulted by the type checker and implementations invoked by
// the virtual machine (spec.md §4.4, §4.6, GLOSSARY "Library").
package library

import (
	"fmt"
	"math"

	"github.com/barun-bash/dialogic/internal/types"
)

// Signature describes a function's static shape for the type checker.
type Signature struct {
	Params []types.Type
	Return types.Type
}

// Func is one named, callable entry: a function or a single operator
// overload.
type Func struct {
	Name string
	Sig  Signature
	Call func(args []types.Value) (types.Value, error)
}

// VisitStore answers the "visited"/"visited_count" built-ins, which need
// the VM's per-node visit history rather than anything in the call's own
// arguments. The VM supplies its own implementation at construction time.
type VisitStore interface {
	Visited(node string) bool
	VisitCount(node string) int
}

// RandomSource answers "random"/"random_range"/"dice", which need a
// seedable source of randomness owned by the VM rather than a package
// global, so that two VM instances (or one replayed from a saved seed)
// produce independent, reproducible sequences (spec.md §4.6 "host-controlled
// determinism").
type RandomSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// Registry is the DSL's Library: named functions plus a per-operator
// overload table, resolved by the checker and invoked by the VM.
type Registry struct {
	funcs     map[string]*Func
	operators map[string][]*Func
	visits    VisitStore
	random    RandomSource
}

// New returns a Registry with no functions registered — hosts build their
// own function set on top of it via Register (spec.md §6 "Host API").
func New() *Registry {
	return &Registry{funcs: make(map[string]*Func), operators: make(map[string][]*Func)}
}

// NewDefault returns a Registry pre-populated with the standard operator
// overloads and built-in functions described in spec.md §4.6.
// visits may be nil until a VM binds one via BindVisitStore.
func NewDefault(visits VisitStore) *Registry {
	r := New()
	r.visits = visits
	registerOperators(r)
	registerBuiltins(r)
	return r
}

// BindVisitStore attaches the VM's visit-history lookup after construction,
// letting a Registry be built once (e.g. by host configuration) and reused
// across multiple VM instances that each bind their own store.
func (r *Registry) BindVisitStore(v VisitStore) { r.visits = v }

// BindRandomSource attaches the VM's seedable random source after
// construction, same lifecycle reasoning as BindVisitStore.
func (r *Registry) BindRandomSource(rnd RandomSource) { r.random = rnd }

// Register adds a named function, overwriting any previous registration
// of the same name.
func (r *Registry) Register(f *Func) { r.funcs[f.Name] = f }

// RegisterOperator adds one overload for an operator symbol (e.g. "+").
// Multiple overloads with different operand types may coexist.
func (r *Registry) RegisterOperator(op string, f *Func) {
	r.operators[op] = append(r.operators[op], f)
}

// Lookup resolves a named function call.
func (r *Registry) Lookup(name string) (*Func, bool) {
	f, ok := r.funcs[name]
	return f, ok
}

// Names returns every registered function name, for "did you mean"
// suggestions on an unresolved call.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	return names
}

// ResolveOperator selects the unique operator overload whose parameter
// types match argTypes exactly, per spec.md §4.4 "Operator resolution".
// Returns ok=false if no overload matches (the caller must report this as
// an ambiguity or type error, since exactly-one-match is required).
func (r *Registry) ResolveOperator(op string, argTypes []types.Type) (*Func, bool) {
	for _, f := range r.operators[op] {
		if signatureMatches(f.Sig, argTypes) {
			return f, true
		}
	}
	return nil, false
}

func signatureMatches(sig Signature, argTypes []types.Type) bool {
	if len(sig.Params) != len(argTypes) {
		return false
	}
	for i, p := range sig.Params {
		if p.Kind == types.KindAny {
			continue
		}
		if !p.Equal(argTypes[i]) {
			return false
		}
	}
	return true
}

// Call invokes a named function by value, used by the VM's CallFunc
// opcode.
func (r *Registry) Call(name string, args []types.Value) (types.Value, error) {
	f, ok := r.funcs[name]
	if !ok {
		return types.Value{}, fmt.Errorf("library: unknown function %q", name)
	}
	return f.Call(args)
}

// CallOperator invokes a resolved operator overload by value.
func (r *Registry) CallOperator(op string, args []types.Value, argTypes []types.Type) (types.Value, error) {
	f, ok := r.ResolveOperator(op, argTypes)
	if !ok {
		return types.Value{}, fmt.Errorf("library: no overload of %q for argument types %v", op, argTypes)
	}
	return f.Call(args)
}

func registerOperators(r *Registry) {
	num2 := func(fn func(a, b float64) float64) func([]types.Value) (types.Value, error) {
		return func(args []types.Value) (types.Value, error) {
			a, b := float64(float32(args[0].AsNumber())), float64(float32(args[1].AsNumber()))
			return types.Number(float64(float32(fn(a, b)))), nil
		}
	}
	cmp := func(fn func(a, b float64) bool) func([]types.Value) (types.Value, error) {
		return func(args []types.Value) (types.Value, error) {
			return types.Bool(fn(args[0].AsNumber(), args[1].AsNumber())), nil
		}
	}
	boolOp := func(fn func(a, b bool) bool) func([]types.Value) (types.Value, error) {
		return func(args []types.Value) (types.Value, error) {
			return types.Bool(fn(args[0].AsBool(), args[1].AsBool())), nil
		}
	}

	arith := []string{"+", "-", "*", "/", "%"}
	impls := map[string]func(a, b float64) float64{
		"+": func(a, b float64) float64 { return a + b },
		"-": func(a, b float64) float64 { return a - b },
		"*": func(a, b float64) float64 { return a * b },
		"/": func(a, b float64) float64 { return a / b },
		"%": func(a, b float64) float64 { return math.Mod(a, b) },
	}
	for _, op := range arith {
		r.RegisterOperator(op, &Func{
			Name: op,
			Sig:  Signature{Params: []types.Type{types.TNumber, types.TNumber}, Return: types.TNumber},
			Call: num2(impls[op]),
		})
	}
	r.RegisterOperator("+", &Func{
		Name: "+",
		Sig:  Signature{Params: []types.Type{types.TString, types.TString}, Return: types.TString},
		Call: func(args []types.Value) (types.Value, error) {
			return types.String(args[0].AsString() + args[1].AsString()), nil
		},
	})

	comparisons := map[string]func(a, b float64) bool{
		"<":  func(a, b float64) bool { return a < b },
		"<=": func(a, b float64) bool { return a <= b },
		">":  func(a, b float64) bool { return a > b },
		">=": func(a, b float64) bool { return a >= b },
	}
	for op, fn := range comparisons {
		r.RegisterOperator(op, &Func{
			Name: op,
			Sig:  Signature{Params: []types.Type{types.TNumber, types.TNumber}, Return: types.TBool},
			Call: cmp(fn),
		})
	}

	// Equality is forgiving: any operand-type combination is accepted, and
	// the right-hand side is coerced to the left-hand side's kind
	// (types.Value.Equal), so the checker registers it with Any params.
	r.RegisterOperator("==", &Func{
		Name: "==",
		Sig:  Signature{Params: []types.Type{types.Any, types.Any}, Return: types.TBool},
		Call: func(args []types.Value) (types.Value, error) { return types.Bool(args[0].Equal(args[1])), nil },
	})
	r.RegisterOperator("!=", &Func{
		Name: "!=",
		Sig:  Signature{Params: []types.Type{types.Any, types.Any}, Return: types.TBool},
		Call: func(args []types.Value) (types.Value, error) { return types.Bool(!args[0].Equal(args[1])), nil },
	})

	boolOps := map[string]func(a, b bool) bool{
		"and": func(a, b bool) bool { return a && b },
		"or":  func(a, b bool) bool { return a || b },
		"xor": func(a, b bool) bool { return a != b },
	}
	for op, fn := range boolOps {
		r.RegisterOperator(op, &Func{
			Name: op,
			Sig:  Signature{Params: []types.Type{types.TBool, types.TBool}, Return: types.TBool},
			Call: boolOp(fn),
		})
	}

	r.RegisterOperator("neg", &Func{
		Name: "neg",
		Sig:  Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) { return types.Number(-args[0].AsNumber()), nil },
	})
	r.RegisterOperator("not", &Func{
		Name: "not",
		Sig:  Signature{Params: []types.Type{types.TBool}, Return: types.TBool},
		Call: func(args []types.Value) (types.Value, error) { return types.Bool(!args[0].AsBool()), nil },
	})
}

func registerBuiltins(r *Registry) {
	r.Register(&Func{
		Name: "round", Sig: Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) { return types.Number(math.Round(args[0].AsNumber())), nil },
	})
	r.Register(&Func{
		Name: "floor", Sig: Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) { return types.Number(math.Floor(args[0].AsNumber())), nil },
	})
	r.Register(&Func{
		Name: "ceil", Sig: Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) { return types.Number(math.Ceil(args[0].AsNumber())), nil },
	})
	r.Register(&Func{
		Name: "int", Sig: Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) { return types.Number(math.Trunc(args[0].AsNumber())), nil },
	})
	r.Register(&Func{
		Name: "decimal", Sig: Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) {
			n := args[0].AsNumber()
			return types.Number(n - math.Trunc(n)), nil
		},
	})
	r.Register(&Func{
		Name: "inc", Sig: Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) { return types.Number(args[0].AsNumber() + 1), nil },
	})
	r.Register(&Func{
		Name: "dec", Sig: Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) { return types.Number(args[0].AsNumber() - 1), nil },
	})

	r.Register(&Func{
		Name: "random", Sig: Signature{Params: nil, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) {
			if r.random == nil {
				return types.Number(0), nil
			}
			return types.Number(r.random.Float64()), nil
		},
	})
	r.Register(&Func{
		Name: "random_range", Sig: Signature{Params: []types.Type{types.TNumber, types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) {
			lo, hi := args[0].AsNumber(), args[1].AsNumber()
			if r.random == nil {
				return types.Number(lo), nil
			}
			return types.Number(lo + r.random.Float64()*(hi-lo)), nil
		},
	})
	r.Register(&Func{
		Name: "dice", Sig: Signature{Params: []types.Type{types.TNumber}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) {
			sides := args[0].AsNumber()
			if r.random == nil || sides < 1 {
				return types.Number(1), nil
			}
			return types.Number(math.Floor(r.random.Float64()*sides) + 1), nil
		},
	})

	r.Register(&Func{
		Name: "visited", Sig: Signature{Params: []types.Type{types.TString}, Return: types.TBool},
		Call: func(args []types.Value) (types.Value, error) {
			if r.visits == nil {
				return types.Bool(false), nil
			}
			return types.Bool(r.visits.Visited(args[0].AsString())), nil
		},
	})
	r.Register(&Func{
		Name: "visited_count", Sig: Signature{Params: []types.Type{types.TString}, Return: types.TNumber},
		Call: func(args []types.Value) (types.Value, error) {
			if r.visits == nil {
				return types.Number(0), nil
			}
			return types.Number(float64(r.visits.VisitCount(args[0].AsString()))), nil
		},
	})
}
