package treedraw

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/hcaltrigger/hcalplot/config"
)

// functions are available to every expression besides the expr builtins.
var functions = map[string]any{
	"sqrt":  math.Sqrt,
	"pow":   math.Pow,
	"exp":   math.Exp,
	"log":   math.Log,
	"log10": math.Log10,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"atan2": math.Atan2,
	"hypot": math.Hypot,
}

// branch binds a scalar tree branch to its name in the expression
// environment. Numbers are seen as float64, booleans as bool.
type branch struct {
	name  string
	value any
}

func (b branch) load(env map[string]any) {
	switch v := b.value.(type) {
	case *bool:
		env[b.name] = *v
	case *int8:
		env[b.name] = float64(*v)
	case *int16:
		env[b.name] = float64(*v)
	case *int32:
		env[b.name] = float64(*v)
	case *int64:
		env[b.name] = float64(*v)
	case *uint8:
		env[b.name] = float64(*v)
	case *uint16:
		env[b.name] = float64(*v)
	case *uint32:
		env[b.name] = float64(*v)
	case *uint64:
		env[b.name] = float64(*v)
	case *float32:
		env[b.name] = float64(*v)
	case *float64:
		env[b.name] = *v
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case *bool, *int8, *int16, *int32, *int64, *uint8, *uint16, *uint32, *uint64, *float32, *float64:
		return true
	}
	return false
}

// bind selects the scalar branches of tree referenced by the expressions. It
// returns the read variables and the initial environment.
func bind(tree rtree.Tree, exprs []string) ([]rtree.ReadVar, []branch, map[string]any) {
	wanted := make(map[string]bool)
	for _, id := range Identifiers(exprs...) {
		wanted[id] = true
	}

	env := make(map[string]any, len(functions)+len(wanted))
	for k, v := range functions {
		env[k] = v
	}

	var (
		all      = rtree.NewReadVars(tree)
		rvars    []rtree.ReadVar
		branches []branch
	)
	for _, rv := range all {
		if !wanted[rv.Name] || !isScalar(rv.Value) {
			continue
		}
		rvars = append(rvars, rv)
		b := branch{name: rv.Name, value: rv.Value}
		b.load(env)
		branches = append(branches, b)
	}
	if len(rvars) == 0 {
		// constant expressions still need one branch to walk the entries.
		for _, rv := range all {
			if isScalar(rv.Value) {
				rvars = append(rvars, rv)
				break
			}
		}
	}
	return rvars, branches, env
}

// drawer evaluates one DrawSpec for each entry of a tree.
type drawer struct {
	spec   config.DrawSpec
	hist   *NDHist
	axes   []*vm.Program
	weight *vm.Program
	sel    *vm.Program
	x      []float64
}

func newDrawer(spec config.DrawSpec, env map[string]any) (*drawer, error) {
	dim := Dimensions(spec.Variable)
	hist, err := newNDHistFrom(spec, dim)
	if err != nil {
		return nil, err
	}

	compile := func(code string) (*vm.Program, error) {
		prog, err := expr.Compile(code, expr.Env(env))
		if err != nil {
			return nil, fmt.Errorf("treedraw: %q: could not compile %q: %w", spec.Basename, code, err)
		}
		return prog, nil
	}

	d := &drawer{spec: spec, hist: hist, x: make([]float64, dim)}
	for _, code := range Axes(spec.Variable) {
		prog, err := compile(code)
		if err != nil {
			return nil, err
		}
		d.axes = append(d.axes, prog)
	}
	if d.weight, err = compile(spec.Weight); err != nil {
		return nil, err
	}
	if d.sel, err = compile(spec.Selection); err != nil {
		return nil, err
	}
	return d, nil
}

// fill evaluates the selection, the weight and the axes on the current entry
// and fills the histogram with weight*selection.
func (d *drawer) fill(env map[string]any) error {
	sel, err := d.eval(d.sel, env)
	if err != nil || sel == 0 {
		return err
	}
	w, err := d.eval(d.weight, env)
	if err != nil || w == 0 {
		return err
	}
	for i, prog := range d.axes {
		if d.x[i], err = d.eval(prog, env); err != nil {
			return err
		}
	}
	d.hist.Fill(w*sel, d.x...)
	return nil
}

func (d *drawer) eval(prog *vm.Program, env map[string]any) (float64, error) {
	out, err := expr.Run(prog, env)
	if err != nil {
		return 0, fmt.Errorf("treedraw: %q: %w", d.spec.Basename, err)
	}
	return toFloat(out)
}

func toFloat(v any) (float64, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, fmt.Errorf("treedraw: expression yields %T, not a number", v)
}
