package treedraw

import (
	"context"
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/riofs"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/hcaltrigger/hcalplot/config"
)

// output is a histogram to be written under a name.
type output struct {
	name string
	hist *NDHist
}

// processFile draws every spec from the trees of input and writes the
// resulting histograms to output. Later histograms replace earlier ones of
// the same name.
func (r *Runner) processFile(ctx context.Context, input, output string) error {
	f, err := groot.Open(input)
	if err != nil {
		return fmt.Errorf("treedraw: could not open %q: %w", input, err)
	}
	defer f.Close()

	var (
		trees []string
		specs = make(map[string][]config.DrawSpec)
	)
	for _, spec := range r.Histograms {
		name := spec.Tree
		if name == "" {
			name = r.tree()
		}
		if _, ok := specs[name]; !ok {
			trees = append(trees, name)
		}
		specs[name] = append(specs[name], spec)
	}

	var (
		names []string
		hists = make(map[string]*NDHist)
	)
	for _, name := range trees {
		obj, err := riofs.Dir(f).Get(name)
		if err != nil {
			return fmt.Errorf("treedraw: could not find tree %q in %q: %w", name, input, err)
		}
		tree, ok := obj.(rtree.Tree)
		if !ok {
			return fmt.Errorf("treedraw: %q in %q is a %T, not a tree", name, input, obj)
		}

		drawers, err := r.drawTree(ctx, tree, specs[name])
		if err != nil {
			return fmt.Errorf("treedraw: %q: %w", input, err)
		}
		for _, d := range drawers {
			outs, err := r.outputs(d)
			if err != nil {
				return err
			}
			for _, o := range outs {
				if _, dup := hists[o.name]; !dup {
					names = append(names, o.name)
				}
				hists[o.name] = o.hist
			}
		}
	}

	o, err := groot.Create(output)
	if err != nil {
		return fmt.Errorf("treedraw: could not create %q: %w", output, err)
	}
	defer o.Close()

	for _, name := range names {
		obj, err := rootObject(hists[name], name)
		if err != nil {
			return err
		}
		if err := o.Put(name, obj); err != nil {
			return fmt.Errorf("treedraw: could not write %q to %q: %w", name, output, err)
		}
	}
	if err := o.Close(); err != nil {
		return fmt.Errorf("treedraw: could not close %q: %w", output, err)
	}
	return nil
}

// drawTree fills the histograms of specs in a single pass over tree.
func (r *Runner) drawTree(ctx context.Context, tree rtree.Tree, specs []config.DrawSpec) ([]*drawer, error) {
	var exprs []string
	for _, spec := range specs {
		exprs = append(exprs, Axes(spec.Variable)...)
		exprs = append(exprs, spec.Weight, spec.Selection)
	}
	rvars, branches, env := bind(tree, exprs)

	drawers := make([]*drawer, len(specs))
	for i, spec := range specs {
		d, err := newDrawer(spec, env)
		if err != nil {
			return nil, err
		}
		drawers[i] = d
	}
	if len(rvars) == 0 {
		return drawers, nil
	}

	reader, err := rtree.NewReader(tree, rvars)
	if err != nil {
		return nil, fmt.Errorf("could not create tree reader: %w", err)
	}
	defer reader.Close()

	err = reader.Read(func(rctx rtree.RCtx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, b := range branches {
			b.load(env)
		}
		for _, d := range drawers {
			if err := d.fill(env); err != nil {
				return fmt.Errorf("entry %d: %w", rctx.Entry, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not read tree: %w", err)
	}
	return drawers, nil
}

// outputs returns the histograms stored for d: its projections, or the
// histogram itself.
func (r *Runner) outputs(d *drawer) ([]output, error) {
	base := d.spec.Basename
	projs := d.spec.AllProjections()
	if len(projs) == 0 || d.hist.Dim() == 1 {
		if d.hist.Dim() < 3 {
			return []output{{name: base, hist: d.hist}}, nil
		}
		r.msg().Printf("WARNING: %q is 3D and has no projections, storing its full yx projection", base)
		full := Projection{Axis: 'Z', First: 1, Last: d.spec.ZBins}
		h, err := d.hist.Project(full)
		if err != nil {
			return nil, err
		}
		return []output{{name: base, hist: h}}, nil
	}

	outs := make([]output, 0, len(projs))
	for _, s := range projs {
		p, err := ParseProjection(s)
		if err != nil {
			return nil, err
		}
		h, err := d.hist.Project(p)
		if err != nil {
			return nil, fmt.Errorf("treedraw: %q: %w", base, err)
		}
		outs = append(outs, output{name: p.Name(base), hist: h})
	}
	return outs, nil
}
