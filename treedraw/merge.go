package treedraw

import (
	"fmt"

	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rhist"
	"go-hep.org/x/hep/groot/root"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hbook/rootcnv"

	"github.com/hcaltrigger/hcalplot/histo"
)

func rootObject(h *NDHist, name string) (root.Object, error) {
	hh, err := h.Hbook(name)
	if err != nil {
		return nil, err
	}
	switch hh := hh.(type) {
	case *hbook.H1D:
		return rhist.NewH1DFrom(hh), nil
	case *hbook.H2D:
		return rhist.NewH2DFrom(hh), nil
	}
	return nil, fmt.Errorf("treedraw: cannot store %T", hh)
}

// Merge sums the histograms of equal names found in inputs and writes them
// to output, in order of first appearance. It returns the merged names.
func Merge(output string, inputs []string) ([]string, error) {
	var (
		names []string
		h1s   = make(map[string]*hbook.H1D)
		h2s   = make(map[string]*hbook.H2D)
	)

	for _, input := range inputs {
		err := func() error {
			f, err := groot.Open(input)
			if err != nil {
				return fmt.Errorf("could not open: %w", err)
			}
			defer f.Close()

			for _, key := range f.Keys() {
				obj, err := key.Object()
				if err != nil {
					return fmt.Errorf("could not read %q: %w", key.Name(), err)
				}
				name := key.Name()
				switch obj := obj.(type) {
				case rhist.H2:
					h := rootcnv.H2D(obj)
					acc, ok := h2s[name]
					if !ok {
						names = append(names, name)
						h2s[name] = h
						continue
					}
					if err := histo.AddH2D(acc, h); err != nil {
						return fmt.Errorf("%q: %w", name, err)
					}
				case rhist.H1:
					h := rootcnv.H1D(obj)
					acc, ok := h1s[name]
					if !ok {
						names = append(names, name)
						h1s[name] = h
						continue
					}
					if acc.Len() != h.Len() || acc.XMin() != h.XMin() || acc.XMax() != h.XMax() {
						return fmt.Errorf("%q: incompatible binnings", name)
					}
					h1s[name] = hbook.AddH1D(acc, h)
				}
			}
			return nil
		}()
		if err != nil {
			return nil, fmt.Errorf("treedraw: merge %q: %w", input, err)
		}
	}

	f, err := groot.Create(output)
	if err != nil {
		return nil, fmt.Errorf("treedraw: could not create %q: %w", output, err)
	}
	defer f.Close()

	for _, name := range names {
		var obj root.Object
		if h, ok := h1s[name]; ok {
			h.Annotation()["name"] = name
			obj = rhist.NewH1DFrom(h)
		} else {
			h2 := h2s[name]
			h2.Annotation()["name"] = name
			obj = rhist.NewH2DFrom(h2)
		}
		if err := f.Put(name, obj); err != nil {
			return nil, fmt.Errorf("treedraw: could not write %q to %q: %w", name, output, err)
		}
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("treedraw: could not close %q: %w", output, err)
	}
	return names, nil
}
