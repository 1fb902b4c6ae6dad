package hcalplot

import (
	"fmt"
	"strconv"
	"strings"
)

// FloatArrayFlags collects a float flag given several times. The first Set
// replaces any default values.
type FloatArrayFlags struct {
	Array   []float64
	beenSet bool
}

func (f *FloatArrayFlags) Set(valueStr string) error {
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return err
	}

	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}

	f.Array = append(f.Array, value)
	return nil
}

func (f *FloatArrayFlags) String() string {
	return fmt.Sprint(f.Array)
}

// StringArrayFlags collects a string flag given several times. Each value may
// itself hold several comma or space separated entries.
type StringArrayFlags struct {
	Array   []string
	beenSet bool
}

func (f *StringArrayFlags) Set(valueStr string) error {
	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}

	for _, value := range strings.FieldsFunc(valueStr, func(r rune) bool {
		return r == ',' || r == ' '
	}) {
		f.Array = append(f.Array, value)
	}
	return nil
}

func (f *StringArrayFlags) String() string {
	return strings.Join(f.Array, ",")
}
