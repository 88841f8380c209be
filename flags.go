// Package eicana holds the helpers shared by the eicana commands:
// repeated-value command-line flags and a linear axis tick marker.
package eicana

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FloatArrayFlags collects the values of a repeated float flag.
// Values given on the command line replace the defaults set in Array.
type FloatArrayFlags struct {
	Array   []float64
	beenSet bool
}

func (f *FloatArrayFlags) Set(valueStr string) error {
	for _, tok := range strings.Split(valueStr, ",") {
		value, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return err
		}

		if !f.beenSet {
			f.beenSet = true
			f.Array = nil
		}
		f.Array = append(f.Array, value)
	}
	return nil
}

func (f *FloatArrayFlags) String() string {
	return fmt.Sprint(f.Array)
}

// IsSet reports whether the flag was given on the command line.
func (f *FloatArrayFlags) IsSet() bool { return f.beenSet }

// Edges returns the values as histogram bin edges.
// At least 2 strictly increasing values are needed.
func (f *FloatArrayFlags) Edges() ([]float64, error) {
	if len(f.Array) < 2 {
		return nil, fmt.Errorf("eicana: need at least 2 bin edges, got %d", len(f.Array))
	}
	if !sort.SliceIsSorted(f.Array, func(i, j int) bool { return f.Array[i] < f.Array[j] }) {
		return nil, fmt.Errorf("eicana: bin edges are not sorted: %v", f.Array)
	}
	for i := 1; i < len(f.Array); i++ {
		if f.Array[i] == f.Array[i-1] {
			return nil, fmt.Errorf("eicana: duplicate bin edge %v", f.Array[i])
		}
	}
	return append([]float64(nil), f.Array...), nil
}

// StringArrayFlags collects the values of a repeated string flag.
type StringArrayFlags struct {
	Array   []string
	beenSet bool
}

func (f *StringArrayFlags) Set(valueStr string) error {
	if !f.beenSet {
		f.beenSet = true
		f.Array = nil
	}
	f.Array = append(f.Array, valueStr)
	return nil
}

func (f *StringArrayFlags) String() string {
	return strings.Join(f.Array, ",")
}
