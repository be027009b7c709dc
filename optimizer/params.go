package optimizer

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/rustyeddy/ladder/config"
	"github.com/rustyeddy/ladder/errs"
)

// Param is one named parameter value.
type Param struct {
	Name  string
	Value float64
}

// ParamSet is an immutable set of parameter values sorted by name.
type ParamSet struct {
	params []Param
}

// NewParamSet builds a set from a name to value map.
func NewParamSet(values map[string]float64) ParamSet {
	ps := make([]Param, 0, len(values))
	for k, v := range values {
		ps = append(ps, Param{Name: k, Value: v})
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return ParamSet{params: ps}
}

// Len returns the number of parameters.
func (p ParamSet) Len() int { return len(p.params) }

// Params returns a copy of the parameters in name order.
func (p ParamSet) Params() []Param { return slices.Clone(p.params) }

// Names returns the parameter names in order.
func (p ParamSet) Names() []string {
	out := make([]string, len(p.params))
	for i, x := range p.params {
		out[i] = x.Name
	}
	return out
}

// Values returns the parameter values in name order.
func (p ParamSet) Values() []float64 {
	out := make([]float64, len(p.params))
	for i, x := range p.params {
		out[i] = x.Value
	}
	return out
}

// Get returns the value of name.
func (p ParamSet) Get(name string) (float64, bool) {
	for _, x := range p.params {
		if x.Name == name {
			return x.Value, true
		}
	}
	return 0, false
}

// Apply returns base with every parameter of p set.
func (p ParamSet) Apply(base config.Config) (config.Config, error) {
	return base.WithParams(p.Names(), p.Values())
}

// Compare orders sets lexicographically by (name, value) pairs.
func (p ParamSet) Compare(o ParamSet) int {
	n := min(len(p.params), len(o.params))
	for i := 0; i < n; i++ {
		a, b := p.params[i], o.params[i]
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
	}
	switch {
	case len(p.params) < len(o.params):
		return -1
	case len(p.params) > len(o.params):
		return 1
	}
	return 0
}

// String renders the set as name=value pairs, e.g. "adx_threshold=20 sma_length=50".
func (p ParamSet) String() string {
	parts := make([]string, len(p.params))
	for i, x := range p.params {
		parts[i] = x.Name + "=" + strconv.FormatFloat(x.Value, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// Grid maps parameter names to the values to try.
type Grid map[string][]float64

// Validate rejects unknown names, empty ranges and non-finite values.
func (g Grid) Validate() error {
	if len(g) == 0 {
		return fmt.Errorf("%w: empty parameter grid", errs.ErrConfiguration)
	}
	for name, vs := range g {
		if !config.IsParam(name) {
			return fmt.Errorf("%w: unknown grid parameter %q (known: %s)",
				errs.ErrConfiguration, name, strings.Join(config.ParamNames(), ", "))
		}
		if len(vs) == 0 {
			return fmt.Errorf("%w: grid parameter %q has no values", errs.ErrConfiguration, name)
		}
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: grid parameter %q has non-finite value", errs.ErrConfiguration, name)
			}
		}
	}
	return nil
}

func (g Grid) axes() ([]string, [][]float64) {
	names := make([]string, 0, len(g))
	for k := range g {
		names = append(names, k)
	}
	sort.Strings(names)

	values := make([][]float64, len(names))
	for i, n := range names {
		vs := slices.Clone(g[n])
		slices.Sort(vs)
		values[i] = slices.Compact(vs)
	}
	return names, values
}

// Size is the number of combinations.
func (g Grid) Size() int {
	if len(g) == 0 {
		return 0
	}
	_, values := g.axes()
	n := 1
	for _, vs := range values {
		n *= len(vs)
	}
	return n
}

// Combinations enumerates the Cartesian product in ParamSet order. Duplicate
// values are tried once.
func (g Grid) Combinations() []ParamSet {
	if len(g) == 0 {
		return nil
	}
	names, values := g.axes()
	out := make([]ParamSet, 0, g.Size())

	idx := make([]int, len(names))
	for {
		ps := make([]Param, len(names))
		for i, n := range names {
			ps[i] = Param{Name: n, Value: values[i][idx[i]]}
		}
		out = append(out, ParamSet{params: ps})

		// odometer, last name turns fastest
		k := len(idx) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < len(values[k]) {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			return out
		}
	}
}
