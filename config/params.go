package config

import (
	"fmt"
	"math"
	"sort"

	"github.com/rustyeddy/ladder/errs"
)

// param addresses one tunable field. Exactly one of i and f is set.
type param struct {
	i func(c *Config) *int
	f func(c *Config) *float64
}

func (p param) get(c *Config) float64 {
	if p.i != nil {
		return float64(*p.i(c))
	}
	return *p.f(c)
}

func (p param) set(c *Config, v float64) error {
	if p.i == nil {
		*p.f(c) = v
		return nil
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v is not an integer", errs.ErrConfiguration, v)
	}
	*p.i(c) = int(v)
	return nil
}

var params = map[string]param{
	"sma_length":        {i: func(c *Config) *int { return &c.Strategy.SMALength }},
	"volume_sma_length": {i: func(c *Config) *int { return &c.Strategy.VolumeSMALength }},
	"volume_multiplier": {f: func(c *Config) *float64 { return &c.Strategy.VolumeMultiplier }},
	"adx_length":        {i: func(c *Config) *int { return &c.Strategy.ADXLength }},
	"adx_threshold":     {f: func(c *Config) *float64 { return &c.Strategy.ADXThreshold }},
	"atr_length":        {i: func(c *Config) *int { return &c.Strategy.ATRLength }},
	"rsi_length":        {i: func(c *Config) *int { return &c.Strategy.RSILength }},
	"rsi_entry_min":     {f: func(c *Config) *float64 { return &c.Strategy.RSIEntryMin }},
	"rsi_entry_max":     {f: func(c *Config) *float64 { return &c.Strategy.RSIEntryMax }},
	"rsi_exit":          {f: func(c *Config) *float64 { return &c.Strategy.RSIExit }},
	"risk_per_trade":    {f: func(c *Config) *float64 { return &c.Risk.RiskPerTrade }},
	"stop_multiplier":   {f: func(c *Config) *float64 { return &c.Risk.StopMultiplier }},
}

// ParamNames lists the names accepted by With, sorted.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for k := range params {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsParam reports whether name can be set with With.
func IsParam(name string) bool {
	_, ok := params[name]
	return ok
}

// With returns a validated copy of c with the named parameter set to v.
func (c Config) With(name string, v float64) (Config, error) {
	return c.WithParams([]string{name}, []float64{v})
}

// WithParams sets every names[i] to values[i] on a copy of c and validates
// the result once, so that related parameters can move together.
func (c Config) WithParams(names []string, values []float64) (Config, error) {
	if len(names) != len(values) {
		return c, fmt.Errorf("%w: %d names for %d values", errs.ErrConfiguration, len(names), len(values))
	}
	out := c.Clone()
	for i, name := range names {
		p, ok := params[name]
		if !ok {
			return c, fmt.Errorf("%w: unknown parameter %q", errs.ErrConfiguration, name)
		}
		if err := p.set(&out, values[i]); err != nil {
			return c, fmt.Errorf("%s: %w", name, err)
		}
	}
	if err := out.Validate(); err != nil {
		return c, err
	}
	return out, nil
}

// Param returns the current value of a named parameter.
func (c Config) Param(name string) (float64, error) {
	p, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown parameter %q", errs.ErrConfiguration, name)
	}
	return p.get(&c), nil
}
