package effectchain

import (
	"maps"
	"math"
)

// Params holds the knob values of a single rack slot.
type Params struct {
	Num map[string]float64
	Str map[string]string
}

// GetNum returns the numeric knob key, or def when it is missing or not finite.
func (p Params) GetNum(key string, def float64) float64 {
	if v, ok := p.LookupNum(key); ok {
		return v
	}

	return def
}

// LookupNum returns a numeric parameter and whether it is set and finite.
func (p Params) LookupNum(key string) (float64, bool) {
	v, ok := p.Num[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}

	return v, true
}

// GetStr extracts a string parameter, returning def if missing.
func (p Params) GetStr(key, def string) string {
	if v, ok := p.Str[key]; ok {
		return v
	}

	return def
}

// Merge returns a copy of p with every value of other applied on top.
// Neither input is modified.
func (p Params) Merge(other Params) Params {
	out := p.Clone()

	if len(other.Num) > 0 && out.Num == nil {
		out.Num = make(map[string]float64, len(other.Num))
	}
	maps.Copy(out.Num, other.Num)

	if len(other.Str) > 0 && out.Str == nil {
		out.Str = make(map[string]string, len(other.Str))
	}
	maps.Copy(out.Str, other.Str)

	return out
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	return Params{Num: maps.Clone(p.Num), Str: maps.Clone(p.Str)}
}

// parseNodeParams extracts numeric and string parameters from a raw JSON params value.
func parseNodeParams(raw any) Params {
	num := map[string]float64{}
	str := map[string]string{}

	params, ok := raw.(map[string]any)
	if !ok || params == nil {
		return Params{Num: num, Str: str}
	}

	for k, v := range params {
		switch t := v.(type) {
		case float64:
			num[k] = t
		case float32:
			num[k] = float64(t)
		case int:
			num[k] = float64(t)
		case int64:
			num[k] = float64(t)
		case string:
			str[k] = t
		case bool:
			if t {
				num[k] = 1
			} else {
				num[k] = 0
			}
		}
	}

	return Params{Num: num, Str: str}
}
