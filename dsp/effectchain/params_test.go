package effectchain

import (
	"math"
	"testing"
)

func TestParamsNumericKnobs(t *testing.T) {
	t.Parallel()

	knobs := Params{Num: map[string]float64{
		"depth":     0.25,
		"feedback":  0,
		"offset":    -1.5,
		"rate":      math.NaN(),
		"frequency": math.Inf(1),
		"time":      math.Inf(-1),
	}}

	tests := []struct {
		key    string
		want   float64
		wantOK bool
	}{
		{key: "depth", want: 0.25, wantOK: true},
		{key: "feedback", want: 0, wantOK: true},
		{key: "offset", want: -1.5, wantOK: true},
		{key: "rate"},
		{key: "frequency"},
		{key: "time"},
		{key: "mix"},
	}

	const fallback = 0.75

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			got, ok := knobs.LookupNum(tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("LookupNum(%q) = %v, %v, want %v, %v", tt.key, got, ok, tt.want, tt.wantOK)
			}

			want := fallback
			if tt.wantOK {
				want = tt.want
			}

			if got := knobs.GetNum(tt.key, fallback); got != want {
				t.Fatalf("GetNum(%q) = %v, want %v", tt.key, got, want)
			}
		})
	}

	var empty Params
	if _, ok := empty.LookupNum("depth"); ok || empty.GetNum("depth", fallback) != fallback {
		t.Fatal("empty Params reported a knob")
	}
}

func TestParamsMerge(t *testing.T) {
	t.Parallel()

	base := Params{Num: map[string]float64{"time": 0.5, "mix": 0.5}, Str: map[string]string{"wave": "sine"}}
	over := Params{Num: map[string]float64{"mix": 0.2}, Str: map[string]string{"wave": "square"}}

	got := base.Merge(over)

	if got.GetNum("time", -1) != 0.5 || got.GetNum("mix", -1) != 0.2 {
		t.Fatalf("Merge() Num = %v", got.Num)
	}

	if got.GetStr("wave", "") != "square" {
		t.Fatalf("Merge() Str = %v", got.Str)
	}

	if base.Num["mix"] != 0.5 || base.Str["wave"] != "sine" {
		t.Fatal("Merge() modified its receiver")
	}

	empty := Params{}.Merge(over)
	if empty.GetNum("mix", -1) != 0.2 {
		t.Fatalf("Merge() into empty = %v", empty.Num)
	}
}

func TestParseNodeParams(t *testing.T) {
	t.Parallel()

	p := parseNodeParams(map[string]any{"mix": 0.25, "on": true, "wave": "square", "skip": []any{1}})

	if p.GetNum("mix", -1) != 0.25 || p.GetNum("on", -1) != 1 {
		t.Fatalf("Num = %v", p.Num)
	}

	if p.GetStr("wave", "") != "square" {
		t.Fatalf("Str = %v", p.Str)
	}

	if _, ok := p.LookupNum("skip"); ok {
		t.Fatal("unsupported value was kept")
	}

	if got := parseNodeParams(nil); len(got.Num) != 0 || len(got.Str) != 0 {
		t.Fatalf("parseNodeParams(nil) = %v", got)
	}
}
