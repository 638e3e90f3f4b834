package conv_test

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/effectrack/dsp/conv"
)

func ExampleDirect() {
	y, err := conv.Direct([]float64{1, 2, 3}, []float64{0, 1})
	if err != nil {
		panic(err)
	}

	fmt.Println(y)

	// Output:
	// [0 1 2 3]
}

func ExamplePartitioned() {
	c, err := conv.NewPartitioned([]float64{0, 0.5}, 4)
	if err != nil {
		panic(err)
	}

	out := make([]float64, 4)
	if err := c.ProcessBlock(out, []float64{1, 0, 0, 2}); err != nil {
		panic(err)
	}

	parts := make([]string, len(out))
	for i, v := range out {
		parts[i] = fmt.Sprintf("%.2f", math.Abs(v))
	}
	fmt.Println(strings.Join(parts, " "))

	// Output:
	// 0.00 0.50 0.00 0.00
}
