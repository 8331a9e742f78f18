package pattern_test

import (
	"fmt"

	"github.com/matzehuels/plushie/pkg/pattern"
)

func ExampleParse() {
	actions, err := pattern.Parse("mr(6)\n[sc, inc]*2 # grow\nfo")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(len(actions))
	fmt.Println(pattern.String(actions))
	// Output:
	// 6
	// mr(6) sc inc sc inc fo
}

func ExampleParse_error() {
	_, err := pattern.Parse("mr(6\nsc")
	fmt.Println(err)
	// Output:
	// pattern:2:1: expected ',' or ')', found "sc"
}

func ExampleNewFlow() {
	flow := pattern.NewFlow(pattern.MustParse("color(255, 255, 255) mr(4) 4*sc"))
	next, _ := flow.Peek()
	fmt.Println("first:", next)
	fmt.Println("remaining:", flow.Remaining())
	// Output:
	// first: color(255, 255, 255)
	// remaining: 6
}
