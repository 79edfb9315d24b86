// Command wininfo prints the properties of the analysis windows used by
// the THD measurement.
//
// Usage:
//
//	wininfo [flags] [window-name ...]
//
// Without arguments it prints all windows.
//
// Examples:
//
//	wininfo hann
//	wininfo -size 8192 -periodic blackman flat-top
//	wininfo -list
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-comp/dsp/window"
)

var registry = []struct {
	name string
	typ  window.Type
}{
	{"rectangular", window.TypeRectangular},
	{"hann", window.TypeHann},
	{"hamming", window.TypeHamming},
	{"blackman", window.TypeBlackman},
	{"blackman-harris", window.TypeBlackmanHarris4Term},
	{"flat-top", window.TypeFlatTop},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("wininfo", flag.ContinueOnError)
	fs.SetOutput(stderr)

	size := fs.Int("size", 4096, "window length in samples")
	list := fs.Bool("list", false, "list available window names")
	periodic := fs.Bool("periodic", false, "use periodic (FFT) form instead of symmetric")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: wininfo [flags] [window-name ...]\n\n")
		fmt.Fprintf(stderr, "Prints properties of the analysis windows.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *list {
		for _, e := range registry {
			fmt.Fprintln(stdout, e.name)
		}
		return 0
	}

	if *size <= 0 {
		fmt.Fprintf(stderr, "error: size must be positive: %d\n", *size)
		return 1
	}

	types, ok := resolve(fs.Args(), stderr)
	if !ok {
		fmt.Fprintf(stderr, "error: no matching window types\n")
		return 1
	}

	var opts []window.Option
	if *periodic {
		opts = append(opts, window.WithPeriodic())
	}

	if err := printTable(stdout, types, *size, opts); err != nil {
		fmt.Fprintf(stderr, "error: failed to write output: %v\n", err)
		return 1
	}

	return 0
}

func resolve(names []string, stderr io.Writer) ([]window.Type, bool) {
	if len(names) == 0 {
		types := make([]window.Type, len(registry))
		for i, e := range registry {
			types[i] = e.typ
		}
		return types, true
	}

	var types []window.Type
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		found := false
		for _, e := range registry {
			if e.name == name {
				types = append(types, e.typ)
				found = true
				break
			}
		}
		if !found {
			fmt.Fprintf(stderr, "warning: unknown window %q (use -list to see available)\n", name)
		}
	}

	return types, len(types) > 0
}

func printTable(w io.Writer, types []window.Type, size int, opts []window.Option) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Window\tSize\tCoherent Gain\tENBW [bins]\t1st Min [bins]\n")
	fmt.Fprintf(tw, "------\t----\t-------------\t-----------\t--------------\n")

	for _, typ := range types {
		coeffs := window.Generate(typ, size, opts...)

		sum := 0.0
		for _, c := range coeffs {
			sum += c
		}

		enbw, err := window.EquivalentNoiseBandwidth(coeffs)
		if err != nil {
			return fmt.Errorf("%s: %w", typ, err)
		}

		fmt.Fprintf(tw, "%s\t%d\t%.6f\t%.4f\t%d\n",
			typ, size, sum/float64(len(coeffs)), enbw, window.Info(typ).FirstMinimumBins)
	}

	return tw.Flush()
}
