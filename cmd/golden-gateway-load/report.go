package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

func init() {
	// Honor pipes and redirects; colored output is a TTY nicety only.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// printReport writes the human-readable run summary.
func printReport(w io.Writer, opts Options, result Result) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(w, "\n%s %s%s (%d requests, %d workers)\n",
		bold("Target:"), opts.Target, opts.Route, opts.Requests, opts.Concurrency)
	if result.Elapsed > 0 {
		rps := float64(totalResponses(result)) / result.Elapsed.Seconds()
		fmt.Fprintf(w, "%s %v (%.1f req/s)\n", bold("Elapsed:"), result.Elapsed.Round(time.Millisecond), rps)
	}

	fmt.Fprintf(w, "\n%s\n", bold("Status codes"))
	codes := make([]int, 0, len(result.StatusCounts))
	for code := range result.StatusCounts {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		line := fmt.Sprintf("  %d: %d", code, result.StatusCounts[code])
		switch {
		case code < 400:
			fmt.Fprintln(w, green(line))
		case code < 500:
			fmt.Fprintln(w, yellow(line))
		default:
			fmt.Fprintln(w, red(line))
		}
	}
	if result.Errors > 0 {
		fmt.Fprintln(w, red(fmt.Sprintf("  transport errors: %d", result.Errors)))
	}

	fmt.Fprintf(w, "\n%s\n", bold("Latency"))
	for _, q := range []float64{50, 90, 99} {
		fmt.Fprintf(w, "  p%.0f: %s\n", q, formatMicros(result.Latencies.ValueAtQuantile(q)))
	}
	fmt.Fprintf(w, "  max: %s\n", formatMicros(result.Latencies.Max()))

	fmt.Fprintf(w, "\n%s accepted=%d", bold("Contract:"), result.AcceptedIDs)
	if opts.Validate {
		if result.SchemaFailures == 0 {
			fmt.Fprintf(w, ", schema failures: %s", green("0"))
		} else {
			fmt.Fprintf(w, ", schema failures: %s", red(fmt.Sprint(result.SchemaFailures)))
		}
	}
	fmt.Fprintln(w)
}

func totalResponses(result Result) int {
	total := 0
	for _, n := range result.StatusCounts {
		total += n
	}
	return total
}

func formatMicros(us int64) string {
	return (time.Duration(us) * time.Microsecond).Round(100 * time.Microsecond).String()
}
