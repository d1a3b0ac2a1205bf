package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var opts = defaultOptions()

var rootCmd = &cobra.Command{
	Use:   "golden-gateway-load",
	Short: "Concurrent load generator for the golden-gateway simulator",
	Long: `golden-gateway-load drives traffic at a running golden-gateway instance so
its Prometheus metrics have something to show. It mixes healthy sends with
invalid requests and rate-limit sentinels, paces requests with a token
bucket, and reports HDR-histogram latency percentiles per status code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runner, err := newRunner(opts)
		if err != nil {
			return err
		}
		result, err := runner.run(cmd.Context())
		if err != nil {
			return err
		}
		printReport(os.Stdout, opts, result)
		return nil
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&opts.Target, "target", "t", opts.Target, "base URL of the gateway")
	flags.StringVar(&opts.Route, "route", opts.Route, "send route to exercise (/sms/send or /whatsapp/send-template)")
	flags.IntVarP(&opts.Requests, "requests", "n", opts.Requests, "total number of requests to send")
	flags.IntVarP(&opts.Concurrency, "concurrency", "c", opts.Concurrency, "number of concurrent workers")
	flags.Float64VarP(&opts.Rate, "rate", "r", opts.Rate, "request rate in req/s (0 = unpaced)")
	flags.StringSliceVar(&opts.Platforms, "platforms", opts.Platforms, "platform hints to rotate through")
	flags.StringSliceVar(&opts.Destinations, "destinations", opts.Destinations, "destination numbers to rotate through")
	flags.Float64Var(&opts.SentinelRatio, "sentinel-ratio", opts.SentinelRatio, "fraction of requests sent from the rate-limit sentinel sender")
	flags.Float64Var(&opts.InvalidRatio, "invalid-ratio", opts.InvalidRatio, "fraction of requests sent without required fields")
	flags.BoolVar(&opts.Validate, "validate", opts.Validate, "validate accepted responses against the gateway response schema")
	flags.Int64Var(&opts.Seed, "seed", opts.Seed, "random seed for the traffic mix (0 = time-based)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
