// Command anomaly computes precipitation z-score anomalies from HadUKP daily
// regional series and writes them as CSV or JSON.
//
// Usage:
//
//	anomaly compute --regions scotland,"england & wales" --years 2021-2024 \
//	  --baseline 1981-2010 --window 30 --format csv
//	anomaly compute --data-dir ./data/hadukp --format json --series
//	anomaly regions
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
