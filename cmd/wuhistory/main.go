// Command wuhistory fetches or normalizes Weather Underground station
// history from the command line.
//
// Usage:
//
//	wuhistory fetch IMADRI123 2024-05-01
//	wuhistory fetch IMADRI123 2024-05-01 --output json
//	wuhistory normalize saved_response.json
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
