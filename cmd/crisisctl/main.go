// Command crisisctl scores, forecasts and stress tests indicator CSV exports
// without running the API server.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
