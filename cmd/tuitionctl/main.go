// Command tuitionctl is the operator tool of the tuition dashboard: route
// segment lookups, student number bands, the week calendar and local
// database housekeeping.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
