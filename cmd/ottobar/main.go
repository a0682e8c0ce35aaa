// Ottobar drives a self-service cocktail dispenser.
//
// Usage:
//
//	ottobar run [--headless]
//	ottobar request <Menu|Stats|Stock>
//	ottobar post <Menu|Stock> <file|->
//	ottobar stats
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
