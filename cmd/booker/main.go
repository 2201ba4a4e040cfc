// Command booker runs the campsite allocation batch and its maintenance
// tasks from the command line.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
