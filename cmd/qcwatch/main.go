// Command qcwatch extracts instrument telemetry from log files and merges it
// into the qcwatch store.
package main

import "github.com/mesh-intelligence/qcwatch/internal/cli"

func main() {
	cli.Execute()
}
