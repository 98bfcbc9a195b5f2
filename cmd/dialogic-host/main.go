// Command dialogic-host runs the compiler and VM behind a JSON-RPC-over-
// stdio protocol server, for editors and playtesting tools that want to
// compile projects and drive dialogue without embedding the Go runtime.
package main

import (
	"fmt"
	"os"

	"github.com/barun-bash/dialogic/internal/host"
)

func main() {
	transport := host.NewTransport(os.Stdin, os.Stdout)
	server := host.NewServer(transport)
	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "dialogic-host: %v\n", err)
		os.Exit(1)
	}
}
