// Command fixturegen writes a seeded item fixture, for use with
// TEST_API_FIXTURE_PATH.
//
//	go run ./cmd/fixturegen --count 100 --seed 42 --out testdata/items.json
//
// The bundled fixture/data/items.json is a curated baseline that this command
// does not produce. An existing output file is only replaced with --force.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
