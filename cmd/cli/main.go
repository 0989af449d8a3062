package main

import (
	"context"

	"github.com/pdv-analysis/cmd/cli/cmd"
	"github.com/pdv-analysis/pkg/telemetry"
)

func main() {
	ctx := context.Background()

	// Tracing is driven entirely by OTEL_* environment variables and is a
	// no-op when OTEL_ENABLED is unset.
	shutdown, err := telemetry.Init(ctx)
	if err == nil {
		defer shutdown(ctx)
	}

	cmd.Execute()
}
