package main

import (
	"github.com/procrun/procrun/internal/cli"
	"github.com/procrun/procrun/internal/metrics"
)

func main() {
	metrics.EmitBuildInfo()
	cli.Execute()
}
