package main

import (
	"context"
	"os"

	"github.com/curatai/curatai/internal/cli"
	"github.com/curatai/curatai/internal/common/logtrace"
)

func init() {
	logtrace.InitLogger("warn", true)
}

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
