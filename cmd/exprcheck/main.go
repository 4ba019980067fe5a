package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/syntrixbase/exprcheck/internal/cli"
)

func main() {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err != nil && !errors.Is(err, cli.ErrInvalid) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.ExitCode(err))
}
