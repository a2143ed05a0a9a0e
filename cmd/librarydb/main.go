// Command librarydb administers a library store: it creates or resets the schema and lists cards and books.
//
// Configuration comes from flags or LIBRARY_* environment variables:
//
//	LIBRARY_DATABASE_URL=postgres://... librarydb migrate
//	librarydb books --category "Computer Science" --min-year 2000 --sort price --desc
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1) //nolint:gocritic
	}
}
