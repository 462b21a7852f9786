package main

import (
	"context"
	"fmt"
	"os"

	"github.com/smartscan/admingate/internal/adminctl"
)

func main() {
	if err := adminctl.Run(context.Background(), os.Args[1:], os.LookupEnv, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "adminctl:", err)
		os.Exit(1)
	}
}
