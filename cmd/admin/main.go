package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/mymee/internal/admin"
)

func main() {
	env, err := admin.DefaultEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := admin.NewRootCmd(env).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
