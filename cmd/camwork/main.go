package main

import (
	"fmt"
	"os"

	"github.com/ivlev/camwork/internal/cli"
	"github.com/ivlev/camwork/internal/config"
)

func main() {
	rt, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "[-] Configuration error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}

	if err := cli.NewRootCommand(rt).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
