package main

import (
	"os"

	checkctlcmd "github.com/mozalert/check-operator/pkg/checkctl/cmd"
)

func main() {
	root := checkctlcmd.NewRootCommand(checkctlcmd.DefaultConfig())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
