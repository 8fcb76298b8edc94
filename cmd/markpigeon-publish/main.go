package main

import (
	"os"

	"github.com/markpigeon/publish/cmd/markpigeon-publish/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
