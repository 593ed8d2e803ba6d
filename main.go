package main

import (
	"os"

	"github.com/dreamclass/examengine/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
