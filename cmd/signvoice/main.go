package main

import (
	"os"

	"github.com/ayusman/signvoice/cmd/signvoice/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
