package main

import (
	"os"

	"github.com/skyqueue/skyqueue/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
