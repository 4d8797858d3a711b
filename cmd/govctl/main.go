package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Version se fija con -ldflags al compilar.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	app := newCLIApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
