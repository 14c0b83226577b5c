package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/skyguard/ccuas-sim/cmd/ccuas-sim/cmd"
)

func main() {
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
