package main

import (
	"fmt"
	"os"
	"rbftrack/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Printf("rbftrack run into an error: %s", err)
		os.Exit(1)
	}
}
