package main

import (
	"os"

	"reelpost/cmd"
)

func main() {
	if err := cmd.ExecuteTikTok(); err != nil {
		os.Exit(1)
	}
}
