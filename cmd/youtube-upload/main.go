package main

import (
	"os"

	"reelpost/cmd"
)

func main() {
	if err := cmd.ExecuteYouTube(); err != nil {
		os.Exit(1)
	}
}
