package main

import (
	"os"

	"gitea.kood.tech/petrkubec/roomies/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
