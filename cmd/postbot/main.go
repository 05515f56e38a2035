package main

import (
	"log"

	"postbot/core/cmd"
)

func main() {
	if err := cmd.Run(cmd.Options{DefaultConfigPath: "config.yaml"}); err != nil {
		log.Fatalf("postbot: %v", err)
	}
}
