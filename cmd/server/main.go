package main

import (
	"log"

	"github.com/jengzang/sitetrack-backend-go/internal/cli"
)

func main() {
	if err := cli.New().Execute(); err != nil {
		log.Fatalf("error during command execution: %v", err)
	}
}
