package main

import (
	"fmt"
	"os"

	// festival zones must resolve on hosts without a zoneinfo database
	_ "time/tzdata"

	"github.com/klabast/wb-services/lineup-planner/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
