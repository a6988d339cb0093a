package main

import (
	"github.com/awnumar/memguard"

	"github.com/jmcleod/ironsign/cmd/ironsign/cmd"
)

func main() {
	memguard.CatchInterrupt()
	defer memguard.Purge()

	cmd.Execute()
}
