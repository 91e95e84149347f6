package main

import "github.com/blockberries/ledger/cmd/ledgerd/cmd"

func main() {
	cmd.Execute()
}
