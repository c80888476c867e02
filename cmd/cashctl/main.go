package main

import (
	"os"

	"github.com/Shin-zuo/LL-AccountingSystem-sub000/cmd/cashctl/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
