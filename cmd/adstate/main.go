package main

import "github.com/adstate-project/adstate/internal/cli"

func main() {
	cli.Execute()
}
