package main

import "github.com/forPelevin/manimgen/internal/cli"

func main() {
	cli.Main()
}
