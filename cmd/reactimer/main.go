package main

import "github.com/mcoot/reactimer/internal/cli"

func main() {
	cli.Execute()
}
