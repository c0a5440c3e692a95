package main

import "github.com/panda19/prisonscore/internal/cli"

func main() {
	cli.Execute()
}
