package main

import "leadflow/internal/cli"

func main() {
	cli.Execute()
}
