package main

import "province-forge/internal/cli"

func main() {
	cli.Execute()
}
