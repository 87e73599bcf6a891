package main

import "lenderhub/internal/cli"

func main() {
	cli.Execute()
}
