package main

import "chatpilot/internal/cli"

func main() {
	cli.Execute()
}
