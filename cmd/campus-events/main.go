package main

import "github.com/pfrederiksen/campus-events/internal/cli"

func main() {
	cli.Execute()
}
