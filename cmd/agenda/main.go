package main

import "agenda/internal/cli"

func main() {
	cli.Execute()
}
