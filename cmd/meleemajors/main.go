package main

import "github.com/meleemajors/meleemajors/internal/cli"

func main() {
	cli.Execute()
}
