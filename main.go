package main

import "github.com/example/lexigo/internal/cli"

func main() {
	cli.Execute()
}
