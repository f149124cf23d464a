package main

import "github.com/d41928/shellherd/internal/cli"

func main() {
	cli.Execute()
}
