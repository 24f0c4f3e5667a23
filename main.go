package main

import "hunteros-backend/internal/cli"

func main() {
	cli.Execute()
}
