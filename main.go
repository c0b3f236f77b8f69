package main

import (
	"tidal-pipeline/internal/cli"
)

func main() {
	cli.Execute()
}
