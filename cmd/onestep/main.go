package main

import "github.com/PabloGalante/onestep/internal/cli"

func main() {
	cli.Execute()
}
