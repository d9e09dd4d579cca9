package main

import (
	"os"

	"github.com/ariel-frischer/modelverifier/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
