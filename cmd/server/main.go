package main

import (
	"os"

	"github.com/iliyamo/recipe-share/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
