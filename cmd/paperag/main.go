package main

import (
	"github.com/custodia-labs/paperag/internal/adapters/driving/cli"
)

func main() {
	cli.Execute()
}
