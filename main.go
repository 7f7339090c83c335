package main

import (
	"github.com/AzielCF/az-engage/cmd"
)

func main() {
	cmd.Execute()
}
