package main

import (
	"CutRoom/cmd"
)

func main() {
	cmd.Execute()
}
