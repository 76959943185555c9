package main

import (
	"AriaFM/cmd"
)

func main() {
	cmd.Execute()
}
