package main

import (
	"github.com/bootstage/bootstage/cmd/bootstage/cmd"
)

func main() {
	cmd.Execute()
}
