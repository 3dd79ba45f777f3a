package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/nikogura/sop-writer/cmd"
)

func main() {
	cmd.Execute()
}
