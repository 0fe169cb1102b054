package main

import (
	_ "embed"

	"github.com/magnusfroste/notton/cmd"
)

//go:embed config/config.yaml
var c string

func main() {
	cmd.Execute(c)
}
