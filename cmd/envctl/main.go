package main

import (
	"github.com/robotalks/envdash/pkg/cli/sh"
	"github.com/robotalks/envdash/pkg/remote"

	_ "github.com/robotalks/envdash/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func init() {
	remote.SetupFlags()
}

func main() {
	sh.Main()
}
