// Package all registers every console command.
package all

import (
	_ "github.com/robotalks/envdash/pkg/cli/cmds/station"
)
