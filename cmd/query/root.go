package query

import (
	"github.com/ValentinKolb/bolthelper/cmd/util"
	"github.com/spf13/cobra"
)

// Commands returns the read-only commands. Each of them opens the store with a
// shared lock for exactly one read transaction.
func Commands(env *util.Env) []*cobra.Command {
	return []*cobra.Command{
		newMetaCmd(env),
		newLsbCmd(env),
		newLskCmd(env),
		newGetCmd(env),
		newSearchCmd(env),
		newExportCmd(env),
		newStatsCmd(env),
	}
}
