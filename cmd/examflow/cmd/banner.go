package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X ...cmd.Version=...".
var Version = "dev"

const banner = `
  _____                     _____ _
 | ____|_  ____ _ _ __ ___ |  ___| | _____      __
 |  _| \ \/ / _` + "`" + ` | '_ ` + "`" + ` _ \| |_  | |/ _ \ \ /\ / /
 | |___ >  < (_| | | | | | |  _| | | (_) \ V  V /
 |_____/_/\_\__,_|_| |_| |_|_|   |_|\___/ \_/\_/
`

func printBanner(w io.Writer) {
	fmt.Fprintf(w, "\x1b[34m%s\x1b[0m\n", banner)
	fmt.Fprintf(w, "\x1b[32m  Exam scheduling client - Version %s\x1b[0m\n\n", Version)
}

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print the client version",
	Annotations: map[string]string{offlineAnnotation: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		printBanner(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
