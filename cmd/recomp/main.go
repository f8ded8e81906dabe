// Command recomp is the CLI front end for the translation pipeline: load a
// XEX2 image, discover its functions, and emit a host source translation;
// or apply/validate a XEX2 delta patch; or dump an image's header/section/
// import summary for inspection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xenonrecomp/recomp/internal/rlog"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:   "recomp",
		Short: "Static recompiler for Xbox 360 XEX2/PowerPC executables",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newTranslateCmd())
	root.AddCommand(newPatchCmd())
	root.AddCommand(newDumpCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger() rlog.Logger {
	if verbose {
		return rlog.NewTextLogger(os.Stderr)
	}
	return rlog.Discard
}
