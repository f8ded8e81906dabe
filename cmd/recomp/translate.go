package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xenonrecomp/recomp/funcs"
	"github.com/xenonrecomp/recomp/recompile"
	"github.com/xenonrecomp/recomp/switchtbl"
	"github.com/xenonrecomp/recomp/xex"
)

func newTranslateCmd() *cobra.Command {
	var (
		pdataSection string
		switchFile   string
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "translate <input.xex>",
		Short: "Translate a XEX2/PowerPC image into host source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := xex.OpenFile(args[0], &xex.Options{Logger: logger()})
			if err != nil {
				return fmt.Errorf("recomp translate: %w", err)
			}

			var switches switchtbl.Table
			if switchFile != "" {
				switches, err = switchtbl.Load(switchFile)
				if err != nil {
					return fmt.Errorf("recomp translate: %w", err)
				}
			}

			var pdata []byte
			if section, ok := img.Sections.ByName(pdataSection); ok {
				pdata = section.Data
			}

			fns := funcs.Discover(img.Sections, img.Symbols, pdata, nil, nil)

			result, err := recompile.Run(fns, img.Sections, img.Symbols, switches, recompile.NewDecoder())
			if err != nil {
				return fmt.Errorf("recomp translate: %w", err)
			}

			if outPath == "" {
				_, err = os.Stdout.Write(result.Source)
				return err
			}
			return os.WriteFile(outPath, result.Source, 0o644)
		},
	}

	cmd.Flags().StringVar(&pdataSection, "pdata-section", ".pdata", "name of the exception-directory section")
	cmd.Flags().StringVar(&switchFile, "switch-table", "", "path to a switch-table manifest (TOML)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default: stdout)")
	return cmd
}
