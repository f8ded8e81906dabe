package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xenonrecomp/recomp/xexpatch"
)

func newPatchCmd() *cobra.Command {
	var (
		outPath  string
		validate bool
	)

	cmd := &cobra.Command{
		Use:   "patch <base.xex> <delta.xex>",
		Short: "Apply (or validate) a XEX2 delta patch against a base image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("recomp patch: %w", err)
			}
			delta, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("recomp patch: %w", err)
			}

			if validate {
				if err := xexpatch.Validate(base, delta); err != nil {
					return fmt.Errorf("recomp patch: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "patch is compatible")
				return nil
			}

			patched, err := xexpatch.Apply(base, delta)
			if err != nil {
				return fmt.Errorf("recomp patch: %w", err)
			}
			if outPath == "" {
				outPath = args[0] + ".patched"
			}
			return os.WriteFile(outPath, patched, 0o644)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "patched output file (default: <base>.patched)")
	cmd.Flags().BoolVar(&validate, "validate", false, "only check patch compatibility, don't apply")
	return cmd
}
