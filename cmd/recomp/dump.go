package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xenonrecomp/recomp/xex"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <input.xex>",
		Short: "Print an image's header, section table, and import symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := xex.OpenFile(args[0], &xex.Options{Logger: logger()})
			if err != nil {
				return fmt.Errorf("recomp dump: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "base address:  0x%08X\n", img.Base)
			fmt.Fprintf(out, "entry point:   0x%08X\n", img.EntryPoint)
			fmt.Fprintf(out, "image size:    0x%X bytes\n", len(img.Data))
			if img.Security.ExportTableAddress != 0 {
				fmt.Fprintf(out, "export table:  0x%08X\n", img.Security.ExportTableAddress)
			}
			if img.Security.PageDescriptorCount != 0 {
				fmt.Fprintf(out, "page descriptors: %d\n", img.Security.PageDescriptorCount)
			}

			fmt.Fprintln(out, "\nsections:")
			for _, s := range img.Sections.All() {
				kind := "data"
				if s.IsCode() {
					kind = "code"
				}
				fmt.Fprintf(out, "  %-12s 0x%08X  0x%-8X  %s\n", s.Name, s.Base, s.Size, kind)
			}

			fmt.Fprintln(out, "\nsymbols:")
			for _, sym := range img.Symbols.All() {
				fmt.Fprintf(out, "  0x%08X  %s\n", sym.Address, sym.Name)
			}
			return nil
		},
	}
	return cmd
}
