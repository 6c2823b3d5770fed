package main

import (
	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-shield/aead"
)

func newAlgorithmsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List registered encryption algorithms",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range aead.Names() {
				p, err := aead.Lookup(name)
				if err != nil {
					return err
				}
				cmd.Printf("%s\t%s\n", p.Name(), p.Description())
			}
			return nil
		},
	}
}
