package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-shield/obfuscate"
	"github.com/wippyai/wasm-shield/wasm"
)

func newObfuscateCommand(state *globalState) *cobra.Command {
	var (
		input  string
		output string
		level  string
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "obfuscate",
		Short: "Obfuscate a wasm file without encrypting it",
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := obfuscate.ParseLevel(level)
			if err != nil {
				return err
			}

			if err := state.pipeline.ObfuscateFile(input, output, lvl); err != nil {
				return err
			}

			if verify {
				data, err := afero.ReadFile(state.pipeline.FS, output)
				if err != nil {
					return err
				}
				if err := wasm.ValidateRuntime(cmd.Context(), data); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input wasm file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output obfuscated wasm file")
	cmd.Flags().StringVarP(&level, "level", "l", "low", "obfuscation level (low, medium or high)")
	cmd.Flags().BoolVar(&verify, "verify", false, "validate the output with a wasm runtime")

	markRequired(cmd, "input", "output")
	return cmd
}
