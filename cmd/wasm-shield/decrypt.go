package main

import (
	"github.com/spf13/cobra"
)

func newDecryptCommand(state *globalState) *cobra.Command {
	var (
		input   string
		output  string
		keyFile string
	)

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt an envelope back to a (still obfuscated) wasm file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return state.pipeline.DecryptFile(input, output, keyFile)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input encrypted file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output wasm file")
	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "key file path")

	markRequired(cmd, "input", "output", "key")
	return cmd
}
