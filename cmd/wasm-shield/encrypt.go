package main

import (
	"github.com/spf13/cobra"

	wasmshield "github.com/wippyai/wasm-shield"
	"github.com/wippyai/wasm-shield/errors"
	"github.com/wippyai/wasm-shield/keys"
	"github.com/wippyai/wasm-shield/obfuscate"
)

func newEncryptCommand(state *globalState) *cobra.Command {
	var (
		input       string
		output      string
		algorithm   string
		keyFile     string
		keyHex      string
		keyBase64   string
		generateKey string
		keyFormat   string
		level       string
	)

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a wasm file into a self-describing envelope",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := keys.Resolve(state.pipeline.FS, keys.Sources{
				Hex:    keyHex,
				Base64: keyBase64,
				File:   keyFile,
			})
			if err != nil {
				return err
			}

			format := keys.FormatBase64
			if keyFormat != "" {
				format, err = keys.ParseFormat(keyFormat)
				if err != nil {
					return err
				}
			}

			var lvl obfuscate.Level
			if level != "" {
				lvl, err = obfuscate.ParseLevel(level)
				if err != nil {
					return err
				}
			}

			return state.pipeline.EncryptFile(input, output, wasmshield.FileOptions{
				Options: wasmshield.Options{
					Key:       key,
					Algorithm: algorithm,
					Level:     lvl,
				},
				KeyOutputPath: generateKey,
				KeyFormat:     format,
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input wasm file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output encrypted file")
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "aes-gcm", "encryption algorithm (aes-gcm or chacha20poly1305)")
	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "key file path")
	cmd.Flags().StringVar(&keyHex, "key-hex", "", "key in hexadecimal")
	cmd.Flags().StringVar(&keyBase64, "key-base64", "", "key in Base64")
	cmd.Flags().StringVar(&generateKey, "generate-key", "", "write the generated key to this file")
	cmd.Flags().StringVar(&keyFormat, "key-format", "base64", "generated key format (hex, base64 or raw)")
	cmd.Flags().StringVarP(&level, "obfuscate", "b", "", "obfuscation level applied before encryption (low, medium or high)")

	markRequired(cmd, "input", "output")
	cmd.MarkFlagsMutuallyExclusive("key", "key-hex", "key-base64")
	return cmd
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(errors.InvalidInput(errors.PhaseCLI, "marking flag required: "+name))
		}
	}
}
