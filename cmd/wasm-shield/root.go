package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	wasmshield "github.com/wippyai/wasm-shield"
	"github.com/wippyai/wasm-shield/aead"
	"github.com/wippyai/wasm-shield/obfuscate"
)

// globalState carries the dependencies every sub-command needs: the pipeline
// (filesystem plus logger) and the verbosity flag.
type globalState struct {
	pipeline *wasmshield.Pipeline
	verbose  bool
}

func newRootCommand() *cobra.Command {
	state := &globalState{
		pipeline: &wasmshield.Pipeline{FS: afero.NewOsFs(), Log: zap.NewNop()},
	}

	root := &cobra.Command{
		Use:           "wasm-shield",
		Short:         "Obfuscate and encrypt WebAssembly modules",
		Long:          "wasm-shield protects compiled WebAssembly modules by combining\nsemantics-preserving binary obfuscation with authenticated encryption.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if state.verbose {
				cfg := zap.NewDevelopmentConfig()
				log, err := cfg.Build()
				if err != nil {
					return err
				}
				state.pipeline.Log = log
				obfuscate.SetLogger(log)
			}
			// Plug-in discovery warns and continues; it never fails startup.
			_ = aead.DiscoverPlugins(state.pipeline.Log)
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(
		newEncryptCommand(state),
		newDecryptCommand(state),
		newObfuscateCommand(state),
		newAlgorithmsCommand(),
	)
	return root
}
