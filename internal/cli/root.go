package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command: codegraph indexes a repository tree and
// serves search_codebase / get_file_context / find_symbol_definition and
// the rest of spec.md's tools over an MCP stdio transport.
var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "codegraph - semantic code search and retrieval over MCP",
	Long: `codegraph indexes a repository's files, chunks, symbols, and API
endpoints into a local vector store, then serves that index to coding
assistants over the Model Context Protocol.`,
}

// Execute adds all child commands to rootCmd and runs it. Called once by
// cmd/codegraph's main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .codegraph.yaml in the repo root)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig exists only to preserve the root command's
// cobra.OnInitialize hook point; actual config loading happens per command
// via internal/config.Loader against the repo path each command is given,
// since codegraph operates on an explicit target directory rather than a
// single global config.
func initConfig() {}
