package cli

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	// Version, GitCommit, and BuildDate are normally set via ldflags at
	// build time (-X github.com/codegraph-dev/codegraph/internal/cli.Version=...).
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

func getVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func getGitCommit() string {
	if GitCommit != "none" {
		return GitCommit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}
	}
	return "none"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the codegraph version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("codegraph %s\n", getVersion())
		fmt.Printf("git commit: %s\n", getGitCommit())
		fmt.Printf("build date: %s\n", BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
