package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adityaraj-09/insien-editor/config"
	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
)

var resetCacheCmd = &cobra.Command{
	Use:   "resetcache",
	Short: "Clear the cached file contents and configuration.",
	Long: `Drops the in-memory file-content cache so the next sync re-reads every
file from disk, and clears the cached configuration so it is re-resolved on
the next command.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		handleResetCacheCommand(rootDependencies)
	},
}

func handleResetCacheCommand(rootDependencies *RootDependencies) {
	if rootDependencies.Cache != nil {
		hits, misses := rootDependencies.Cache.Stats()
		rootDependencies.Cache.Clear()
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Content cache cleared (%d hits, %d misses this session).", hits, misses)))
	} else {
		fmt.Println(lipgloss.Yellow.Render("Content caching is disabled; nothing to clear."))
	}

	config.ClearConfigCache()
	fmt.Println(lipgloss.Green.Render("✔️ Configuration cache cleared."))
}
