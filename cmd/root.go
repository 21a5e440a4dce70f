package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adityaraj-09/insien-editor/backend"
	"github.com/adityaraj-09/insien-editor/chat"
	"github.com/adityaraj-09/insien-editor/code_analyzer"
	"github.com/adityaraj-09/insien-editor/config"
	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
	"github.com/adityaraj-09/insien-editor/ingestion"
	"github.com/adityaraj-09/insien-editor/workspace"
)

// RootDependencies carries everything a subcommand needs, assembled once per
// invocation.
type RootDependencies struct {
	Config       *config.Config
	Cwd          string
	Client       *backend.Client
	Workspace    *workspace.StaticWorkspace
	Orchestrator *ingestion.Orchestrator
	Gateway      *chat.Gateway
	Extractor    *code_analyzer.ContextExtractor
	Stats        *ingestion.StatsTracker
	Cache        *workspace.ContentCache
}

var rootCmd = &cobra.Command{
	Use:   "insien",
	Short: "Keep a local folder in sync with the insien backend and chat over it.",
	Long: `insien synchronizes the current folder with the insien ingestion service
using a Merkle-tree diff, so only changed files cross the wire, and exposes a
retrieval-augmented chat over the ingested code.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		os.Exit(1)
	}

	cfg := config.LoadConfigWithCache(rootCmd, cwd)

	ws := workspace.NewStaticWorkspace(cwd)
	orchestrator := ingestion.NewOrchestrator(ws, workspace.NewLocalFileService(), cfg.UserID)
	var cache *workspace.ContentCache
	if cfg.EnableCache {
		cache = workspace.NewContentCache()
		orchestrator.EnableContentCache(cache)
	}

	client := backend.NewClient(cfg.BackendURL, cfg.AuthToken)
	deps := &RootDependencies{
		Config:       cfg,
		Cwd:          cwd,
		Client:       client,
		Workspace:    ws,
		Orchestrator: orchestrator,
		Gateway:      chat.NewGateway(client, orchestrator),
		Extractor:    code_analyzer.NewContextExtractor(cwd),
		Stats:        ingestion.NewStatsTracker(),
		Cache:        cache,
	}

	deps.Orchestrator.OnIngestionProgress(deps.Stats.RecordProgress)
	deps.Orchestrator.OnIngestionComplete(deps.Stats.RecordComplete)
	deps.Orchestrator.OnIngestionError(deps.Stats.RecordError)

	return deps
}

// Execute runs the CLI.
func Execute() {
	config.InitFlags(rootCmd)

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(resetCacheCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}
