package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/adityaraj-09/insien-editor/backend"
	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
	"github.com/adityaraj-09/insien-editor/ingestion"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the current folder with the insien backend.",
	Long: `Checks whether the backend already knows this folder. New folders are
uploaded in full; known folders get a Merkle diff so only changed files are
sent. Progress is reported as the server processes batches.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		handleSyncCommand(rootDependencies)
	},
}

func handleSyncCommand(rootDependencies *RootDependencies) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registerSyncRenderers(rootDependencies)

	spinner, _ := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithRemoveWhenDone(true).
		Start("Checking project...")

	err := rootDependencies.Orchestrator.Initialize(ctx, rootDependencies.Config.BackendURL, rootDependencies.Config.AuthToken)
	spinner.Stop()

	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Sync failed: %v", err)))
	}
	rootDependencies.Stats.DisplayStats()
}

// registerSyncRenderers subscribes the terminal progress rendering to the
// orchestrator's events. Shared by sync and retry.
func registerSyncRenderers(rootDependencies *RootDependencies) {
	var progressBar *pterm.ProgressbarPrinter

	rootDependencies.Orchestrator.OnProjectChanged(func(project *backend.LocalProjectInfo) {
		if project == nil {
			fmt.Println(lipgloss.Yellow.Render("No workspace folder open."))
			return
		}
		fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("Project %s (%s) - status: %s",
			project.FolderName, shortHash(project.LocalHash), project.IngestionStatus)))
	})

	rootDependencies.Orchestrator.OnIngestionProgress(func(event ingestion.ProgressEvent) {
		if progressBar == nil && event.Progress.Total > 0 {
			progressBar, _ = pterm.DefaultProgressbar.
				WithTotal(event.Progress.Total).
				WithTitle("Ingesting").
				Start()
		}
		if progressBar != nil {
			progressBar.Current = event.Progress.Processed
			progressBar.UpdateTitle(fmt.Sprintf("Ingesting (%d chunks)", event.Progress.Chunks))
		}
	})

	rootDependencies.Orchestrator.OnIngestionComplete(func(event ingestion.CompleteEvent) {
		if progressBar != nil {
			progressBar.Current = progressBar.Total
			_, _ = progressBar.Stop()
			progressBar = nil
		}
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔️ Sync complete: %d files, %d chunks", event.TotalFiles, event.TotalChunks)))
	})

	rootDependencies.Orchestrator.OnIngestionError(func(event ingestion.ErrorEvent) {
		if progressBar != nil {
			_, _ = progressBar.Stop()
			progressBar = nil
		}
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("❌ %v", event.Err)))
	})
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
