package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adityaraj-09/insien-editor/backend"
	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the backend's ingestion status for the current folder.",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		handleStatusCommand(rootDependencies)
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry a failed ingestion for the current folder.",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		handleRetryCommand(rootDependencies)
	},
}

// resolveProject looks the current folder up on the backend.
func resolveProject(ctx context.Context, rootDependencies *RootDependencies) *backend.LocalProjectInfo {
	check, err := rootDependencies.Client.CheckProject(ctx, rootDependencies.Cwd, filepath.Base(rootDependencies.Cwd))
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}
	if !check.Exists {
		fmt.Println(lipgloss.Yellow.Render("This folder is not synced yet. Run 'insien sync' first."))
		return nil
	}
	return check.Project
}

func handleStatusCommand(rootDependencies *RootDependencies) {
	ctx := context.Background()

	project := resolveProject(ctx, rootDependencies)
	if project == nil {
		return
	}

	current, err := rootDependencies.Client.GetProjectStatus(ctx, project.ProjectID)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}

	lines := fmt.Sprintf("Project:  %s\nStatus:   %s\nFiles:    %d/%d\nChunks:   %d",
		current.FolderName, current.IngestionStatus, current.ProcessedFiles, current.TotalFiles, current.TotalChunks)
	if current.Error != "" {
		lines += fmt.Sprintf("\nError:    %s", current.Error)
	}
	fmt.Println(lipgloss.BoxStyle.Render(lines))
}

func handleRetryCommand(rootDependencies *RootDependencies) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	project := resolveProject(ctx, rootDependencies)
	if project == nil {
		return
	}
	if project.IngestionStatus != backend.StatusFailed {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Ingestion is %s; nothing to retry.", project.IngestionStatus)))
		return
	}

	registerSyncRenderers(rootDependencies)

	// Initialize wires the transport (and adopts the failed project, which
	// idles); RetryIngestion then resets it server-side and re-enters the
	// state machine from Checking.
	if err := rootDependencies.Orchestrator.Initialize(ctx, rootDependencies.Config.BackendURL, rootDependencies.Config.AuthToken); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return
	}
	if err := rootDependencies.Orchestrator.RetryIngestion(ctx, project.ProjectID); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Retry failed: %v", err)))
		return
	}
	rootDependencies.Stats.DisplayStats()
}
