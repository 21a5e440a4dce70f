package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, inspect, or delete chat sessions of the current project.",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the project's chat sessions.",
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		ctx := context.Background()

		project := resolveProject(ctx, rootDependencies)
		if project == nil {
			return
		}

		sessions := rootDependencies.Gateway.GetSessions(ctx, project.ProjectID)
		if len(sessions) == 0 {
			fmt.Println(lipgloss.Yellow.Render("No chat sessions yet."))
			return
		}
		for _, session := range sessions {
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("%s  %-40s %d messages",
				session.SessionID, session.Title, session.MessageCount)))
		}
	},
}

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print a session's messages.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)

		messages := rootDependencies.Gateway.GetSessionHistory(context.Background(), args[0])
		if len(messages) == 0 {
			fmt.Println(lipgloss.Yellow.Render("No messages in this session."))
			return
		}
		for _, message := range messages {
			role := strings.ToUpper(message.Role)
			fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("[%s]", role)))
			fmt.Println(message.Content)
			fmt.Println()
		}
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a chat session.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)

		if rootDependencies.Gateway.DeleteSession(context.Background(), args[0]) {
			fmt.Println(lipgloss.Green.Render("Session deleted."))
		} else {
			fmt.Println(lipgloss.Red.Render("Could not delete session."))
		}
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsHistoryCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}
