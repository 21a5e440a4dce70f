package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/adityaraj-09/insien-editor/backend"
	"github.com/adityaraj-09/insien-editor/chat"
	"github.com/adityaraj-09/insien-editor/constants/lipgloss"
	"github.com/adityaraj-09/insien-editor/utils"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat about the synced folder with streamed, context-aware replies.",
	Long: `Opens an interactive session against the ingested project. Replies stream
in as they are generated; server-proposed edits are offered one by one for
confirmation before they touch the working tree.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		handleChatCommand(rootDependencies)
	},
}

func handleChatCommand(rootDependencies *RootDependencies) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reader := bufio.NewReader(os.Stdin)

	fmt.Println(lipgloss.BoxStyle.Render("/help  Help for chat subcommands"))

	spinner, _ := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
		WithRemoveWhenDone(true).
		Start("Syncing project...")

	if err := rootDependencies.Orchestrator.Initialize(ctx, rootDependencies.Config.BackendURL, rootDependencies.Config.AuthToken); err != nil {
		spinner.Stop()
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
	} else {
		spinner.Stop()
	}

	if !rootDependencies.Gateway.IsAvailable() {
		fmt.Println(lipgloss.Yellow.Render("Chat is unavailable until ingestion completes. Run 'insien sync' or retry later."))
	}

	var sessionID string
	var contextFiles []string

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		userInput, err := utils.InputPromptWithContext(ctx, reader)
		if err != nil {
			if err == context.Canceled || err == io.EOF {
				fmt.Println(lipgloss.Yellow.Render("\n🔄 Exiting..."))
				return
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}
		if userInput == "" {
			continue
		}

		handled, exit, newContext := findChatSubCommand(userInput, rootDependencies, &sessionID)
		if exit {
			return
		}
		if newContext != nil {
			contextFiles = newContext
		}
		if handled {
			continue
		}

		message := userInput
		if len(contextFiles) > 0 && rootDependencies.Config.Summarize {
			// Declaration summaries ride along in the message body; the raw
			// paths still go in contextFiles for server-side retrieval.
			if block := rootDependencies.Extractor.BuildContextBlock(contextFiles, true); block != "" {
				message = fmt.Sprintf("## Here is attached file context\n\n%s\n\n______\n\n%s", block, userInput)
			}
		}

		request := &backend.ChatRequest{
			SessionID:    sessionID,
			Message:      message,
			Model:        rootDependencies.Config.Model,
			ContextFiles: contextFiles,
		}

		edits := streamReply(ctx, rootDependencies, request, &sessionID)
		applyEdits(rootDependencies, reader, edits)
	}
}

// streamReply runs one streamed exchange and returns any proposed edits.
func streamReply(ctx context.Context, rootDependencies *RootDependencies, request *backend.ChatRequest, sessionID *string) []backend.Edit {
	aiSpinner, _ := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithRemoveWhenDone(true).
		Start("Thinking...")

	var edits []backend.Edit
	firstContent := true

	for event := range rootDependencies.Gateway.SendMessageStream(ctx, request) {
		switch event.Type {
		case chat.StreamStart:
			if event.SessionID != "" {
				*sessionID = event.SessionID
			}

		case chat.StreamResponse:
			if firstContent {
				aiSpinner.Stop()
				fmt.Println()
				firstContent = false
			}
			language := utils.DetectLanguageFromCodeBlock(event.Content)
			if err := utils.RenderMarkdown(ctx, event.Content, language, rootDependencies.Config.Theme); err != nil {
				if err == context.Canceled {
					return edits
				}
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			}

		case chat.StreamComplete:
			aiSpinner.Stop()
			if event.SessionID != "" {
				*sessionID = event.SessionID
			}
			edits = append(edits, event.Edits...)

		case chat.StreamError:
			aiSpinner.Stop()
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("❌ %s", event.Error)))
		}
	}
	aiSpinner.Stop()
	return edits
}

// applyEdits offers each proposed edit for confirmation and applies accepted
// ones to the working tree.
func applyEdits(rootDependencies *RootDependencies, reader *bufio.Reader, edits []backend.Edit) {
	for _, edit := range edits {
		accepted, err := utils.ConfirmPrompt(edit.FilePath, reader)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error getting confirmation: %v", err)))
			continue
		}
		if !accepted {
			fmt.Println(lipgloss.Red.Render("❌ Change rejected."))
			continue
		}
		if err := utils.ApplyEdit(rootDependencies.Cwd, edit); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error applying change: %v", err)))
			continue
		}
		fmt.Println(lipgloss.Green.Render("✔️ Change applied."))
	}
}

// findChatSubCommand handles the slash commands of the chat loop. It returns
// whether the input was handled, whether to exit, and an optional new context
// file list.
func findChatSubCommand(command string, rootDependencies *RootDependencies, sessionID *string) (bool, bool, []string) {
	fields := strings.Fields(command)

	switch fields[0] {
	case "/help":
		fmt.Println(lipgloss.BoxStyle.Render(strings.Join([]string{
			"/help               Show this help",
			"/context <files..>  Attach files as chat context",
			"/context clear      Drop attached context",
			"/session            Show the current session id",
			"/clear-session      Start a fresh session",
			"/models             List available chat models",
			"/exit               Leave the chat",
		}, "\n")))
		return true, false, nil

	case "/context":
		if len(fields) == 1 || (len(fields) == 2 && fields[1] == "clear") {
			fmt.Println(lipgloss.Yellow.Render("Context cleared."))
			return true, false, []string{}
		}
		files := fields[1:]
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("Attached %d context file(s).", len(files))))
		return true, false, files

	case "/session":
		if *sessionID == "" {
			fmt.Println(lipgloss.Yellow.Render("No session yet; send a message first."))
		} else {
			fmt.Println(lipgloss.BlueSky.Render(*sessionID))
		}
		return true, false, nil

	case "/clear-session":
		*sessionID = ""
		fmt.Println(lipgloss.Yellow.Render("Session cleared."))
		return true, false, nil

	case "/models":
		for _, model := range rootDependencies.Gateway.Models().Models(context.Background()) {
			marker := "  "
			if model.IsDefault {
				marker = "* "
			}
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("%s%s (%s)", marker, model.ID, model.Vendor)))
		}
		return true, false, nil

	case "/exit":
		return true, true, nil
	}

	return false, false, nil
}
