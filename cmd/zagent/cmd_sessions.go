// Session and archive CLI commands: listing saved project contexts and
// searching the turn archive.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"zagent/internal/conversation"
	"zagent/internal/store"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List saved project contexts",
	Long: `Lists every saved project context under the config directory,
most recently modified first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		persister := conversation.NewPersister(configDir, logger)
		return printSessions(persister)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Print a saved context's summary and turns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSessionsShow(args[0])
	},
}

func runSessionsShow(projectID string) error {
	persister := conversation.NewPersister(configDir, logger)
	window := conversation.NewWindow(conversation.DefaultWindowConfig())
	if err := persister.LoadByID(window, projectID); err != nil {
		return fmt.Errorf("load session %s: %w", projectID, err)
	}
	if window.Len() == 0 && window.Summary() == "" {
		return fmt.Errorf("no saved context for %q", projectID)
	}

	if window.ProjectPath() != "" {
		fmt.Println(subtleStyle.Render("project: " + window.ProjectPath()))
	}
	if window.Summary() != "" {
		fmt.Println(titleStyle.Render("Summary"))
		fmt.Println(window.Summary())
		fmt.Println()
	}
	for _, t := range window.Turns() {
		fmt.Printf("%s %s\n", promptStyle.Render(string(t.Role)+":"), t.Content)
	}
	return nil
}

func printSessions(p *conversation.Persister) error {
	sessions, err := p.ListSessions()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Println("No saved sessions found.")
		return nil
	}

	fmt.Println(titleStyle.Render("Saved Sessions"))
	fmt.Println(strings.Repeat("─", 60))
	for _, s := range sessions {
		fmt.Printf("  %s  %s\n", s.ID, s.Title)
		fmt.Printf("  %s\n", subtleStyle.Render(fmt.Sprintf("%s · %s · %d bytes",
			s.Path, s.ModifiedAt.Format("2006-01-02 15:04"), s.SizeBytes)))
	}
	fmt.Println(strings.Repeat("─", 60))
	fmt.Printf("Total: %d\n", len(sessions))
	return nil
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the cross-project turn archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runArchiveStats()
	},
}

var archiveSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search archived turns",
	Long: `Searches archived conversation turns for a substring. By default the
search is scoped to the current project; --all searches every project.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runArchiveSearch(strings.Join(args, " "))
	},
}

var archiveSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Mirror every saved context into the archive",
	Long: `Loads each saved project context and archives its turns. Syncing is
idempotent, so running it repeatedly only adds turns not yet archived.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runArchiveSync()
	},
}

var archiveSearchAll bool

func init() {
	archiveSearchCmd.Flags().BoolVar(&archiveSearchAll, "all", false, "search across all projects")
	archiveCmd.AddCommand(archiveSearchCmd)
	archiveCmd.AddCommand(archiveSyncCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
}

func openArchive() (*store.Archive, error) {
	if !cfg.Archive.Enabled {
		return nil, fmt.Errorf("archive is disabled in config.yaml")
	}
	return store.Open(cfg.ResolveArchivePath(configDir), logger)
}

func runArchiveStats() error {
	archive, err := openArchive()
	if err != nil {
		return err
	}
	defer archive.Close()

	stats, err := archive.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("archived turns: %d across %d projects\n", stats.Turns, stats.Projects)
	return nil
}

func runArchiveSync() error {
	archive, err := openArchive()
	if err != nil {
		return err
	}
	defer archive.Close()

	persister := conversation.NewPersister(configDir, logger)
	sessions, err := persister.ListSessions()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	synced := 0
	for _, s := range sessions {
		window := conversation.NewWindow(conversation.DefaultWindowConfig())
		if err := persister.LoadByID(window, s.ID); err != nil {
			return fmt.Errorf("load session %s: %w", s.ID, err)
		}
		if err := archive.SyncWindow(s.ID, window.Turns()); err != nil {
			return fmt.Errorf("sync session %s: %w", s.ID, err)
		}
		synced++
	}

	stats, err := archive.Stats()
	if err != nil {
		return err
	}
	fmt.Printf("synced %d sessions; archive holds %d turns across %d projects\n",
		synced, stats.Turns, stats.Projects)
	return nil
}

func runArchiveSearch(query string) error {
	archive, err := openArchive()
	if err != nil {
		return err
	}
	defer archive.Close()

	projectID := ""
	if !archiveSearchAll {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		projectID = conversation.ProjectID(cwd)
	}

	hits, err := archive.Search(projectID, query, 20)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for _, h := range hits {
		fmt.Printf("%s %s %s\n",
			subtleStyle.Render(h.ArchivedAt.Format("2006-01-02 15:04")),
			promptStyle.Render(h.Role+":"),
			truncateLine(h.Content, 120))
	}
	return nil
}

func truncateLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
