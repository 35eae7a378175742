package conversation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// Session discovery: enumerate saved conversations without loading them into
// live windows.

// discoveryParallelism bounds how many snapshots are parsed concurrently
// while scanning the contexts directory.
const discoveryParallelism = 8

// titleMaxChars is how much of the first user turn survives into an inferred
// session title.
const titleMaxChars = 60

// ListSessions scans the persistence directory and describes every saved
// conversation, most recently modified first. Directories whose name is not
// hex, or whose snapshot is missing/unreadable, are skipped. A base directory
// with no saves yields an empty list.
func (p *Persister) ListSessions() ([]SessionDescriptor, error) {
	entries, err := os.ReadDir(p.contextsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read contexts dir: %w", err)
	}

	var (
		mu       sync.Mutex
		sessions []SessionDescriptor
	)
	var g errgroup.Group
	g.SetLimit(discoveryParallelism)

	for _, entry := range entries {
		if !entry.IsDir() || !isHexName(entry.Name()) {
			continue
		}
		g.Go(func() error {
			desc, ok := p.describeSession(entry.Name())
			if !ok {
				return nil
			}
			mu.Lock()
			sessions = append(sessions, desc)
			mu.Unlock()
			return nil
		})
	}
	// Workers only skip; the group never carries an error.
	_ = g.Wait()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].ModifiedAt.After(sessions[j].ModifiedAt)
	})
	return sessions, nil
}

// describeSession builds one descriptor from a project subdirectory.
func (p *Persister) describeSession(projectID string) (SessionDescriptor, bool) {
	dir := p.projectDir(projectID)
	path := filepath.Join(dir, snapshotFileName)

	info, err := os.Stat(path)
	if err != nil {
		return SessionDescriptor{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SessionDescriptor{}, false
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil || snap.SchemaVersion != SchemaVersion {
		return SessionDescriptor{}, false
	}

	return SessionDescriptor{
		ID:         projectID,
		Path:       dir,
		Title:      inferTitle(snap),
		ModifiedAt: info.ModTime(),
		SizeBytes:  info.Size(),
	}, true
}

// inferTitle picks a display title: the explicit snapshot title when it is a
// real title (non-empty and not just a filesystem path, which early sessions
// stored there), otherwise the leading portion of the first user turn.
func inferTitle(snap snapshotFile) string {
	if t := strings.TrimSpace(snap.Title); t != "" && !isPathLike(t) {
		return t
	}
	for _, r := range snap.Turns {
		if Role(r.Role) != RoleUser {
			continue
		}
		title := strings.Join(strings.Fields(r.Content), " ")
		if len(title) > titleMaxChars {
			title = truncateAtRune(title, titleMaxChars) + "..."
		}
		return title
	}
	return "(untitled)"
}

// truncateAtRune cuts s to at most max bytes without splitting a rune.
func truncateAtRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isPathLike(s string) bool {
	return strings.HasPrefix(s, "/") ||
		strings.HasPrefix(s, "~/") ||
		strings.HasPrefix(s, "./")
}

func isHexName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
