package conversation

import (
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// =============================================================================
// Persistence
// =============================================================================
// Each project's conversation lives under <base>/contexts-v2/<projectID>/ as
// three JSON documents, every one carrying schema_version 2:
//
//	meta.json      project identity and turn count
//	snapshot.json  full window state (summary, title, path, ordered turns)
//	events.ndjson  one JSON object per turn, fully rewritten on every save
//
// The loader accepts schema_version 2 only. Anything else — a corrupt file,
// a hand-edited file, or data from the pre-versioning flat context-<hex>.json
// format — is treated as if no snapshot existed. Old data is discarded, never
// migrated; that is a product decision, not an oversight.

const (
	// SchemaVersion is the on-disk layout generation written by every save
	// and required by every load.
	SchemaVersion = 2

	// contextsDirName is the subdirectory of the base path holding one
	// directory per project.
	contextsDirName = "contexts-v2"

	snapshotFileName = "snapshot.json"
	metaFileName     = "meta.json"
	eventsFileName   = "events.ndjson"
)

// ProjectID derives the on-disk directory key for a project: a CRC32 of the
// absolute project path, hex-encoded. Collisions across distinct paths are
// possible though unlikely; the short hash is kept for compatibility with
// existing on-disk IDs.
func ProjectID(projectPath string) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(projectPath)))
}

type turnRecord struct {
	Role         string `json:"role"`
	Content      string `json:"content"`
	Reasoning    string `json:"reasoning,omitempty"`
	ToolCalls    int    `json:"tool_calls,omitempty"`
	ErrorCount   int    `json:"error_count,omitempty"`
	FilesTouched string `json:"files_touched,omitempty"`
}

type snapshotFile struct {
	SchemaVersion int          `json:"schema_version"`
	Summary       string       `json:"summary,omitempty"`
	Title         string       `json:"title,omitempty"`
	ProjectPath   string       `json:"project_path,omitempty"`
	LastEventSeq  int          `json:"last_event_seq"`
	Turns         []turnRecord `json:"turns"`
}

type metaFile struct {
	SchemaVersion int    `json:"schema_version"`
	ProjectID     string `json:"project_id"`
	ProjectRoot   string `json:"project_root"`
	TurnCount     int    `json:"turn_count"`
}

type eventRecord struct {
	SchemaVersion int    `json:"schema_version"`
	EventSeq      int    `json:"event_seq"`
	EventType     string `json:"event_type"`
	Role          string `json:"role"`
	Content       string `json:"content"`
}

// Persister reads and writes conversation state under a base directory
// (typically ~/.config/zagent).
type Persister struct {
	basePath string
	logger   *zap.Logger
}

// NewPersister creates a persister rooted at basePath. logger may be nil.
func NewPersister(basePath string, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{basePath: basePath, logger: logger}
}

// BasePath returns the directory the persister is rooted at.
func (p *Persister) BasePath() string { return p.basePath }

func (p *Persister) contextsDir() string {
	return filepath.Join(p.basePath, contextsDirName)
}

func (p *Persister) projectDir(projectID string) string {
	return filepath.Join(p.contextsDir(), projectID)
}

// Save durably writes the window's full state for the given project ID,
// rewriting all three files. Creating directories that already exist is
// success; any other I/O error propagates.
func (p *Persister) Save(w *Window, projectID string) error {
	dir := p.projectDir(projectID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create context dir: %w", err)
	}

	snap := snapshotFile{
		SchemaVersion: SchemaVersion,
		Summary:       w.summary,
		Title:         w.title,
		ProjectPath:   w.projectPath,
		LastEventSeq:  len(w.turns),
		Turns:         make([]turnRecord, len(w.turns)),
	}
	for i, t := range w.turns {
		snap.Turns[i] = turnRecord{
			Role:         string(t.Role),
			Content:      t.Content,
			Reasoning:    t.Reasoning,
			ToolCalls:    t.ToolCalls,
			ErrorCount:   t.ErrorCount,
			FilesTouched: t.FilesTouched,
		}
	}
	snapData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, snapshotFileName), snapData); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	meta := metaFile{
		SchemaVersion: SchemaVersion,
		ProjectID:     projectID,
		ProjectRoot:   w.projectPath,
		TurnCount:     len(w.turns),
	}
	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(dir, metaFileName), metaData); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}

	if err := p.writeEvents(filepath.Join(dir, eventsFileName), w.turns); err != nil {
		return fmt.Errorf("write events: %w", err)
	}

	p.logger.Debug("saved conversation",
		zap.String("project_id", projectID),
		zap.Int("turns", len(w.turns)))
	return nil
}

// writeEvents rewrites the per-turn event log. The log is line-oriented but
// not incrementally appended: every save produces the whole file again.
func (p *Persister) writeEvents(path string, turns []Turn) error {
	var buf []byte
	for i, t := range turns {
		line, err := json.Marshal(eventRecord{
			SchemaVersion: SchemaVersion,
			EventSeq:      i + 1,
			EventType:     "turn",
			Role:          string(t.Role),
			Content:       t.Content,
		})
		if err != nil {
			return err
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	return writeFileAtomic(path, buf)
}

// Load restores the saved conversation for a project path into w. A missing,
// unparseable, or wrong-version snapshot leaves w untouched and returns nil;
// other filesystem errors propagate.
func (p *Persister) Load(w *Window, projectPath string) error {
	return p.LoadByID(w, ProjectID(projectPath))
}

// LoadByID is Load keyed directly by the hex project ID.
func (p *Persister) LoadByID(w *Window, projectID string) error {
	path := filepath.Join(p.projectDir(projectID), snapshotFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		p.logger.Warn("ignoring unparseable snapshot",
			zap.String("project_id", projectID), zap.Error(err))
		return nil
	}
	if snap.SchemaVersion != SchemaVersion {
		p.logger.Warn("ignoring snapshot with unsupported schema version",
			zap.String("project_id", projectID),
			zap.Int("schema_version", snap.SchemaVersion))
		return nil
	}

	w.summary = snap.Summary
	w.title = snap.Title
	w.projectPath = snap.ProjectPath
	w.turns = make([]Turn, len(snap.Turns))
	for i, r := range snap.Turns {
		w.turns[i] = Turn{
			Role:         Role(r.Role),
			Content:      r.Content,
			Reasoning:    r.Reasoning,
			ToolCalls:    r.ToolCalls,
			ErrorCount:   r.ErrorCount,
			FilesTouched: r.FilesTouched,
		}
	}

	p.logger.Debug("loaded conversation",
		zap.String("project_id", projectID),
		zap.Int("turns", len(w.turns)))
	return nil
}

// writeFileAtomic writes data via a temp file in the target directory and
// renames it into place, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
