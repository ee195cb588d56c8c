package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"

	"github.com/aqualedger/aqualedger/pkg/types"
)

const (
	settingsFile      = "settings.json"
	manualEntriesFile = "manual_entries.json"
	latestReportFile  = "latest_report.json"
	cycleHistoryFile  = "cycle_history.json"
)

// FileProvider implements Database with a directory of JSON files. Each
// file is rewritten whole on every change.
type FileProvider struct {
	dir string
	mu  sync.Mutex
}

type settingsDoc struct {
	Version  int            `json:"version"`
	Settings types.Settings `json:"settings"`
}

func configuredFile() *FileProvider {
	dir := lflag.String("storage-dir", "data", "Directory the file storage provider writes to")

	f := &FileProvider{}
	lflag.Do(func() {
		f.dir = *dir
	})
	return f
}

// NewFileProvider returns a FileProvider rooted at dir, creating it if
// necessary.
func NewFileProvider(dir string) (*FileProvider, error) {
	f := &FileProvider{dir: dir}
	if err := f.Init(); err != nil {
		return nil, err
	}
	return f, nil
}

// Init creates the storage directory.
func (f *FileProvider) Init() error {
	if f.dir == "" {
		return fmt.Errorf("storage directory cannot be empty")
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage dir %s: %w", f.dir, err)
	}
	return nil
}

// Close is a no-op.
func (f *FileProvider) Close() error {
	return nil
}

// load reads name into v. A missing file leaves v untouched.
func (f *FileProvider) load(name string, v any) error {
	b, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

// save writes v to a temporary file and renames it over name.
func (f *FileProvider) save(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	path := filepath.Join(f.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

// GetSettings returns the stored settings and their version. Missing
// settings return the zero value and version 0.
func (f *FileProvider) GetSettings(ctx context.Context) (types.Settings, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var doc settingsDoc
	if err := f.load(settingsFile, &doc); err != nil {
		return types.Settings{}, 0, err
	}
	return doc.Settings, doc.Version, nil
}

func (f *FileProvider) SetSettings(ctx context.Context, settings types.Settings, version int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(settingsFile, settingsDoc{Version: version, Settings: settings})
}

func (f *FileProvider) GetManualEntries(ctx context.Context) (map[string]types.ManualEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := map[string]types.ManualEntry{}
	if err := f.load(manualEntriesFile, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (f *FileProvider) UpsertManualEntry(ctx context.Context, date string, entry types.ManualEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := map[string]types.ManualEntry{}
	if err := f.load(manualEntriesFile, &entries); err != nil {
		return err
	}
	entries[date] = entry
	return f.save(manualEntriesFile, entries)
}

func (f *FileProvider) DeleteManualEntry(ctx context.Context, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries := map[string]types.ManualEntry{}
	if err := f.load(manualEntriesFile, &entries); err != nil {
		return err
	}
	if _, ok := entries[date]; !ok {
		return nil
	}
	delete(entries, date)
	return f.save(manualEntriesFile, entries)
}

func (f *FileProvider) GetLatestReport(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var lines []string
	if err := f.load(latestReportFile, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (f *FileProvider) SetLatestReport(ctx context.Context, lines []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(latestReportFile, lines)
}

func (f *FileProvider) InsertCycle(ctx context.Context, record types.CycleRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var records []types.CycleRecord
	if err := f.load(cycleHistoryFile, &records); err != nil {
		return err
	}
	records = append(records, record)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CompletedAt.Before(records[j].CompletedAt)
	})
	return f.save(cycleHistoryFile, records)
}

// GetCycleHistory returns cycles completed in [start, end).
func (f *FileProvider) GetCycleHistory(ctx context.Context, start, end time.Time) ([]types.CycleRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var records []types.CycleRecord
	if err := f.load(cycleHistoryFile, &records); err != nil {
		return nil, err
	}
	var out []types.CycleRecord
	for _, r := range records {
		if r.CompletedAt.Before(start) || !r.CompletedAt.Before(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

var _ Database = (*FileProvider)(nil)
