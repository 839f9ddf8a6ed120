package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".webm": true,
	".flac": true,
}

// FileSource hands out audio files dropped into a directory, oldest name
// first. Writers should create files under a dot-prefixed name and rename
// them into place so a partial file is never picked up.
type FileSource struct {
	dir       string
	processed map[string]bool
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	logger    *slog.Logger
}

func NewFileSource(dir string, logger *slog.Logger) *FileSource {
	return &FileSource{
		dir:       dir,
		processed: make(map[string]bool),
		logger:    logger,
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return fmt.Errorf("watching %s: %w", f.dir, err)
	}

	f.mu.Lock()
	f.watcher = w
	f.mu.Unlock()

	f.logger.Info("watching audio directory", "dir", f.dir)
	return nil
}

func (f *FileSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.watcher == nil {
		return nil
	}
	err := f.watcher.Close()
	f.watcher = nil
	return err
}

func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	w := f.watcher
	f.mu.Unlock()
	if w == nil {
		return nil, fmt.Errorf("file source not started")
	}

	for {
		audio, err := f.checkForNewFile()
		if err != nil {
			return nil, err
		}
		if audio != nil {
			return audio, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil, fmt.Errorf("watcher closed")
			}
			f.logger.Debug("audio directory event", "op", ev.Op.String(), "path", ev.Name)
		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil, fmt.Errorf("watcher closed")
			}
			f.logger.Warn("audio directory watcher error", "error", watchErr)
		}
	}
}

func (f *FileSource) checkForNewFile() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !audioExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		if f.processed[path] {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		f.processed[path] = true

		if err := os.Rename(path, path+".processed"); err != nil {
			f.logger.Warn("marking audio file processed", "path", path, "error", err)
		}

		return data, nil
	}

	return nil, nil
}
