package application

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"voice-notes/internal/domain"
	"voice-notes/internal/notes"
)

// Session is the note-taking state: the active page, the date of the last
// block written to it and the menu phrase table.
type Session struct {
	dir        string
	targetPath string
	lastDate   string
	phrases    domain.PhraseTable

	listener Listener
	notifier Notifier
	in       *bufio.Reader
	out      io.Writer
	now      func() time.Time
	logger   *slog.Logger
}

type SessionOption func(*Session)

// WithClock overrides the time source used for note timestamps.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithPhrases replaces the default trigger table.
func WithPhrases(table domain.PhraseTable) SessionOption {
	return func(s *Session) { s.phrases = table.Clone() }
}

// NewSession opens page (a base name without extension) inside dir. Typed
// input is read from in and all console output goes to out.
func NewSession(
	dir string,
	page string,
	listener Listener,
	notifier Notifier,
	in io.Reader,
	out io.Writer,
	logger *slog.Logger,
	opts ...SessionOption,
) *Session {
	s := &Session{
		dir:      dir,
		phrases:  domain.DefaultPhrases(),
		listener: listener,
		notifier: notifier,
		in:       bufio.NewReader(in),
		out:      out,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.targetPath = s.pagePath(page)
	return s
}

func (s *Session) TargetPath() string {
	return s.targetPath
}

// ListPhrases returns a copy of the trigger table.
func (s *Session) ListPhrases() domain.PhraseTable {
	return s.phrases.Clone()
}

func (s *Session) MatchAction(transcript string) domain.Action {
	return s.phrases.Match(transcript)
}

// AppendNote writes text under the date of now, opening a new date block
// when the date differs from the last one written in this session.
func (s *Session) AppendNote(text string, now time.Time) error {
	date := now.Format(notes.DateLayout)

	var chunks []string
	if date != s.lastDate {
		chunks = append(chunks, notes.Header(date, s.lastDate != ""))
	}
	chunks = append(chunks, notes.Entry(now, text))

	if err := notes.Append(s.targetPath, chunks...); err != nil {
		return fmt.Errorf("appending note: %w", err)
	}

	if date != s.lastDate {
		s.logger.Debug("opened date block", "date", date, "path", s.targetPath)
	}
	s.lastDate = date
	return nil
}

// ReadAllNotes returns the page contents; found is false when the page has
// never been written.
func (s *Session) ReadAllNotes() (string, bool, error) {
	return notes.Read(s.targetPath)
}

// StartNewPage switches to base+".txt". The next note always opens a date block.
func (s *Session) StartNewPage(base string) {
	s.targetPath = s.pagePath(base)
	s.lastDate = ""
	s.logger.Info("switched notes page", "path", s.targetPath)
}

func (s *Session) pagePath(base string) string {
	return filepath.Join(s.dir, base+notes.Extension)
}
