package application_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voice-notes/internal/application"
	"voice-notes/internal/domain"
)

type runResult struct {
	session *application.Session
	output  string
	err     error
}

func runSession(t *testing.T, dir string, typed string, steps []step, notifier application.Notifier) runResult {
	t.Helper()

	if notifier == nil {
		notifier = &application.NoopNotifier{}
	}

	var out bytes.Buffer
	s := application.NewSession(
		dir,
		"notes",
		&scriptedListener{steps: steps},
		notifier,
		strings.NewReader(typed),
		&out,
		discardLogger(),
		application.WithClock(func() time.Time { return at(5, 10, 30, 0) }),
	)

	err := s.Run(context.Background())
	return runResult{session: s, output: out.String(), err: err}
}

// assertInOrder checks that every fragment appears in output after the previous one.
func assertInOrder(t *testing.T, output string, fragments ...string) {
	t.Helper()
	pos := 0
	for _, f := range fragments {
		i := strings.Index(output[pos:], f)
		if i < 0 {
			t.Fatalf("missing %q after offset %d in output:\n%s", f, pos, output)
		}
		pos += i + len(f)
	}
}

func TestRun_ShowInvalidAddThenDecline(t *testing.T) {
	dir := t.TempDir()

	res := runSession(t, dir, "", say("show", "gibberish", "add notes", "buy milk", "no"), nil)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}

	assertInOrder(t, res.output,
		"--- Note Taking Menu ---",
		"No notes found.",
		"Invalid choice. Please select a valid option.",
		"Please speak your note...",
		"You said: buy milk",
		"Note saved.",
		"Do you want to add another note?",
		"Exiting the note-taking application.",
	)

	got := readFile(t, filepath.Join(dir, "notes.txt"))
	want := "2024-03-05\n============================\n(10:30:00) buy milk\n"
	if got != want {
		t.Errorf("notes file:\n%q\nwant:\n%q", got, want)
	}
}

func TestRun_ExitPhrase(t *testing.T) {
	dir := t.TempDir()

	res := runSession(t, dir, "", say("scratch that"), nil)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}
	if !strings.Contains(res.output, "Exiting the note-taking application.") {
		t.Errorf("missing exit message in %q", res.output)
	}
	if strings.Count(res.output, "--- Note Taking Menu ---") != 1 {
		t.Errorf("menu should be shown once:\n%s", res.output)
	}
}

func TestRun_AddTwiceSameDay(t *testing.T) {
	dir := t.TempDir()

	res := runSession(t, dir, "", say("two", "first", "Yes.", "take a note", "second", "nope"), nil)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}

	got := readFile(t, filepath.Join(dir, "notes.txt"))
	want := "2024-03-05\n============================\n" +
		"(10:30:00) first\n" +
		"(10:30:00) second\n"
	if got != want {
		t.Errorf("notes file:\n%q\nwant:\n%q", got, want)
	}
}

func TestRun_ShowPrintsContents(t *testing.T) {
	dir := t.TempDir()

	res := runSession(t, dir, "", say("add", "water plants", "y", "display notes", "exit"), nil)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}

	assertInOrder(t, res.output,
		"--- Notes ---",
		"2024-03-05",
		"(10:30:00) water plants",
		"--------------",
		"Exiting the note-taking application.",
	)
}

func TestRun_MenuTranscriptionFailuresKeepLooping(t *testing.T) {
	dir := t.TempDir()

	steps := []step{
		{err: domain.ErrNoSpeech},
		{err: fmt.Errorf("whisper API error 503: %w", domain.ErrServiceUnavailable)},
		{text: "quit"},
	}

	res := runSession(t, dir, "", steps, nil)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}

	assertInOrder(t, res.output,
		"Sorry, I could not understand the audio.",
		"Could not request results from the speech recognition service; whisper API error 503",
		"Exiting the note-taking application.",
	)
	if strings.Contains(res.output, "Invalid choice") {
		t.Errorf("failed transcription must not count as an invalid choice:\n%s", res.output)
	}
	if n := strings.Count(res.output, "--- Note Taking Menu ---"); n != 3 {
		t.Errorf("menu shown %d times, want 3", n)
	}
}

func TestRun_UnintelligibleNoteIsDropped(t *testing.T) {
	dir := t.TempDir()

	steps := []step{
		{text: "record a note"},
		{err: domain.ErrNoSpeech},
		{text: "no"},
	}

	res := runSession(t, dir, "", steps, nil)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}

	if strings.Contains(res.output, "Note saved.") {
		t.Errorf("no note should be saved:\n%s", res.output)
	}
	contents, found, err := res.session.ReadAllNotes()
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Errorf("notes file should not exist, got %q", contents)
	}
}

func TestRun_UnheardContinueAnswerExits(t *testing.T) {
	dir := t.TempDir()

	steps := []step{
		{text: "add notes"},
		{text: "remember keys"},
		{err: domain.ErrNoSpeech},
		{text: "show"},
	}

	res := runSession(t, dir, "", steps, nil)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}
	if !strings.HasSuffix(strings.TrimSpace(res.output), "Exiting the note-taking application.") {
		t.Errorf("session should exit after an unheard answer:\n%s", res.output)
	}
}

func TestRun_NewPageUsesTypedName(t *testing.T) {
	dir := t.TempDir()

	res := runSession(t, dir, "work\n", say("new page", "add notes", "ship it", "no"), nil)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}

	page := filepath.Join(dir, "work.txt")
	assertInOrder(t, res.output,
		"Enter the new filename (without extension): ",
		"New notes page created: "+page,
	)

	want := "2024-03-05\n============================\n(10:30:00) ship it\n"
	if got := readFile(t, page); got != want {
		t.Errorf("work.txt:\n%q\nwant:\n%q", got, want)
	}
}

func TestRun_NewPageWithoutInputFails(t *testing.T) {
	res := runSession(t, t.TempDir(), "", say("create new page"), nil)
	if res.err == nil {
		t.Fatal("expected error when no page name can be read")
	}
}

func TestRun_WriteFailureStopsLoop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")

	res := runSession(t, dir, "", say("add notes", "lost note", "yes", "exit"), nil)
	if res.err == nil {
		t.Fatal("expected write failure to end the session")
	}
	if strings.Contains(res.output, "Note saved.") {
		t.Errorf("note must not be reported as saved:\n%s", res.output)
	}
}

func TestRun_CancellationEndsLoop(t *testing.T) {
	res := runSession(t, t.TempDir(), "", say("gibberish"), nil)
	if !errors.Is(res.err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", res.err)
	}
}

func TestRun_CaptureFailureIsReturned(t *testing.T) {
	captureErr := errors.New("microphone unplugged")

	res := runSession(t, t.TempDir(), "", []step{{err: captureErr}}, nil)
	if !errors.Is(res.err, captureErr) {
		t.Fatalf("Run error = %v, want %v", res.err, captureErr)
	}
}

func TestRun_NotifiesSavedNotes(t *testing.T) {
	notifier := &recordingNotifier{}

	res := runSession(t, t.TempDir(), "", say("add notes", "buy bread", "no"), notifier)
	if res.err != nil {
		t.Fatalf("Run: %v", res.err)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("got %d notifications, want 1", len(notifier.messages))
	}
	if !strings.Contains(notifier.messages[0], "buy bread") {
		t.Errorf("notification = %q", notifier.messages[0])
	}
}
