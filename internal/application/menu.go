package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"voice-notes/internal/domain"
)

const (
	menuHeader   = "\n--- Note Taking Menu ---"
	menuFooter   = "------------------------"
	notesHeader  = "\n--- Notes ---"
	notesFooter  = "--------------\n"
	exitMessage  = "Exiting the note-taking application."
	invalidInput = "Invalid choice. Please select a valid option."
)

var menuOptions = []string{
	"1. Show Notes",
	"2. Add Notes",
	"3. New Notes Page",
	"4. Exit",
}

// Run drives the menu until the user exits, declines to add another note or
// ctx is cancelled. Write failures end the loop with an error.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Info("note session ready", "path", s.targetPath)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.displayMenu()

		choice, heard, err := s.hear(ctx, "Please say your choice.")
		if err != nil {
			return err
		}
		if !heard {
			continue
		}

		action := s.MatchAction(choice)
		s.logger.Debug("menu choice", "text", choice, "action", action)

		switch action {
		case domain.ActionShowNotes:
			if err := s.showNotes(); err != nil {
				return err
			}

		case domain.ActionAddNotes:
			if err := s.takeNote(ctx); err != nil {
				return err
			}
			more, err := s.askToContinue(ctx)
			if err != nil {
				return err
			}
			if !more {
				s.println(exitMessage)
				return nil
			}

		case domain.ActionNewNotesPage:
			if err := s.newNotesPage(); err != nil {
				return err
			}

		case domain.ActionExit:
			s.println(exitMessage)
			return nil

		default:
			s.println(invalidInput)
		}
	}
}

func (s *Session) displayMenu() {
	s.println(menuHeader)
	for _, opt := range menuOptions {
		s.println(opt)
	}
	s.println(menuFooter)
}

// hear prompts and listens once. Transcription failures are reported to the
// user and come back as heard == false; only cancellation and capture
// failures are returned as errors.
func (s *Session) hear(ctx context.Context, prompt string) (string, bool, error) {
	s.println(prompt)

	text, err := s.listener.Listen(ctx)
	switch {
	case err == nil:
		s.printf("You said: %s\n", text)
		return text, true, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "", false, err
	case errors.Is(err, domain.ErrNoSpeech):
		s.println("Sorry, I could not understand the audio.")
		return "", false, nil
	case errors.Is(err, domain.ErrServiceUnavailable):
		s.logger.Warn("transcription failed", "error", err)
		s.printf("Could not request results from the speech recognition service; %v\n", err)
		return "", false, nil
	default:
		return "", false, fmt.Errorf("listening: %w", err)
	}
}

func (s *Session) showNotes() error {
	contents, found, err := s.ReadAllNotes()
	if err != nil {
		return err
	}
	if !found {
		s.println("No notes found.")
		return nil
	}
	s.println(notesHeader)
	s.println(contents)
	s.println(notesFooter)
	return nil
}

func (s *Session) takeNote(ctx context.Context) error {
	note, heard, err := s.hear(ctx, "Please speak your note...")
	if err != nil || !heard {
		return err
	}

	if err := s.AppendNote(note, s.now()); err != nil {
		return err
	}
	s.println("Note saved.")

	if err := s.notifier.Notify(ctx, fmt.Sprintf("Note saved to %s: %s", s.targetPath, note)); err != nil {
		s.logger.Error("notifying saved note", "error", err)
	}
	return nil
}

func (s *Session) askToContinue(ctx context.Context) (bool, error) {
	answer, heard, err := s.hear(ctx, "Do you want to add another note? Please say 'yes' or 'no'.")
	if err != nil || !heard {
		return false, err
	}
	return isAffirmative(answer), nil
}

func (s *Session) newNotesPage() error {
	s.printf("Enter the new filename (without extension): ")

	line, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return fmt.Errorf("reading page name: %w", err)
	}

	s.StartNewPage(strings.TrimRight(line, "\r\n"))
	s.printf("New notes page created: %s\n", s.targetPath)
	return nil
}

// isAffirmative accepts "yes" or "y", ignoring case and the punctuation
// transcribers add at the end of a sentence.
func isAffirmative(answer string) bool {
	a := strings.ToLower(strings.TrimSpace(answer))
	a = strings.TrimRight(a, ".!?, ")
	return a == "yes" || a == "y"
}

func (s *Session) println(line string) {
	fmt.Fprintln(s.out, line)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
