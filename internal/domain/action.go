package domain

import "strings"

type Action string

const (
	ActionShowNotes    Action = "show_notes"
	ActionAddNotes     Action = "add_notes"
	ActionNewNotesPage Action = "new_notes_page"
	ActionExit         Action = "exit"
	ActionNone         Action = ""
)

// TextCommandPrefix marks a payload that already carries text and must not be transcribed.
const TextCommandPrefix = "__TEXT__:"

// PhraseSet binds an action to the trigger phrases that select it.
type PhraseSet struct {
	Action  Action
	Phrases []string
}

// PhraseTable is consulted in declaration order; the first action with a
// matching phrase wins.
type PhraseTable []PhraseSet

// DefaultPhrases returns the menu trigger table.
func DefaultPhrases() PhraseTable {
	return PhraseTable{
		{
			Action:  ActionShowNotes,
			Phrases: []string{"one", "display", "display notes", "list", "show", "show notes", "list notes"},
		},
		{
			Action:  ActionAddNotes,
			Phrases: []string{"two", "add", "add notes", "take a note", "record a note"},
		},
		{
			Action:  ActionNewNotesPage,
			Phrases: []string{"three", "new page", "create new page", "new notes page", "create new notes page", "start new notes page"},
		},
		{
			Action:  ActionExit,
			Phrases: []string{"four", "exit", "quit", "close", "never mind", "scratch that"},
		},
	}
}

// Match returns the first action whose phrase occurs in the lower-cased
// transcript, or ActionNone.
func (t PhraseTable) Match(transcript string) Action {
	lower := strings.ToLower(transcript)
	for _, set := range t {
		for _, phrase := range set.Phrases {
			if strings.Contains(lower, phrase) {
				return set.Action
			}
		}
	}
	return ActionNone
}

// Clone returns a deep copy so callers cannot mutate the session's table.
func (t PhraseTable) Clone() PhraseTable {
	out := make(PhraseTable, len(t))
	for i, set := range t {
		out[i] = PhraseSet{
			Action:  set.Action,
			Phrases: append([]string(nil), set.Phrases...),
		}
	}
	return out
}
