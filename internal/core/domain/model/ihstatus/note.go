package ihstatus

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
)

const maxNoteLength = 2000

type NoteKind string

const (
	NoteGeneral              NoteKind = "GENERAL"
	NoteDeliveryConfirmation NoteKind = "DELIVERY_CONFIRMATION"
)

func ParseNoteKind(s string) (NoteKind, error) {
	switch k := NoteKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case "":
		return NoteGeneral, nil
	case NoteGeneral, NoteDeliveryConfirmation:
		return k, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("noteKind", fmt.Errorf("%q is not a note kind", s))
	}
}

// Note is an immutable staff remark on an IH shipment.
type Note struct {
	id        kernel.UUID
	text      string
	author    string
	kind      NoteKind
	createdAt time.Time
}

func NewNote(text, author string, kind NoteKind, at time.Time) (Note, error) {
	return RestoreNote(kernel.NewUUID(), text, author, kind, at)
}

// RestoreNote rebuilds a persisted note.
func RestoreNote(id kernel.UUID, text, author string, kind NoteKind, at time.Time) (Note, error) {
	n := Note{
		id:        id,
		text:      strings.TrimSpace(text),
		author:    strings.TrimSpace(author),
		kind:      kind,
		createdAt: at.UTC(),
	}
	var errList []error
	errList = append(errList, id.Validate())
	if n.text == "" {
		errList = append(errList, errs.NewValueIsRequiredError("note.text"))
	} else if len(n.text) > maxNoteLength {
		errList = append(errList, errs.NewValueIsOutOfRangeError("note.text", len(n.text), 1, maxNoteLength))
	}
	if n.author == "" {
		errList = append(errList, errs.NewValueIsRequiredError("note.author"))
	}
	if kind != NoteGeneral && kind != NoteDeliveryConfirmation {
		errList = append(errList, errs.NewValueIsInvalidError("note.kind"))
	}
	if err := errors.Join(errList...); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (n Note) ID() kernel.UUID { return n.id }
func (n Note) Text() string { return n.text }
func (n Note) Author() string { return n.author }
func (n Note) Kind() NoteKind { return n.kind }
func (n Note) CreatedAt() time.Time { return n.createdAt }

// NoteLog is append-only. Notes are never edited or removed.
type NoteLog struct {
	notes []Note
}

func NewNoteLog(notes ...Note) NoteLog {
	return NoteLog{notes: append([]Note(nil), notes...)}
}

func (l *NoteLog) Append(n Note) {
	l.notes = append(l.notes, n)
}

// All returns a copy in insertion order.
func (l NoteLog) All() []Note {
	return append([]Note(nil), l.notes...)
}

func (l NoteLog) Len() int {
	return len(l.notes)
}

func (l NoteLog) HasDeliveryConfirmation() bool {
	for _, n := range l.notes {
		if n.kind == NoteDeliveryConfirmation {
			return true
		}
	}
	return false
}
