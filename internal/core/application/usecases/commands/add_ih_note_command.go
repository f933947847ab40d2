package commands

import (
	"errors"
	"strings"

	"fulfillment/internal/core/domain/model/ihstatus"
	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/guard"
)

var ErrAddIHNoteCommandIsNotConstructed = errors.New(
	"AddIHNoteCommand must be created via NewAddIHNoteCommand constructor",
)

// AddIHNoteCommand appends a staff note to an IH_FFL group.
type AddIHNoteCommand struct { //nolint:recvcheck //using for validation
	groupID kernel.UUID
	text    string
	author  string
	kind    ihstatus.NoteKind

	guard guard.ConstructorGuard
}

func NewAddIHNoteCommand(groupID kernel.UUID, text, author string, kind ihstatus.NoteKind) (AddIHNoteCommand, error) {
	c := AddIHNoteCommand{
		text:  strings.TrimSpace(text),
		kind:  kind,
		guard: guard.NewConstructorGuard(),
	}
	if c.kind == "" {
		c.kind = ihstatus.NoteGeneral
	}

	var errList []error
	if err := groupID.Validate(); err != nil {
		errList = append(errList, err)
	}
	c.groupID = groupID
	if c.text == "" {
		errList = append(errList, errs.NewValueIsRequiredError("text"))
	}
	c.author = strings.TrimSpace(author)
	if c.author == "" {
		errList = append(errList, errs.NewValueIsRequiredError("author"))
	}
	if err := errors.Join(errList...); err != nil {
		return AddIHNoteCommand{}, err
	}

	return c, nil
}

func (c AddIHNoteCommand) Validate() error {
	return c.guard.Validate(ErrAddIHNoteCommandIsNotConstructed)
}

func (c AddIHNoteCommand) GroupID() kernel.UUID { return c.groupID }
func (c AddIHNoteCommand) Text() string { return c.text }
func (c AddIHNoteCommand) Author() string { return c.author }
func (c AddIHNoteCommand) Kind() ihstatus.NoteKind { return c.kind }
