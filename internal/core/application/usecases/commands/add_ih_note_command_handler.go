package commands

import (
	"context"
	"log/slog"
	"time"

	"fulfillment/internal/core/domain/model/ihstatus"
)

// AddIHNoteCommandHandler appends notes. Notes never change the IH status,
// so no version check is needed.
type AddIHNoteCommandHandler struct {
	uowFactory ShipmentUoWFactory
	logger     *slog.Logger
	now        func() time.Time
}

func NewAddIHNoteCommandHandler(uowFactory ShipmentUoWFactory, logger *slog.Logger) AddIHNoteCommandHandler {
	return AddIHNoteCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "ih_notes"),
		now:        time.Now,
	}
}

func (h *AddIHNoteCommandHandler) Handle(ctx context.Context, cmd AddIHNoteCommand) (ihstatus.Note, error) {
	if err := cmd.Validate(); err != nil {
		return ihstatus.Note{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ihstatus.Note{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	repo := uow.ShipmentRepository()
	group, err := repo.Get(ctx, cmd.GroupID())
	if err != nil {
		return ihstatus.Note{}, err
	}

	note, err := group.AddIHNote(cmd.Text(), cmd.Author(), cmd.Kind(), h.now())
	if err != nil {
		return ihstatus.Note{}, err
	}
	if err = repo.AppendNote(ctx, group.ID(), note); err != nil {
		return ihstatus.Note{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return ihstatus.Note{}, err
	}

	h.logger.InfoContext(ctx, "IH note added",
		"group_id", group.ID().String(), "note_id", note.ID().String(), "kind", string(note.Kind()))
	return note, nil
}
