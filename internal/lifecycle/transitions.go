package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// ReportInput is a new item report. Empty category and location take
// their defaults; an empty date means today.
type ReportInput struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Date        string `json:"date"`
	ImageRef    string `json:"imageRef"`
}

// Report validates in and adds it to the head of the active list. Anyone
// may report; the poster is the session user or Anonymous.
func (e *Engine) Report(ctx context.Context, in ReportInput) (model.Record, error) {
	return track(ctx, e, model.OpReport, func() (model.Record, error) {
		now := e.now()

		rec := model.Record{
			Type:        strings.TrimSpace(in.Type),
			Title:       strings.TrimSpace(in.Title),
			Category:    strings.TrimSpace(in.Category),
			Location:    strings.TrimSpace(in.Location),
			Description: strings.TrimSpace(in.Description),
			Date:        strings.TrimSpace(in.Date),
			ImageRef:    strings.TrimSpace(in.ImageRef),
			PostedBy:    actor(e.session(ctx)),
		}
		if rec.Type == "" {
			rec.Type = model.TypeLost
		}
		if !model.ValidType(rec.Type) {
			return model.Record{}, &model.ValidationError{Field: "type", Message: fmt.Sprintf("type must be %q or %q", model.TypeLost, model.TypeFound)}
		}
		if rec.Category == "" {
			rec.Category = model.DefaultCategory
		}
		if rec.Location == "" {
			rec.Location = model.DefaultLocation
		}
		if err := model.ValidateFields(rec.Title, rec.Category, rec.Location); err != nil {
			return model.Record{}, err
		}

		today := now.Format(model.DateLayout)
		if rec.Date == "" {
			rec.Date = today
		} else {
			d, err := model.ParseDate(rec.Date)
			if err != nil {
				return model.Record{}, err
			}
			rec.Date = d.Format(model.DateLayout)
			if rec.Date > today && !e.confirmed(ctx, PromptFutureDate) {
				return model.Record{}, fmt.Errorf("report: %w", model.ErrAborted)
			}
		}

		rec, err := e.state.Records.InsertActive(rec, now)
		if err != nil {
			return model.Record{}, err
		}
		e.state.History.Append(model.Transition{RecordID: rec.ID, Op: model.OpReport, To: model.PartitionActive, Actor: rec.PostedBy, At: now})
		e.logger.Info("item reported", "id", rec.ID, "type", rec.Type, "user", rec.PostedBy)

		return rec, e.persist(ctx, store.KeyItems, store.KeyHistory)
	})
}

// ImportSample adds the demo record to the head of the active list.
func (e *Engine) ImportSample(ctx context.Context) (model.Record, error) {
	return track(ctx, e, model.OpSample, func() (model.Record, error) {
		now := e.now()
		rec, err := e.state.Records.InsertActive(model.Record{
			Type:        model.TypeLost,
			Title:       "Black Wallet",
			Category:    "Wallet",
			Location:    "Library",
			Description: "Leather wallet",
			Date:        "2025-11-25",
			PostedBy:    model.Anonymous,
		}, now)
		if err != nil {
			return model.Record{}, err
		}
		e.state.History.Append(model.Transition{RecordID: rec.ID, Op: model.OpSample, To: model.PartitionActive, Actor: actor(e.session(ctx)), At: now})
		e.logger.Info("sample imported", "id", rec.ID)

		return rec, e.persist(ctx, store.KeyItems, store.KeyHistory)
	})
}

// Claim moves an active record to the claimed list on behalf of the session user.
func (e *Engine) Claim(ctx context.Context, id string) (model.Record, error) {
	return track(ctx, e, model.OpClaim, func() (model.Record, error) {
		sess := e.session(ctx)
		if sess == nil {
			return model.Record{}, fmt.Errorf("claiming requires signing in: %w", model.ErrUnauthorized)
		}

		now := e.now()
		rec, err := e.state.Records.MoveActiveToClaimed(id, model.Claim{ClaimedBy: sess.Username, ClaimedAt: now})
		if err != nil {
			return model.Record{}, err
		}
		e.state.History.Append(model.Transition{RecordID: id, Op: model.OpClaim, From: model.PartitionActive, To: model.PartitionClaimed, Actor: sess.Username, At: now})
		e.logger.Info("item claimed", "id", id, "user", sess.Username)

		return rec, e.persist(ctx, store.KeyItems, store.KeyClaimed, store.KeyHistory)
	})
}

// Edit changes the whitelisted fields of a record in any partition. Staff,
// admins and the record's claimant may edit.
func (e *Engine) Edit(ctx context.Context, id string, patch model.Patch) (model.Record, error) {
	return track(ctx, e, model.OpEdit, func() (model.Record, error) {
		sess := e.session(ctx)
		if sess == nil {
			return model.Record{}, fmt.Errorf("editing requires signing in: %w", model.ErrUnauthorized)
		}

		current, p, ok := e.state.Records.Find(id)
		if !ok {
			return model.Record{}, fmt.Errorf("record %s: %w", id, model.ErrNotFound)
		}
		if !sess.IsStaff() && (current.Claimant() == "" || current.Claimant() != sess.Username) {
			return model.Record{}, fmt.Errorf("only staff or the claimant may edit: %w", model.ErrUnauthorized)
		}

		patch = trimPatch(patch)
		candidate := current.Clone()
		patch.Apply(&candidate)
		if candidate.Title == "" {
			return model.Record{}, &model.ValidationError{Field: "title", Message: "title is required"}
		}
		if err := model.ValidateFields(candidate.Title, candidate.Category, candidate.Location); err != nil {
			return model.Record{}, err
		}

		rec, p, err := e.state.Records.UpdateFields(id, patch)
		if err != nil {
			return model.Record{}, err
		}
		e.state.History.Append(model.Transition{RecordID: id, Op: model.OpEdit, From: p, To: p, Actor: sess.Username, At: e.now()})
		e.logger.Info("item edited", "id", id, "user", sess.Username)

		return rec, e.persist(ctx, partitionKey(p), store.KeyHistory)
	})
}

func trimPatch(p model.Patch) model.Patch {
	trim := func(s *string) *string {
		if s == nil {
			return nil
		}
		v := strings.TrimSpace(*s)
		return &v
	}
	return model.Patch{
		Title:       trim(p.Title),
		Category:    trim(p.Category),
		Location:    trim(p.Location),
		Description: trim(p.Description),
	}
}

func requireAdmin(sess *model.Session, op string) error {
	if !sess.IsAdmin() {
		return fmt.Errorf("%s requires admin: %w", op, model.ErrUnauthorized)
	}
	return nil
}

// Delete moves an active or claimed record to the bin.
func (e *Engine) Delete(ctx context.Context, id string) (model.Record, error) {
	return track(ctx, e, model.OpDelete, func() (model.Record, error) {
		sess := e.session(ctx)
		if err := requireAdmin(sess, "delete"); err != nil {
			return model.Record{}, err
		}

		_, from, ok := e.state.Records.Find(id)
		if !ok || from == model.PartitionDeleted {
			return model.Record{}, fmt.Errorf("record %s: %w", id, model.ErrNotFound)
		}
		prompt := PromptDelete
		if from == model.PartitionClaimed {
			prompt = PromptDeleteClaimed
		}
		if !e.confirmed(ctx, prompt) {
			return model.Record{}, fmt.Errorf("delete: %w", model.ErrAborted)
		}

		now := e.now()
		rec, err := e.state.Records.MoveToDeleted(id, from, now)
		if err != nil {
			return model.Record{}, err
		}
		e.state.History.Append(model.Transition{RecordID: id, Op: model.OpDelete, From: from, To: model.PartitionDeleted, Actor: sess.Username, At: now})
		e.logger.Info("item deleted", "id", id, "from", from, "user", sess.Username)

		return rec, e.persist(ctx, partitionKey(from), store.KeyDeleted, store.KeyHistory)
	})
}

// Restore moves a deleted record back to the active list. Claim and
// verification fields stay on the record.
func (e *Engine) Restore(ctx context.Context, id string) (model.Record, error) {
	return track(ctx, e, model.OpRestore, func() (model.Record, error) {
		sess := e.session(ctx)
		if err := requireAdmin(sess, "restore"); err != nil {
			return model.Record{}, err
		}

		rec, err := e.state.Records.Restore(id)
		if err != nil {
			return model.Record{}, err
		}
		e.state.History.Append(model.Transition{RecordID: id, Op: model.OpRestore, From: model.PartitionDeleted, To: model.PartitionActive, Actor: sess.Username, At: e.now()})
		e.logger.Info("item restored", "id", id, "user", sess.Username)

		return rec, e.persist(ctx, store.KeyDeleted, store.KeyItems, store.KeyHistory)
	})
}

// Purge removes a deleted record permanently.
func (e *Engine) Purge(ctx context.Context, id string) (model.Record, error) {
	return track(ctx, e, model.OpPurge, func() (model.Record, error) {
		sess := e.session(ctx)
		if err := requireAdmin(sess, "purge"); err != nil {
			return model.Record{}, err
		}

		if _, p, ok := e.state.Records.Find(id); !ok || p != model.PartitionDeleted {
			return model.Record{}, fmt.Errorf("record %s in %s: %w", id, model.PartitionDeleted, model.ErrNotFound)
		}
		if !e.confirmed(ctx, PromptPurge) {
			return model.Record{}, fmt.Errorf("purge: %w", model.ErrAborted)
		}

		rec, err := e.state.Records.Purge(id)
		if err != nil {
			return model.Record{}, err
		}
		e.state.History.Append(model.Transition{RecordID: id, Op: model.OpPurge, From: model.PartitionDeleted, Actor: sess.Username, At: e.now()})
		e.logger.Info("item purged", "id", id, "user", sess.Username)

		return rec, e.persist(ctx, store.KeyDeleted, store.KeyHistory)
	})
}

// ToggleVerification verifies an unverified claimed record and unverifies
// a verified one. Staff and admins only.
func (e *Engine) ToggleVerification(ctx context.Context, id string) (model.Record, error) {
	return track(ctx, e, model.OpVerify, func() (model.Record, error) {
		sess := e.session(ctx)
		if !sess.IsStaff() {
			return model.Record{}, fmt.Errorf("verification requires staff: %w", model.ErrUnauthorized)
		}

		now := e.now()
		rec, err := e.state.Records.ToggleVerification(id, sess.Username, now)
		if err != nil {
			return model.Record{}, err
		}
		op := model.OpVerify
		if !rec.Verified() {
			op = model.OpUnverify
		}
		e.state.History.Append(model.Transition{RecordID: id, Op: op, From: model.PartitionClaimed, To: model.PartitionClaimed, Actor: sess.Username, At: now})
		e.logger.Info("verification toggled", "id", id, "op", op, "user", sess.Username)

		return rec, e.persist(ctx, store.KeyClaimed, store.KeyHistory)
	})
}

// ClearAll empties every partition, the history and the user list, and
// signs out. Admin only.
func (e *Engine) ClearAll(ctx context.Context) error {
	_, err := track(ctx, e, "clear", func() (struct{}, error) {
		sess := e.session(ctx)
		if err := requireAdmin(sess, "clearing all data"); err != nil {
			return struct{}{}, err
		}
		if !e.confirmed(ctx, PromptClearAll) {
			return struct{}{}, fmt.Errorf("clear: %w", model.ErrAborted)
		}

		e.state.Records.Clear()
		e.state.History.Clear()
		e.state.Users.Clear()
		e.state.Sessions.Clear()
		e.logger.Warn("all data cleared", "user", sess.Username)

		return struct{}{}, e.persist(ctx,
			store.KeyItems, store.KeyClaimed, store.KeyDeleted,
			store.KeyUsers, store.KeyHistory, store.KeySession,
		)
	})
	return err
}
