package tradebook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/pkg/id"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/rustyeddy/tradelog/screenshot"
)

// Image is an uploaded screenshot file.
type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Draft is everything a user enters for one trade.
type Draft struct {
	Input     risk.TradeInput
	Date      time.Time
	Duration  journal.Duration // defaults to day
	EntryDate time.Time        // swing trades only
	ExitDate  time.Time        // swing trades only
	Setup     string
	Notes     string

	Before *Image
	After  *Image
}

// Saved is a stored trade plus anything that went wrong after the record
// itself was written.
type Saved struct {
	Record   *journal.TradeRecord
	Warnings []string
}

// Submit validates, calculates and stores a new trade, then uploads its
// screenshots and patches their URLs onto the record. Screenshot problems
// never undo the insert; they come back as warnings.
func (s *Service) Submit(ctx context.Context, userID, accountID string, d Draft) (*Saved, error) {
	acct, err := s.Account(accountID)
	if err != nil {
		return nil, err
	}
	rec, err := s.build(acct, d, "")
	if err != nil {
		return nil, err
	}
	rec.UserID, rec.AccountID = userID, accountID

	stored, err := s.store.Insert(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cacheKey(userID, accountID))
	s.log.Info().Str("trade_id", stored.ID).Str("account", accountID).
		Str("symbol", stored.Input.Symbol).Str("status", string(stored.Input.Status)).
		Msg("trade saved")

	return s.attach(ctx, stored, d), nil
}

// Edit replaces a trade's inputs and recomputes every derived field.
// Existing screenshots are kept unless the draft brings a new one.
func (s *Service) Edit(ctx context.Context, userID, accountID, tradeID string, d Draft) (*Saved, error) {
	acct, err := s.Account(accountID)
	if err != nil {
		return nil, err
	}
	cur, err := s.Get(ctx, userID, accountID, tradeID)
	if err != nil {
		return nil, err
	}
	rec, err := s.build(acct, d, cur.AfterScreenshot)
	if err != nil {
		return nil, err
	}
	rec.BeforeScreenshot, rec.AfterScreenshot = cur.BeforeScreenshot, cur.AfterScreenshot

	updated, err := s.store.Update(ctx, tradeID, journal.Patch{Trade: rec})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(cacheKey(userID, accountID))
	s.log.Info().Str("trade_id", tradeID).Str("account", accountID).Msg("trade updated")

	return s.attach(ctx, updated, d), nil
}

// Delete removes a trade owned by the user.
func (s *Service) Delete(ctx context.Context, userID, accountID, tradeID string) error {
	if _, err := s.Get(ctx, userID, accountID, tradeID); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, tradeID); err != nil {
		return err
	}
	s.cache.Invalidate(cacheKey(userID, accountID))
	s.log.Info().Str("trade_id", tradeID).Str("account", accountID).Msg("trade deleted")
	return nil
}

// Get returns a trade only when it belongs to the user's account.
func (s *Service) Get(ctx context.Context, userID, accountID, tradeID string) (*journal.TradeRecord, error) {
	if !id.Valid(tradeID) {
		return nil, journal.Fail("get", tradeID, ErrNotFound)
	}
	rec, err := s.store.Get(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID || rec.AccountID != accountID {
		return nil, journal.Fail("get", tradeID, ErrNotFound)
	}
	return rec, nil
}

// List returns an account's trades in date order.
func (s *Service) List(ctx context.Context, userID, accountID string) ([]journal.TradeRecord, error) {
	if _, err := s.Account(accountID); err != nil {
		return nil, err
	}
	return s.store.List(ctx, userID, accountID)
}

// Recent returns at most n trades, newest first.
func (s *Service) Recent(ctx context.Context, userID, accountID string, n int) ([]journal.TradeRecord, error) {
	recs, err := s.List(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	return journal.Newest(recs, n), nil
}

// build turns a draft into a record ready to store. keptAfter is the
// after-screenshot URL already on the record, if any.
func (s *Service) build(acct Account, d Draft, keptAfter string) (*journal.TradeRecord, error) {
	in := withCapital(d.Input, acct)
	in.Symbol = strings.TrimSpace(in.Symbol)

	v := &risk.ValidationError{}
	if err := risk.Validate(in); err != nil {
		var ve *risk.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		v.Violations = append(v.Violations, ve.Violations...)
	}

	closed := in.Status == risk.Closed
	if d.Date.IsZero() {
		v.Add("date", risk.CodeRequired, "trade date is required")
	}
	duration := d.Duration
	switch duration {
	case "":
		duration = journal.Day
	case journal.Day, journal.Swing:
	default:
		v.Add("duration", risk.CodeInvalid, "duration must be day or swing")
	}
	if closed && duration == journal.Swing && d.ExitDate.IsZero() {
		v.Add("exit_date", risk.CodeRequired, "exit date is required for a closed swing trade")
	}
	if closed && s.requireAfter && keptAfter == "" {
		switch {
		case d.After == nil:
			v.Add("after_screenshot", risk.CodeRequired, "after-trade screenshot is required")
		case s.uploader == nil:
			// The image would be dropped, leaving a closed trade without one.
			v.Add("after_screenshot", risk.CodeRequired, "after-trade screenshot is required but screenshot storage is disabled")
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	res := s.calc.Calculate(in)
	if err := computable(res); err != nil {
		return nil, err
	}
	in.Symbol = res.Symbol
	pnl, ok := res.RealizedPnL.Get()
	if closed && !ok {
		v.Add("realized_pnl", risk.CodeRequired, "realized P&L could not be computed: "+issueMsg(res, risk.FieldRealizedPnL))
		return nil, v
	}

	rec := &journal.TradeRecord{
		Date:     day(d.Date),
		Duration: duration,
		Input:    in,
		Derived:  res,
		Setup:    strings.TrimSpace(d.Setup),
		Notes:    d.Notes,
	}
	switch duration {
	case journal.Day:
		rec.EntryDate = rec.Date
		if closed {
			rec.ExitDate = rec.Date
		}
	case journal.Swing:
		rec.EntryDate = rec.Date
		if !d.EntryDate.IsZero() {
			rec.EntryDate = day(d.EntryDate)
		}
		if closed {
			rec.ExitDate = day(d.ExitDate)
		}
	}
	if closed {
		rec.Outcome = risk.OutcomeFor(pnl)
	}
	return rec, nil
}

// attach uploads the draft's screenshots and patches their URLs. A failed
// upload stores an empty URL.
func (s *Service) attach(ctx context.Context, rec *journal.TradeRecord, d Draft) *Saved {
	out := &Saved{Record: rec}
	if d.Before == nil && d.After == nil {
		return out
	}
	if s.uploader == nil {
		out.Warnings = append(out.Warnings, "screenshot storage is disabled; images were not saved")
		return out
	}

	var p journal.Patch
	if d.Before != nil {
		url := s.upload(ctx, rec, screenshot.Before, d.Before, out)
		p.BeforeScreenshot = &url
	}
	if d.After != nil {
		url := s.upload(ctx, rec, screenshot.After, d.After, out)
		p.AfterScreenshot = &url
	}

	patched, err := s.store.Update(ctx, rec.ID, p)
	if err != nil {
		s.log.Error().Err(err).Str("trade_id", rec.ID).Msg("screenshot URL update failed")
		out.Warnings = append(out.Warnings, fmt.Sprintf("screenshot URLs were not saved: %v", err))
		return out
	}
	out.Record = patched
	return out
}

func (s *Service) upload(ctx context.Context, rec *journal.TradeRecord, kind screenshot.Kind, img *Image, out *Saved) string {
	key := screenshot.Key(rec.UserID, rec.ID, kind, img.Filename)
	ct := img.ContentType
	if ct == "" {
		ct = screenshot.ContentType(key)
	}
	url, err := s.uploader.Upload(ctx, key, img.Body, ct)
	if err != nil {
		s.log.Warn().Err(err).Str("trade_id", rec.ID).Str("kind", string(kind)).Msg("screenshot upload failed")
		out.Warnings = append(out.Warnings, fmt.Sprintf("%s screenshot upload failed: %v", kind, err))
		return ""
	}
	return url
}

func issueMsg(r risk.Result, field string) string {
	if is, ok := r.IssueFor(field); ok {
		return is.Msg
	}
	return "missing inputs"
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
