package ledger

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/bursar/internal/id"
	"github.com/cleared-dev/bursar/internal/logger"
	"github.com/cleared-dev/bursar/internal/model"
)

// Service is the posting store. It validates every write against the chart
// of accounts, commits it to the backend, and then swaps an immutable
// snapshot so readers observe either the state before or after a write.
type Service struct {
	mu       sync.RWMutex
	backend  Backend
	accounts AccountChecker
	postings []model.Posting // replaced, never modified in place
	log      *zap.SugaredLogger
}

// NewService loads existing postings from backend and returns a Service.
func NewService(backend Backend, accounts AccountChecker) (*Service, error) {
	postings, err := backend.LoadPostings()
	if err != nil {
		return nil, fmt.Errorf("loading postings: %w", err)
	}
	return &Service{
		backend:  backend,
		accounts: accounts,
		postings: postings,
		log:      logger.Named("ledger"),
	}, nil
}

// Record validates a single posting and appends it. The caller chooses the
// status. An empty VoucherNo is assigned the next number for the posting's
// month; a VoucherNo already in use adds the posting to that voucher.
func (s *Service) Record(p model.Posting) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.prepare([]model.Posting{p}, p.VoucherNo)
	if err != nil {
		return "", err
	}
	if err := s.backend.InsertPostings(lines); err != nil {
		return "", fmt.Errorf("inserting posting: %w", err)
	}
	s.postings = append(slices.Clip(s.postings), lines...)

	s.log.Infow("posting recorded",
		"posting_id", lines[0].ID,
		"voucher_no", lines[0].VoucherNo,
		"status", lines[0].Status,
		"amount", lines[0].Amount.String(),
	)
	return lines[0].ID, nil
}

// RecordVoucher records 1..N lines as one new voucher in a single commit.
// Every line must carry the same VoucherNo or leave it empty.
func (s *Service) RecordVoucher(lines []model.Posting) (string, []string, error) {
	if len(lines) == 0 {
		return "", nil, fmt.Errorf("%w: voucher has no lines", ErrInvalidPosting)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	voucherNo, err := commonVoucherNo(lines)
	if err != nil {
		return "", nil, err
	}
	if voucherNo != "" && s.hasVoucher(voucherNo) {
		return "", nil, ValidationErrors{{
			Invariant:   7,
			Ref:         voucherNo,
			Description: "voucher number already in use",
		}}
	}

	prepared, err := s.prepare(lines, voucherNo)
	if err != nil {
		return "", nil, err
	}
	if err := s.backend.InsertPostings(prepared); err != nil {
		return "", nil, fmt.Errorf("inserting voucher: %w", err)
	}
	s.postings = append(slices.Clip(s.postings), prepared...)

	ids := postingIDs(prepared)
	s.log.Infow("voucher recorded", "voucher_no", prepared[0].VoucherNo, "lines", len(prepared))
	return prepared[0].VoucherNo, ids, nil
}

// ReplaceVoucher removes every line of voucherNo and records lines under the
// same number in one commit, at the voucher's old position in store order.
// Readers never see the voucher with zero lines.
func (s *Service) ReplaceVoucher(voucherNo string, lines []model.Posting) ([]string, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: replacement for %s has no lines", ErrInvalidPosting, voucherNo)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasVoucher(voucherNo) {
		return nil, fmt.Errorf("%w: %s", ErrVoucherNotFound, voucherNo)
	}
	for _, l := range lines {
		if l.VoucherNo != "" && l.VoucherNo != voucherNo {
			return nil, ValidationErrors{{
				Invariant:   7,
				Ref:         l.VoucherNo,
				Description: fmt.Sprintf("line belongs to voucher %s, not %s", l.VoucherNo, voucherNo),
			}}
		}
	}

	// Replacement lines get fresh IDs unless they reuse one from the old voucher.
	old := make(map[string]bool)
	for _, p := range s.postings {
		if p.VoucherNo == voucherNo {
			old[p.ID] = true
		}
	}
	remaining := withoutVoucher(s.postings, voucherNo)

	prepared, err := prepareLines(lines, voucherNo, remaining, s.accounts, old)
	if err != nil {
		return nil, err
	}
	if err := s.backend.ReplaceVoucher(voucherNo, prepared); err != nil {
		return nil, fmt.Errorf("replacing voucher %s: %w", voucherNo, err)
	}
	s.postings = spliceVoucher(s.postings, voucherNo, prepared)

	s.log.Infow("voucher replaced", "voucher_no", voucherNo, "old_lines", len(old), "new_lines", len(prepared))
	return postingIDs(prepared), nil
}

// UpdateStatus moves every listed posting from one status to another in one
// commit. It refuses the whole batch if any posting is missing or not in from.
func (s *Service) UpdateStatus(ids []string, from, to model.Status) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPosting, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.index()
	for _, pid := range ids {
		p, ok := byID[pid]
		if !ok {
			return fmt.Errorf("%w: %s", ErrPostingNotFound, pid)
		}
		if p.Status != from {
			return fmt.Errorf("%w: posting %s is %s, not %s", ErrStatusMismatch, pid, p.Status, from)
		}
	}
	if err := s.backend.SetStatus(ids, to); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	s.postings = withStatus(s.postings, ids, to)

	s.log.Infow("status updated", "postings", len(ids), "from", from, "to", to)
	return nil
}

// DeleteVoucher permanently removes every line of voucherNo.
func (s *Service) DeleteVoucher(voucherNo string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := withoutVoucher(s.postings, voucherNo)
	n := len(s.postings) - len(remaining)
	if n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrVoucherNotFound, voucherNo)
	}
	if err := s.backend.DeleteVoucher(voucherNo); err != nil {
		return 0, fmt.Errorf("deleting voucher %s: %w", voucherNo, err)
	}
	s.postings = remaining

	s.log.Infow("voucher deleted", "voucher_no", voucherNo, "lines", n)
	return n, nil
}

// Snapshot returns every posting, in any status, in store order.
func (s *Service) Snapshot() []model.Posting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.postings)
}

// Get returns a posting by ID.
func (s *Service) Get(postingID string) (model.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.postings {
		if p.ID == postingID {
			return p, nil
		}
	}
	return model.Posting{}, fmt.Errorf("%w: %s", ErrPostingNotFound, postingID)
}

// ByVoucher returns the lines sharing voucherNo in store order.
func (s *Service) ByVoucher(voucherNo string) ([]model.Posting, error) {
	lines := s.filter(func(p model.Posting) bool { return p.VoucherNo == voucherNo })
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrVoucherNotFound, voucherNo)
	}
	return lines, nil
}

// InRange returns postings dated in [from, to]. A zero bound is open.
func (s *Service) InRange(from, to time.Time) []model.Posting {
	return s.filter(func(p model.Posting) bool { return model.InWindow(p.Date, from, to) })
}

// Matching returns postings whose debit or credit account satisfies pred.
func (s *Service) Matching(pred func(code string) bool) []model.Posting {
	return s.filter(func(p model.Posting) bool { return pred(p.DebitAccount) || pred(p.CreditAccount) })
}

// WithStatus returns postings in any of the given statuses.
func (s *Service) WithStatus(statuses ...model.Status) []model.Posting {
	return s.filter(func(p model.Posting) bool { return slices.Contains(statuses, p.Status) })
}

// NextVoucherNo returns the next sequential voucher number for date's month.
func (s *Service) NextVoucherNo(date time.Time) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return nextVoucherNo(s.postings, date)
}

func (s *Service) filter(keep func(model.Posting) bool) []model.Posting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Posting
	for _, p := range s.postings {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) hasVoucher(voucherNo string) bool {
	for _, p := range s.postings {
		if p.VoucherNo == voucherNo {
			return true
		}
	}
	return false
}

func (s *Service) index() map[string]model.Posting {
	byID := make(map[string]model.Posting, len(s.postings))
	for _, p := range s.postings {
		byID[p.ID] = p
	}
	return byID
}

// prepare normalizes and validates lines against the current snapshot.
func (s *Service) prepare(lines []model.Posting, voucherNo string) ([]model.Posting, error) {
	return prepareLines(lines, voucherNo, s.postings, s.accounts, nil)
}

// prepareLines assigns dates, IDs and the voucher number, then validates
// every line. reusable lists IDs that may be kept even though they are not
// in existing.
func prepareLines(lines []model.Posting, voucherNo string, existing []model.Posting, chart AccountChecker, reusable map[string]bool) ([]model.Posting, error) {
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.ID] = true
	}

	out := make([]model.Posting, len(lines))
	var verrs ValidationErrors
	for i, l := range lines {
		l.Date = model.Truncate(l.Date)
		if l.ID == "" || (!reusable[l.ID] && reusable != nil) {
			l.ID = id.New()
		}
		if taken[l.ID] {
			verrs = append(verrs, ValidationError{
				Invariant:   7,
				Ref:         l.ID,
				Description: "posting ID already in use",
			})
		}
		taken[l.ID] = true
		out[i] = l
	}

	if voucherNo == "" && !out[0].Date.IsZero() {
		voucherNo = nextVoucherNo(existing, out[0].Date)
	}
	for i := range out {
		out[i].VoucherNo = voucherNo
		verrs = append(verrs, ValidatePosting(out[i], chart)...)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}
	return out, nil
}

// commonVoucherNo returns the single non-empty voucher number of lines.
func commonVoucherNo(lines []model.Posting) (string, error) {
	var voucherNo string
	for _, l := range lines {
		if l.VoucherNo == "" {
			continue
		}
		if voucherNo != "" && l.VoucherNo != voucherNo {
			return "", ValidationErrors{{
				Invariant:   7,
				Ref:         l.VoucherNo,
				Description: fmt.Sprintf("lines disagree on voucher number (%s vs %s)", voucherNo, l.VoucherNo),
			}}
		}
		voucherNo = l.VoucherNo
	}
	return voucherNo, nil
}

func nextVoucherNo(postings []model.Posting, date time.Time) string {
	maxSeq := 0
	for _, p := range postings {
		year, month, seq, err := id.ParseVoucherNo(p.VoucherNo)
		if err != nil {
			continue
		}
		if year == date.Year() && month == int(date.Month()) && seq > maxSeq {
			maxSeq = seq
		}
	}
	return id.FormatVoucherNo(date.Year(), int(date.Month()), maxSeq+1)
}

func postingIDs(lines []model.Posting) []string {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	return ids
}
