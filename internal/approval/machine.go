// Package approval governs which postings are authoritative and how they are
// approved, rejected, edited and deleted.
//
//	Pending  --Approve-->   Posted
//	Pending  --Reject|Delete--> Rejected (record kept)
//	Rejected --ReApprove--> Posted
//	Posted   --RequestDelete--> DeletePending
//	DeletePending --ConfirmDelete--> destroyed (whole voucher)
//	Posted | DeletePending --Delete--> destroyed (privileged only)
//
// Any other move is refused.
package approval

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/cleared-dev/bursar/internal/ledger"
	"github.com/cleared-dev/bursar/internal/logger"
	"github.com/cleared-dev/bursar/internal/model"
)

var (
	// ErrInvalidTransition is returned for any move not allowed from the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrPermission is returned when the actor lacks the capability for a move.
	// It also matches ErrInvalidTransition.
	ErrPermission = fmt.Errorf("%w: permission denied", ErrInvalidTransition)
)

// Store is the subset of the posting store the state machine drives.
type Store interface {
	Get(postingID string) (model.Posting, error)
	ByVoucher(voucherNo string) ([]model.Posting, error)
	WithStatus(statuses ...model.Status) []model.Posting
	UpdateStatus(ids []string, from, to model.Status) error
	ReplaceVoucher(voucherNo string, lines []model.Posting) ([]string, error)
	DeleteVoucher(voucherNo string) (int, error)
}

// Service applies approval transitions to a Store.
type Service struct {
	store Store
	now   func() time.Time
	log   *zap.SugaredLogger
}

// NewService creates an approval Service. now supplies today's date for
// the same-day edit rule; nil means time.Now.
func NewService(store Store, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, now: now, log: logger.Named("approval")}
}

// Approve moves a pending posting into the authoritative ledger.
func (s *Service) Approve(actor Actor, postingID string) error {
	if !actor.Caps.CanApprove {
		return s.deny(actor, "approve", postingID)
	}
	return s.move(actor, postingID, model.StatusPending, model.StatusPosted)
}

// Reject sets a pending posting aside without destroying it.
func (s *Service) Reject(actor Actor, postingID string) error {
	if !actor.Caps.CanApprove {
		return s.deny(actor, "reject", postingID)
	}
	return s.move(actor, postingID, model.StatusPending, model.StatusRejected)
}

// ReApprove reverses a rejection.
func (s *Service) ReApprove(actor Actor, postingID string) error {
	if !actor.Caps.CanApprove {
		return s.deny(actor, "re-approve", postingID)
	}
	return s.move(actor, postingID, model.StatusRejected, model.StatusPosted)
}

// RequestDelete flags every line of a posted voucher for deletion. The lines
// stay in balances until a privileged actor confirms.
func (s *Service) RequestDelete(actor Actor, voucherNo string) error {
	if !actor.Caps.CanRequestDelete {
		return s.deny(actor, "request delete", voucherNo)
	}
	lines, err := s.store.ByVoucher(voucherNo)
	if err != nil {
		return err
	}
	if err := requireStatus(lines, model.StatusPosted); err != nil {
		return err
	}
	if err := s.store.UpdateStatus(lineIDs(lines), model.StatusPosted, model.StatusDeletePending); err != nil {
		return mapStoreErr(err)
	}
	s.logTransition(actor, voucherNo, model.StatusPosted, model.StatusDeletePending)
	return nil
}

// ConfirmDelete permanently removes a voucher whose deletion was requested.
func (s *Service) ConfirmDelete(actor Actor, voucherNo string) (int, error) {
	if !actor.Caps.CanDeleteAny {
		return 0, s.deny(actor, "confirm delete", voucherNo)
	}
	lines, err := s.store.ByVoucher(voucherNo)
	if err != nil {
		return 0, err
	}
	if !slices.ContainsFunc(lines, func(p model.Posting) bool { return p.Status == model.StatusDeletePending }) {
		return 0, fmt.Errorf("%w: voucher %s has no pending delete request", ErrInvalidTransition, voucherNo)
	}
	return s.destroy(actor, voucherNo, lines)
}

// Delete removes a voucher. A voucher whose lines are all pending is
// rejected instead and the record kept; this needs CanApprove and reports
// zero lines destroyed. A live voucher (Posted or DeletePending) is destroyed
// without the request step, which needs CanDeleteAny.
func (s *Service) Delete(actor Actor, voucherNo string) (int, error) {
	lines, err := s.store.ByVoucher(voucherNo)
	if err != nil {
		return 0, err
	}
	if allStatus(lines, model.StatusPending) {
		if !actor.Caps.CanApprove {
			return 0, s.deny(actor, "reject", voucherNo)
		}
		if err := s.store.UpdateStatus(lineIDs(lines), model.StatusPending, model.StatusRejected); err != nil {
			return 0, mapStoreErr(err)
		}
		s.logTransition(actor, voucherNo, model.StatusPending, model.StatusRejected)
		return 0, nil
	}
	if !actor.Caps.CanDeleteAny {
		return 0, s.deny(actor, "delete", voucherNo)
	}
	for _, l := range lines {
		if !l.Status.Authoritative() {
			return 0, fmt.Errorf("%w: posting %s is %s", ErrInvalidTransition, l.ID, l.Status)
		}
	}
	return s.destroy(actor, voucherNo, lines)
}

// Edit replaces a posted voucher with new lines in one atomic step. Actors
// without CanEditAny may only edit vouchers dated today, into lines dated today.
func (s *Service) Edit(actor Actor, voucherNo string, lines []model.Posting) ([]string, error) {
	if !actor.Caps.CanEditAny && !actor.Caps.CanRequestDelete {
		return nil, s.deny(actor, "edit", voucherNo)
	}
	existing, err := s.store.ByVoucher(voucherNo)
	if err != nil {
		return nil, err
	}
	if err := requireStatus(existing, model.StatusPosted); err != nil {
		return nil, err
	}
	if !actor.Caps.CanEditAny {
		today := model.Truncate(s.now())
		for _, l := range append(slices.Clone(existing), lines...) {
			if !model.Truncate(l.Date).Equal(today) {
				return nil, fmt.Errorf("%w: %s may only edit postings dated %s (voucher %s)",
					ErrPermission, actor.Role, today.Format("2006-01-02"), voucherNo)
			}
		}
	}

	edited := make([]model.Posting, len(lines))
	for i, l := range lines {
		l.Status = model.StatusPosted
		l.VoucherNo = voucherNo
		edited[i] = l
	}
	ids, err := s.store.ReplaceVoucher(voucherNo, edited)
	if err != nil {
		return nil, err
	}
	s.log.Infow("voucher edited", "actor", actor.Name, "role", actor.Role, "voucher_no", voucherNo, "lines", len(ids))
	return ids, nil
}

// Queue lists postings awaiting review for the approvals screen.
type Queue struct {
	Pending       []model.Posting
	Rejected      []model.Posting
	DeletePending []model.Posting
}

// Queue returns the current pending, rejected and delete-pending postings,
// each ordered by date then voucher number.
func (s *Service) Queue() Queue {
	all := s.store.WithStatus(model.StatusPending, model.StatusRejected, model.StatusDeletePending)
	slices.SortStableFunc(all, func(a, b model.Posting) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		switch {
		case a.VoucherNo < b.VoucherNo:
			return -1
		case a.VoucherNo > b.VoucherNo:
			return 1
		}
		return 0
	})

	var q Queue
	for _, p := range all {
		switch p.Status {
		case model.StatusPending:
			q.Pending = append(q.Pending, p)
		case model.StatusRejected:
			q.Rejected = append(q.Rejected, p)
		case model.StatusDeletePending:
			q.DeletePending = append(q.DeletePending, p)
		}
	}
	return q
}

func (s *Service) move(actor Actor, postingID string, from, to model.Status) error {
	p, err := s.store.Get(postingID)
	if err != nil {
		return err
	}
	if p.Status != from {
		return fmt.Errorf("%w: posting %s is %s, cannot move to %s", ErrInvalidTransition, postingID, p.Status, to)
	}
	if err := s.store.UpdateStatus([]string{postingID}, from, to); err != nil {
		return mapStoreErr(err)
	}
	s.logTransition(actor, p.VoucherNo, from, to)
	return nil
}

func (s *Service) destroy(actor Actor, voucherNo string, lines []model.Posting) (int, error) {
	n, err := s.store.DeleteVoucher(voucherNo)
	if err != nil {
		return 0, err
	}
	s.log.Infow("voucher destroyed", "actor", actor.Name, "role", actor.Role, "voucher_no", voucherNo, "lines", len(lines))
	return n, nil
}

func (s *Service) deny(actor Actor, action, ref string) error {
	s.log.Warnw("transition denied", "actor", actor.Name, "role", actor.Role, "action", action, "ref", ref)
	return fmt.Errorf("%w: %s cannot %s %s", ErrPermission, roleName(actor), action, ref)
}

func (s *Service) logTransition(actor Actor, voucherNo string, from, to model.Status) {
	s.log.Infow("transition", "actor", actor.Name, "role", actor.Role, "voucher_no", voucherNo, "from", from, "to", to)
}

func roleName(a Actor) string {
	if a.Role == "" {
		return "actor without role"
	}
	return string(a.Role)
}

func allStatus(lines []model.Posting, want model.Status) bool {
	for _, l := range lines {
		if l.Status != want {
			return false
		}
	}
	return len(lines) > 0
}

func requireStatus(lines []model.Posting, want model.Status) error {
	for _, l := range lines {
		if l.Status != want {
			return fmt.Errorf("%w: posting %s is %s, expected %s", ErrInvalidTransition, l.ID, l.Status, want)
		}
	}
	return nil
}

// mapStoreErr turns a lost compare-and-set into a transition error.
func mapStoreErr(err error) error {
	if errors.Is(err, ledger.ErrStatusMismatch) {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return err
}

func lineIDs(lines []model.Posting) []string {
	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	return ids
}
