package ledger

import (
	"slices"
	"sync"

	"github.com/cleared-dev/bursar/internal/model"
)

// Backend persists postings. Every method is a single atomic commit:
// either all lines are applied or none are.
type Backend interface {
	LoadPostings() ([]model.Posting, error)
	InsertPostings(lines []model.Posting) error
	ReplaceVoucher(voucherNo string, lines []model.Posting) error
	SetStatus(ids []string, status model.Status) error
	DeleteVoucher(voucherNo string) error
}

// MemoryBackend keeps postings in process memory.
type MemoryBackend struct {
	mu       sync.Mutex
	postings []model.Posting
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) LoadPostings() ([]model.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.postings), nil
}

func (m *MemoryBackend) InsertPostings(lines []model.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = append(m.postings, lines...)
	return nil
}

func (m *MemoryBackend) ReplaceVoucher(voucherNo string, lines []model.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = spliceVoucher(m.postings, voucherNo, lines)
	return nil
}

func (m *MemoryBackend) SetStatus(ids []string, status model.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = withStatus(m.postings, ids, status)
	return nil
}

func (m *MemoryBackend) DeleteVoucher(voucherNo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = withoutVoucher(m.postings, voucherNo)
	return nil
}

// withoutVoucher returns a new slice without the voucher's lines.
func withoutVoucher(postings []model.Posting, voucherNo string) []model.Posting {
	out := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if p.VoucherNo != voucherNo {
			out = append(out, p)
		}
	}
	return out
}

// spliceVoucher returns a new slice with the voucher's lines replaced by lines,
// placed where the voucher's first line was. A voucher not present is appended.
func spliceVoucher(postings []model.Posting, voucherNo string, lines []model.Posting) []model.Posting {
	out := make([]model.Posting, 0, len(postings)+len(lines))
	placed := false
	for _, p := range postings {
		if p.VoucherNo != voucherNo {
			out = append(out, p)
			continue
		}
		if !placed {
			out = append(out, lines...)
			placed = true
		}
	}
	if !placed {
		out = append(out, lines...)
	}
	return out
}

// withStatus returns a new slice with the listed postings moved to status.
func withStatus(postings []model.Posting, ids []string, status model.Status) []model.Posting {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	out := slices.Clone(postings)
	for i := range out {
		if set[out[i].ID] {
			out[i].Status = status
		}
	}
	return out
}
