package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bursar/internal/accounts"
	"github.com/cleared-dev/bursar/internal/budget"
	"github.com/cleared-dev/bursar/internal/ledger"
	"github.com/cleared-dev/bursar/internal/model"
)

var (
	_ ledger.Backend    = (*SQLiteRepository)(nil)
	_ budget.Repository = (*SQLiteRepository)(nil)
)

var chart = accounts.NewService(accounts.DefaultChart(accounts.DefaultLiquidRule))

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "bursar.db")
	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestPostingsRoundTrip(t *testing.T) {
	repo, path := openRepo(t)
	store, err := ledger.NewService(repo, chart)
	require.NoError(t, err)

	voucherNo, ids, err := store.RecordVoucher([]model.Posting{
		{
			DebitAccount: "1-01-001", CreditAccount: "4-01-001", Amount: dec("1500.50"),
			Date: model.Day(2025, time.March, 2), Status: model.StatusPosted, Type: model.TypeFeeReceipt,
			StudentID: "S-17", Department: "Academics", Description: "Term 1", ChequeNo: "",
			Details: []model.DetailLine{{Head: "Tuition", Amount: dec("1000.50")}, {Head: "Library", Amount: dec("500")}},
		},
		{
			DebitAccount: "1-01-001", CreditAccount: "4-01-002", Amount: dec("200"),
			Date: model.Day(2025, time.March, 2), Status: model.StatusPosted,
		},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	require.NoError(t, repo.Close())
	reopened, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadPostings()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	p := loaded[0]
	assert.Equal(t, ids[0], p.ID)
	assert.Equal(t, voucherNo, p.VoucherNo)
	assert.Equal(t, model.Day(2025, time.March, 2), p.Date)
	assert.True(t, dec("1500.50").Equal(p.Amount))
	assert.Equal(t, model.StatusPosted, p.Status)
	assert.Equal(t, "S-17", p.StudentID)
	require.Len(t, p.Details, 2)
	assert.Equal(t, "Tuition", p.Details[0].Head)
	assert.True(t, dec("1000.50").Equal(p.Details[0].Amount))
	assert.Empty(t, loaded[1].Details)
}

func TestReplaceAndDeleteVoucher(t *testing.T) {
	repo, _ := openRepo(t)
	store, err := ledger.NewService(repo, chart)
	require.NoError(t, err)

	first, err := store.Record(model.Posting{DebitAccount: "5-01-001", CreditAccount: "1-01-001", Amount: dec("100"),
		Date: model.Day(2025, time.March, 2), Status: model.StatusPosted})
	require.NoError(t, err)
	p, err := store.Get(first)
	require.NoError(t, err)
	_, err = store.Record(model.Posting{DebitAccount: "5-01-002", CreditAccount: "1-01-001", Amount: dec("40"),
		Date: model.Day(2025, time.March, 3), Status: model.StatusPosted})
	require.NoError(t, err)

	_, err = store.ReplaceVoucher(p.VoucherNo, []model.Posting{
		{ID: first, DebitAccount: "5-01-001", CreditAccount: "1-01-001", Amount: dec("60"), Date: p.Date, Status: model.StatusPosted},
		{DebitAccount: "5-01-003", CreditAccount: "1-01-001", Amount: dec("40"), Date: p.Date, Status: model.StatusPosted},
	})
	require.NoError(t, err)

	loaded, err := repo.LoadPostings()
	require.NoError(t, err)
	require.Len(t, loaded, 3)
	snapshot := store.Snapshot()
	for i := range loaded {
		assert.Equal(t, snapshot[i].ID, loaded[i].ID, "backend and snapshot agree on order")
		assert.True(t, snapshot[i].Amount.Equal(loaded[i].Amount))
	}
	assert.Equal(t, first, loaded[0].ID, "edited voucher keeps its place")
	assert.Equal(t, p.VoucherNo, loaded[1].VoucherNo)
	assert.NotEqual(t, p.VoucherNo, loaded[2].VoucherNo)

	require.NoError(t, store.UpdateStatus([]string{first}, model.StatusPosted, model.StatusDeletePending))
	loaded, err = repo.LoadPostings()
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeletePending, loaded[0].Status)

	n, err := store.DeleteVoucher(p.VoucherNo)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	loaded, err = repo.LoadPostings()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
}

func TestReplaceVoucher_PositionSurvivesReopen(t *testing.T) {
	repo, path := openRepo(t)
	line := func(no, debit, amount string) model.Posting {
		return model.Posting{
			ID: no + "/" + debit, VoucherNo: no, Date: model.Day(2025, time.March, 5),
			DebitAccount: debit, CreditAccount: "1-01-001", Amount: dec(amount), Status: model.StatusPosted,
		}
	}
	require.NoError(t, repo.InsertPostings([]model.Posting{line("2025-03-001", "5-01-001", "10")}))
	require.NoError(t, repo.InsertPostings([]model.Posting{line("2025-03-002", "5-01-002", "20")}))
	require.NoError(t, repo.InsertPostings([]model.Posting{line("2025-03-003", "5-01-003", "30")}))

	require.NoError(t, repo.ReplaceVoucher("2025-03-002", []model.Posting{
		line("2025-03-002", "5-01-001", "5"),
		line("2025-03-002", "5-01-002", "15"),
	}))
	require.NoError(t, repo.ReplaceVoucher("2025-03-002", []model.Posting{
		line("2025-03-002", "5-01-003", "20"),
		line("2025-03-002", "5-01-002", "1"),
	}))
	require.NoError(t, repo.InsertPostings([]model.Posting{line("2025-03-004", "5-01-001", "40")}))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	loaded, err := reopened.LoadPostings()
	require.NoError(t, err)
	var got []string
	for _, p := range loaded {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{
		"2025-03-001/5-01-001",
		"2025-03-002/5-01-003",
		"2025-03-002/5-01-002",
		"2025-03-003/5-01-003",
		"2025-03-004/5-01-001",
	}, got)
}

func TestSetStatus_AllOrNothing(t *testing.T) {
	repo, _ := openRepo(t)
	require.NoError(t, repo.InsertPostings([]model.Posting{{
		ID: "a", VoucherNo: "2025-03-001", Date: model.Day(2025, time.March, 1),
		DebitAccount: "5-01-001", CreditAccount: "1-01-001", Amount: dec("1"), Status: model.StatusPending,
	}}))

	err := repo.SetStatus([]string{"a", "missing"}, model.StatusPosted)
	require.Error(t, err)

	loaded, err := repo.LoadPostings()
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, loaded[0].Status)
}

func TestInsertPostings_RejectsDuplicateIDs(t *testing.T) {
	repo, _ := openRepo(t)
	p := model.Posting{
		ID: "dup", VoucherNo: "2025-03-001", Date: model.Day(2025, time.March, 1),
		DebitAccount: "5-01-001", CreditAccount: "1-01-001", Amount: dec("1"), Status: model.StatusPosted,
	}
	require.Error(t, repo.InsertPostings([]model.Posting{p, p}))

	loaded, err := repo.LoadPostings()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestBudgets(t *testing.T) {
	repo, _ := openRepo(t)
	store, err := ledger.NewService(repo, chart)
	require.NoError(t, err)
	svc := budget.NewService(repo, store, chart, budget.DefaultPolicy)

	b, err := svc.Create(2025, "Academics", dec("100000"))
	require.NoError(t, err)
	_, err = svc.Create(2024, "Sports", dec("1200"))
	require.NoError(t, err)

	_, err = repo.GetBudget("missing")
	assert.ErrorIs(t, err, budget.ErrBudgetNotFound)

	got, err := repo.GetBudget(b.ID)
	require.NoError(t, err)
	require.Len(t, got.Allocations, 12)
	assert.True(t, dec("8337").Equal(got.Allocated(time.December)))

	_, err = svc.Reallocate(b.ID, time.June, dec("0"))
	require.NoError(t, err)
	got, err = repo.GetBudget(b.ID)
	require.NoError(t, err)
	assert.True(t, dec("91667").Equal(got.TotalBudget))

	err = repo.CreateBudget(model.Budget{ID: "other", Year: 2025, Department: "ACADEMICS", TotalBudget: dec("1")})
	assert.ErrorIs(t, err, budget.ErrInvalidBudget)

	all, err := repo.ListBudgets(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 2024, all[0].Year)
	assert.Len(t, all[1].Allocations, 12)

	require.NoError(t, svc.Delete(b.ID))
	assert.ErrorIs(t, repo.DeleteBudget(b.ID), budget.ErrBudgetNotFound)
	assert.ErrorIs(t, repo.UpdateBudget(b), budget.ErrBudgetNotFound)
}
