package report

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/bursar/internal/accounts"
	"github.com/cleared-dev/bursar/internal/balance"
	"github.com/cleared-dev/bursar/internal/ledger"
	"github.com/cleared-dev/bursar/internal/model"
)

var chart = accounts.NewService(accounts.DefaultChart(accounts.DefaultLiquidRule))

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(m time.Month, d int) time.Time { return model.Day(2025, m, d) }

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

type fixture struct {
	store *ledger.Service
	gen   *Generator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := ledger.NewService(ledger.NewMemoryBackend(), chart)
	require.NoError(t, err)
	return fixture{store: store, gen: NewGenerator(chart, store)}
}

func (f fixture) post(t *testing.T, p model.Posting) string {
	t.Helper()
	if p.Status == "" {
		p.Status = model.StatusPosted
	}
	postingID, err := f.store.Record(p)
	require.NoError(t, err)
	return postingID
}

func entry(debit, credit, amount string, d time.Time) model.Posting {
	return model.Posting{DebitAccount: debit, CreditAccount: credit, Amount: dec(amount), Date: d}
}

// seed books a small month of school activity.
func seed(t *testing.T, f fixture) {
	t.Helper()
	f.post(t, entry("1-01-002", "3-01-001", "100000", day(time.January, 1)))
	f.post(t, entry("1-01-004", "4-01-001", "12000", day(time.March, 1)))
	f.post(t, entry("1-01-001", "1-01-004", "8000", day(time.March, 5)))
	f.post(t, entry("5-01-001", "1-01-001", "5000", day(time.March, 10)))
	f.post(t, entry("5-02-001", "1-01-002", "30000", day(time.March, 28)))
	f.post(t, entry("1-02-001", "2-01-001", "15000", day(time.March, 30)))
}

func TestTrialBalance(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	f.post(t, model.Posting{DebitAccount: "5-01-002", CreditAccount: "1-01-001", Amount: dec("999"), Date: day(time.March, 11), Status: model.StatusPending})

	tb := f.gen.TrialBalance(day(time.March, 31))
	assert.True(t, tb.Balanced())
	assertDec(t, "127000", tb.TotalDebit)

	byCode := map[string]TrialBalanceRow{}
	for _, r := range tb.Rows {
		byCode[r.Code] = r
	}
	assertDec(t, "3000", byCode["1-01-001"].Debit)
	assertDec(t, "12000", byCode["4-01-001"].Credit)
	assertDec(t, "0", byCode["4-01-001"].Debit)
	assert.NotContains(t, byCode, "5-01-002", "pending posting excluded")
	assert.NotContains(t, byCode, "1-01-003", "zero balance excluded")
}

func TestTrialBalance_AsOf(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	tb := f.gen.TrialBalance(day(time.February, 28))
	require.Len(t, tb.Rows, 2)
	assert.True(t, tb.Balanced())
}

func TestIncomeStatement(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	f.post(t, entry("1-01-002", "4-02-001", "500", day(time.April, 2)))

	is := f.gen.IncomeStatement(day(time.March, 1), day(time.March, 31))
	assertDec(t, "12000", is.Income.Total)
	assertDec(t, "35000", is.Expense.Total)
	assertDec(t, "-23000", is.NetResult)
	require.Len(t, is.Income.Lines, 1)
	assertDec(t, "12000", is.Income.Lines[0].Amount)
}

func TestBalanceSheet(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	bs := f.gen.BalanceSheet(day(time.March, 31))
	assert.True(t, bs.Balanced(), "assets %s, liabilities+equity %s", bs.Assets.Total, bs.TotalLiabilitiesAndEquity)
	assertDec(t, "92000", bs.Assets.Total)
	assertDec(t, "15000", bs.Liabilities.Total)

	last := bs.Equity.Lines[len(bs.Equity.Lines)-1]
	assert.Equal(t, RetainedEarnings, last.Name)
	assertDec(t, "-23000", last.Amount)
	assertDec(t, "77000", bs.Equity.Total)
}

func TestGeneralLedger(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	gl, err := f.gen.GeneralLedger("1-01-001", day(time.March, 6), day(time.March, 31))
	require.NoError(t, err)
	assertDec(t, "8000", gl.Opening)
	require.Len(t, gl.Rows, 1)
	assert.Equal(t, Credit, gl.Rows[0].Side)
	assert.Equal(t, "5-01-001", gl.Rows[0].Contra)
	assertDec(t, "3000", gl.Rows[0].Running)
	assertDec(t, "3000", gl.Closing)

	_, err = f.gen.GeneralLedger("9-99-999", time.Time{}, time.Time{})
	assert.ErrorIs(t, err, accounts.ErrUnknownAccount)
}

func TestCashBook_GroupsByVoucher(t *testing.T) {
	f := newFixture(t)
	f.post(t, entry("1-01-001", "3-01-001", "1000", day(time.February, 1)))

	_, _, err := f.store.RecordVoucher([]model.Posting{
		{DebitAccount: "5-01-001", CreditAccount: "1-01-001", Amount: dec("100"), Date: day(time.March, 9), Status: model.StatusPosted},
		{DebitAccount: "5-01-002", CreditAccount: "1-01-001", Amount: dec("50"), Date: day(time.March, 9), Status: model.StatusPosted},
		{DebitAccount: "5-01-003", CreditAccount: "1-01-001", Amount: dec("25"), Date: day(time.March, 9), Status: model.StatusPosted},
	})
	require.NoError(t, err)
	f.post(t, model.Posting{DebitAccount: "1-01-001", CreditAccount: "4-01-001", Amount: dec("300"), Date: day(time.March, 2), Status: model.StatusPosted, Description: "Tuition"})
	f.post(t, entry("5-01-001", "1-01-002", "70", day(time.March, 4)))

	cb := f.gen.CashBook(balance.Code(accounts.CashInHand), day(time.March, 1), day(time.March, 31))
	assertDec(t, "1000", cb.Opening)
	require.Len(t, cb.Lines, 2)

	assert.Equal(t, "Tuition", cb.Lines[0].Description)
	assertDec(t, "300", cb.Lines[0].Net)
	assertDec(t, "1300", cb.Lines[0].Running)

	assert.Equal(t, "Multiple Entries (3)", cb.Lines[1].Description)
	assertDec(t, "-175", cb.Lines[1].Net)
	assertDec(t, "1125", cb.Lines[1].Running)
	assertDec(t, "1125", cb.Closing)

	all := f.gen.CashBook(nil, day(time.March, 1), day(time.March, 31))
	require.Len(t, all.Lines, 3)
	assertDec(t, "1055", all.Closing)
}

func TestCashBook_StableOnSameDate(t *testing.T) {
	f := newFixture(t)
	first := entry("1-01-001", "4-01-001", "10", day(time.March, 3))
	first.Description = "first"
	second := entry("1-01-001", "4-01-002", "20", day(time.March, 3))
	second.Description = "second"
	earlier := entry("1-01-001", "4-01-003", "5", day(time.March, 1))
	earlier.Description = "earlier"
	f.post(t, first)
	f.post(t, second)
	f.post(t, earlier)

	cb := f.gen.CashBook(nil, day(time.March, 1), day(time.March, 31))
	require.Len(t, cb.Lines, 3)
	assert.Equal(t, []string{"earlier", "first", "second"},
		[]string{cb.Lines[0].Description, cb.Lines[1].Description, cb.Lines[2].Description})
}

func TestCashBookEntries(t *testing.T) {
	f := newFixture(t)
	f.post(t, model.Posting{
		DebitAccount: "1-01-001", CreditAccount: "4-01-001", Amount: dec("1500"), Date: day(time.March, 2),
		StudentID: "S-17",
		Details:   []model.DetailLine{{Head: "Tuition", Amount: dec("1000")}, {Head: "Library", Amount: dec("500")}},
	})
	f.post(t, entry("1-01-002", "4-01-002", "800", day(time.March, 3)))
	f.post(t, entry("5-01-001", "1-01-001", "200", day(time.March, 4)))

	receipts := f.gen.CashBookEntries(nil, day(time.March, 1), day(time.March, 31), Receipts, "")
	require.Len(t, receipts.Entries, 2)
	assertDec(t, "2300", receipts.Total)

	library := f.gen.CashBookEntries(nil, day(time.March, 1), day(time.March, 31), Receipts, "Library")
	require.Len(t, library.Entries, 1)
	assert.Equal(t, "S-17", library.Entries[0].StudentID)
	assertDec(t, "500", library.Total)

	payments := f.gen.CashBookEntries(nil, day(time.March, 1), day(time.March, 31), Payments, "")
	require.Len(t, payments.Entries, 1)
	assert.Equal(t, "5-01-001", payments.Entries[0].Contra)
	assertDec(t, "200", payments.Total)

	_, err := ParseFlow("refunds")
	assert.Error(t, err)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	f.post(t, model.Posting{DebitAccount: "1-01-004", CreditAccount: "4-01-001", Amount: dec("1200"), Date: day(time.March, 1),
		Type: model.TypeFee, StudentID: "S-1", Description: "Term fee", Status: model.StatusPending})
	f.post(t, model.Posting{DebitAccount: "5-01-001", CreditAccount: "1-01-002", Amount: dec("300"), Date: day(time.March, 5),
		Type: model.TypeBankPayment, ChequeNo: "CHQ-88", Department: "Academics"})
	f.post(t, model.Posting{DebitAccount: "5-02-001", CreditAccount: "1-01-002", Amount: dec("9000"), Date: day(time.April, 1),
		Type: model.TypePayroll, Description: "April salaries"})

	tests := []struct {
		name string
		c    Criteria
		want int
	}{
		{"everything", Criteria{}, 3},
		{"text in description", Criteria{Text: "SALARIES"}, 1},
		{"text in cheque", Criteria{Text: "chq-88"}, 1},
		{"type", Criteria{Type: "fee"}, 1},
		{"parent account", Criteria{Account: "5"}, 2},
		{"leaf account", Criteria{Account: "1-01-002"}, 2},
		{"status", Criteria{Statuses: []model.Status{model.StatusPending}}, 1},
		{"window", Criteria{From: day(time.March, 2), To: day(time.March, 31)}, 1},
		{"min amount", Criteria{MinAmount: decimal.NewNullDecimal(dec("1000"))}, 2},
		{"max amount", Criteria{MaxAmount: decimal.NewNullDecimal(dec("1000"))}, 1},
		{"department", Criteria{Department: "academics"}, 1},
		{"student", Criteria{StudentID: "S-1"}, 1},
		{"no match", Criteria{Text: "nothing"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, f.gen.Search(tt.c), tt.want)
		})
	}

	got := f.gen.Search(Criteria{})
	assert.Equal(t, day(time.March, 1), got[0].Date)
	assert.Equal(t, day(time.April, 1), got[2].Date)
}

// randomLedger books n random postings, approves or rejects some of the
// pending ones and deletes a few vouchers.
func randomLedger(t *testing.T, f fixture, rng *rand.Rand, n int) {
	t.Helper()
	leaves := chart.Leaves()
	statuses := []model.Status{model.StatusPosted, model.StatusPending, model.StatusDeletePending, model.StatusRejected}
	for range n {
		debit := leaves[rng.IntN(len(leaves))].Code
		credit := debit
		for credit == debit {
			credit = leaves[rng.IntN(len(leaves))].Code
		}
		cents := rng.Int64N(5_000_000) + 1
		f.post(t, model.Posting{
			DebitAccount:  debit,
			CreditAccount: credit,
			Amount:        decimal.New(cents, -2),
			Date:          model.Day(2025, time.Month(rng.IntN(12)+1), rng.IntN(28)+1),
			Status:        statuses[rng.IntN(len(statuses))],
		})
	}
	for _, p := range f.store.WithStatus(model.StatusPending) {
		to := model.StatusPosted
		if rng.IntN(2) == 0 {
			to = model.StatusRejected
		}
		require.NoError(t, f.store.UpdateStatus([]string{p.ID}, model.StatusPending, to))
	}
	for i, p := range f.store.WithStatus(model.StatusDeletePending) {
		if i%2 == 0 {
			_, err := f.store.DeleteVoucher(p.VoucherNo)
			require.NoError(t, err)
		}
	}
}

func TestProperties_RandomLedgers(t *testing.T) {
	for seedN := range uint64(20) {
		f := newFixture(t)
		rng := rand.New(rand.NewPCG(seedN, 42))
		randomLedger(t, f, rng, 60)

		for _, to := range []time.Time{time.Time{}, day(time.March, 31), day(time.September, 15)} {
			tb := f.gen.TrialBalance(to)
			require.True(t, tb.Balanced(), "seed %d to %s: debit %s credit %s", seedN, to, tb.TotalDebit, tb.TotalCredit)

			bs := f.gen.BalanceSheet(to)
			require.True(t, bs.Balanced(), "seed %d to %s: assets %s, l+e %s", seedN, to, bs.Assets.Total, bs.TotalLiabilitiesAndEquity)

			assert.Equal(t, tb, f.gen.TrialBalance(to), "idempotent trial balance")
			assert.Equal(t, bs, f.gen.BalanceSheet(to), "idempotent balance sheet")
		}

		from, to := day(time.April, 1), day(time.June, 30)
		assert.Equal(t, f.gen.IncomeStatement(from, to), f.gen.IncomeStatement(from, to))
		assert.Equal(t, f.gen.CashBook(nil, from, to), f.gen.CashBook(nil, from, to))
	}
}

func TestDeletePendingCountsUntilConfirmed(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	postingID := f.post(t, entry("5-01-004", "1-01-001", "700", day(time.March, 15)))
	p, err := f.store.Get(postingID)
	require.NoError(t, err)
	require.NoError(t, f.store.UpdateStatus([]string{postingID}, model.StatusPosted, model.StatusDeletePending))

	eng := balance.FromSource(chart, f.store)
	got, err := eng.AccountBalance("5-01-004", day(time.March, 1), day(time.March, 31))
	require.NoError(t, err)
	assertDec(t, "700", got)

	_, err = f.store.DeleteVoucher(p.VoucherNo)
	require.NoError(t, err)

	eng = balance.FromSource(chart, f.store)
	got, err = eng.AccountBalance("5-01-004", day(time.March, 1), day(time.March, 31))
	require.NoError(t, err)
	assertDec(t, "0", got)
	assert.True(t, f.gen.TrialBalance(time.Time{}).Balanced())
}
