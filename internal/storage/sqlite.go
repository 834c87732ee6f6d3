// Package storage persists postings and budgets in SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/cleared-dev/bursar/internal/logger"
	"github.com/cleared-dev/bursar/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRepository stores postings and budgets in one SQLite file. It
// implements ledger.Backend and budget.Repository; every multi-row write
// runs in one transaction.
type SQLiteRepository struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, log: logger.Named("storage")}, nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const postingColumns = `id, voucher_no, date, type, debit_account, credit_account, amount,
	status, description, student_id, department, details, cheque_no`

// LoadPostings returns every posting in store order. A replaced voucher keeps
// the position of the lines it replaced.
func (r *SQLiteRepository) LoadPostings() ([]model.Posting, error) {
	rows, err := r.db.Query(`SELECT ` + postingColumns + ` FROM postings ORDER BY position, seq`)
	if err != nil {
		return nil, fmt.Errorf("query postings: %w", err)
	}
	defer rows.Close()

	var out []model.Posting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate postings: %w", err)
	}
	return out, nil
}

// InsertPostings appends lines in one transaction.
func (r *SQLiteRepository) InsertPostings(lines []model.Posting) error {
	return r.inTx(func(tx *sql.Tx) error {
		return insertPostings(tx, lines)
	})
}

// ReplaceVoucher deletes the voucher's lines and inserts lines at the same
// position in one transaction.
func (r *SQLiteRepository) ReplaceVoucher(voucherNo string, lines []model.Posting) error {
	return r.inTx(func(tx *sql.Tx) error {
		var position sql.NullInt64
		if err := tx.QueryRow(`SELECT MIN(position) FROM postings WHERE voucher_no = ?`, voucherNo).Scan(&position); err != nil {
			return fmt.Errorf("locate voucher %s: %w", voucherNo, err)
		}
		if _, err := tx.Exec(`DELETE FROM postings WHERE voucher_no = ?`, voucherNo); err != nil {
			return fmt.Errorf("delete voucher %s: %w", voucherNo, err)
		}
		if err := insertPostings(tx, lines); err != nil {
			return err
		}
		if !position.Valid {
			return nil
		}
		if _, err := tx.Exec(`UPDATE postings SET position = ? WHERE voucher_no = ?`, position.Int64, voucherNo); err != nil {
			return fmt.Errorf("position voucher %s: %w", voucherNo, err)
		}
		return nil
	})
}

// SetStatus updates the status of every listed posting in one transaction.
func (r *SQLiteRepository) SetStatus(ids []string, status model.Status) error {
	return r.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`UPDATE postings SET status = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("prepare status update: %w", err)
		}
		defer stmt.Close()
		for _, postingID := range ids {
			res, err := stmt.Exec(string(status), postingID)
			if err != nil {
				return fmt.Errorf("update status of %s: %w", postingID, err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return fmt.Errorf("update status: posting %s not found", postingID)
			}
		}
		return nil
	})
}

// DeleteVoucher removes every line of the voucher.
func (r *SQLiteRepository) DeleteVoucher(voucherNo string) error {
	return r.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM postings WHERE voucher_no = ?`, voucherNo); err != nil {
			return fmt.Errorf("delete voucher %s: %w", voucherNo, err)
		}
		return nil
	})
}

func (r *SQLiteRepository) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.log.Errorw("rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type jsonDetail struct {
	Head   string          `json:"head"`
	Amount decimal.Decimal `json:"amount"`
}

func insertPostings(tx *sql.Tx, lines []model.Posting) error {
	stmt, err := tx.Prepare(`INSERT INTO postings (` + postingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range lines {
		details := make([]jsonDetail, len(p.Details))
		for i, d := range p.Details {
			details[i] = jsonDetail{Head: d.Head, Amount: d.Amount}
		}
		detailsJSON, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode details of %s: %w", p.ID, err)
		}
		_, err = stmt.Exec(
			p.ID, p.VoucherNo, p.Date.Format(dateLayout), p.Type,
			p.DebitAccount, p.CreditAccount, p.Amount.String(), string(p.Status),
			p.Description, p.StudentID, p.Department, string(detailsJSON), p.ChequeNo,
		)
		if err != nil {
			return fmt.Errorf("insert posting %s: %w", p.ID, err)
		}
	}
	if _, err := tx.Exec(`UPDATE postings SET position = seq WHERE position IS NULL`); err != nil {
		return fmt.Errorf("position postings: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosting(row scanner) (model.Posting, error) {
	var p model.Posting
	var date, amount, status, details string
	err := row.Scan(&p.ID, &p.VoucherNo, &date, &p.Type, &p.DebitAccount, &p.CreditAccount,
		&amount, &status, &p.Description, &p.StudentID, &p.Department, &details, &p.ChequeNo)
	if err != nil {
		return model.Posting{}, fmt.Errorf("scan posting: %w", err)
	}

	if p.Date, err = time.Parse(dateLayout, date); err != nil {
		return model.Posting{}, fmt.Errorf("posting %s: invalid date %q: %w", p.ID, date, err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return model.Posting{}, fmt.Errorf("posting %s: invalid amount %q: %w", p.ID, amount, err)
	}
	p.Status = model.Status(status)

	var decoded []jsonDetail
	if err := json.Unmarshal([]byte(details), &decoded); err != nil {
		return model.Posting{}, fmt.Errorf("posting %s: invalid details: %w", p.ID, err)
	}
	for _, d := range decoded {
		p.Details = append(p.Details, model.DetailLine{Head: d.Head, Amount: d.Amount})
	}
	return p, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
