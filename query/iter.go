package query

import (
	"github.com/jackc/pgx/v5"
)

// Iter is a lazy, finite, non-restartable row sequence. It owns its cursor
// and, for statements that leased a fresh connection, the lease itself;
// Close releases both and is safe to call more than once. Iteration stops on
// the first error, which Err reports.
type Iter struct {
	rows    pgx.Rows
	release func()
	current Row
	err     error
	closed  bool
}

// Next advances to the next row, closing the iterator when the sequence is
// exhausted or fails.
func (it *Iter) Next() bool {
	if it.closed {
		return false
	}
	if !it.rows.Next() {
		it.err = it.rows.Err()
		it.Close()
		return false
	}

	row, err := rowFromPgx(it.rows)
	if err != nil {
		it.err = err
		it.Close()
		return false
	}
	it.current = row
	return true
}

// Row returns the row produced by the last successful Next.
func (it *Iter) Row() Row {
	return it.current
}

// Err reports the error that stopped iteration, if any.
func (it *Iter) Err() error {
	return it.err
}

// Close releases the cursor and any leased connection.
func (it *Iter) Close() {
	if it.closed {
		return
	}
	it.closed = true
	it.rows.Close()
	if it.release != nil {
		it.release()
		it.release = nil
	}
}
