package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"voxscribe/internal/infra"
)

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

// valuesRow scans vals positionally into dest.
func valuesRow(vals ...any) pgx.Row {
	return rowFunc(func(dest ...any) error {
		if len(dest) != len(vals) {
			return fmt.Errorf("scan: got %d dest, have %d values", len(dest), len(vals))
		}
		for i, v := range vals {
			target := reflect.ValueOf(dest[i]).Elem()
			if v == nil {
				target.Set(reflect.Zero(target.Type()))
				continue
			}
			target.Set(reflect.ValueOf(v))
		}
		return nil
	})
}

func errRow(err error) pgx.Row {
	return rowFunc(func(...any) error { return err })
}

type queryCall struct {
	query string
	args  []any
	inTx  bool
}

type fakeSQL struct {
	rows  map[string]func(args []any) pgx.Row
	execs map[string]func(args []any) (pgconn.CommandTag, error)
	calls []queryCall
	txs   int
	inTx  bool
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{
		rows:  map[string]func(args []any) pgx.Row{},
		execs: map[string]func(args []any) (pgconn.CommandTag, error){},
	}
}

func (f *fakeSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, queryCall{query: query, args: args, inTx: f.inTx})
	if fn, ok := f.execs[query]; ok {
		return fn(args)
	}
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func (f *fakeSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	f.calls = append(f.calls, queryCall{query: query, args: args, inTx: f.inTx})
	if fn, ok := f.rows[query]; ok {
		return fn(args)
	}
	return errRow(fmt.Errorf("unexpected query row"))
}

func (f *fakeSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, fmt.Errorf("query not supported by fake")
}

func (f *fakeSQL) WithTx(_ context.Context, fn func(tx infra.SQLExecutor) error) error {
	f.txs++
	f.inTx = true
	defer func() { f.inTx = false }()
	return fn(f)
}

func (f *fakeSQL) called(query string) *queryCall {
	for i := range f.calls {
		if f.calls[i].query == query {
			return &f.calls[i]
		}
	}
	return nil
}
