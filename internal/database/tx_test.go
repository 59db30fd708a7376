package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestTxManager_Commit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM cart_items").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	m := NewTxManager(db)
	err = m.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := Conn(ctx, db).ExecContext(ctx, "DELETE FROM cart_items WHERE cart_id = $1", 7)
		return err
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTxManager_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	m := NewTxManager(db)
	err = m.WithinTx(context.Background(), func(ctx context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTxManager_NestedJoinsOuter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	m := NewTxManager(db)
	err = m.WithinTx(context.Background(), func(ctx context.Context) error {
		return m.WithinTx(ctx, func(ctx context.Context) error { return nil })
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConn_WithoutTxUsesDB(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	if Conn(context.Background(), db) != Querier(db) {
		t.Fatalf("expected the pool when no tx is in context")
	}
}

type counterStore struct {
	mu sync.Mutex
	n  int
}

func (s *counterStore) Snapshot() func() {
	s.mu.Lock()
	saved := s.n
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.n = saved
		s.mu.Unlock()
	}
}

func (s *counterStore) inc() {
	s.mu.Lock()
	s.n++
	s.mu.Unlock()
}

func TestMemoryTx_RestoresOnError(t *testing.T) {
	a, b := &counterStore{n: 1}, &counterStore{n: 10}
	tx := NewMemoryTx(a, b)

	err := tx.WithinTx(context.Background(), func(ctx context.Context) error {
		a.inc()
		b.inc()
		return errors.New("abort")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if a.n != 1 || b.n != 10 {
		t.Fatalf("expected state restored, got a=%d b=%d", a.n, b.n)
	}

	err = tx.WithinTx(context.Background(), func(ctx context.Context) error {
		a.inc()
		return tx.WithinTx(ctx, func(ctx context.Context) error {
			b.inc()
			return nil
		})
	})
	if err != nil {
		t.Fatalf("WithinTx: %v", err)
	}
	if a.n != 2 || b.n != 11 {
		t.Fatalf("expected committed state, got a=%d b=%d", a.n, b.n)
	}
}
