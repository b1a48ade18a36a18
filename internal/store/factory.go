package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx operations the stores need. It is satisfied by
// both *pgxpool.Pool and pgx.Tx, so the same store code runs inside and
// outside transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Stores struct {
	db DBTX
}

func NewStores(db DBTX) *Stores {
	return &Stores{db: db}
}

func (s *Stores) Organizations() OrganizationStore {
	return newOrganizationStore(s.db)
}

func (s *Stores) Members() MemberStore {
	return newMemberStore(s.db)
}

func (s *Stores) Projects() ProjectStore {
	return newProjectStore(s.db)
}

func (s *Stores) Messages() MessageStore {
	return newMessageStore(s.db)
}

func (s *Stores) Snapshots() SnapshotStore {
	return newSnapshotStore(s.db)
}

func (s *Stores) Reports() ReportStore {
	return newReportStore(s.db)
}
