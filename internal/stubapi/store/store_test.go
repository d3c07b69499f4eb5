package store

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/xenocrm/internal/testutil"
	"github.com/leapstack-labs/xenocrm/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestStore_Customers(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := s.ListCustomers(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)
			assert.NotNil(t, got)

			in := []Customer{
				{ID: "b", Name: "Bob", Email: "bob@y.org", TotalSpend: 120, VisitCount: 1, InactiveDays: 90},
				{ID: "a", Name: "Alice", Email: "alice@x.com", TotalSpend: 750.5, VisitCount: 4, InactiveDays: 2},
			}
			require.NoError(t, s.ReplaceCustomers(ctx, in))

			got, err = s.ListCustomers(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, in[1], got[0], "ordered by id")
			assert.Equal(t, in[0], got[1])

			require.NoError(t, s.ReplaceCustomers(ctx, in[:1]))
			got, err = s.ListCustomers(ctx)
			require.NoError(t, err)
			assert.Equal(t, []Customer{in[0]}, got)
		})
	}
}

func TestStore_ReplaceCustomers_RejectsMissingID(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.ReplaceCustomers(ctx, []Customer{{ID: "keep", Name: "Keep"}}))

			err := s.ReplaceCustomers(ctx, []Customer{{ID: "x", Name: "X"}, {Name: "NoID"}})
			require.Error(t, err)

			got, err := s.ListCustomers(ctx)
			require.NoError(t, err)
			assert.Equal(t, []Customer{{ID: "keep", Name: "Keep"}}, got, "failed replace leaves data alone")
		})
	}
}

func TestStore_Campaigns(t *testing.T) {
	tree := rules.Group{Combinator: rules.Or, Rules: []rules.Node{
		rules.RuleNode(rules.Rule{Field: "email", Operator: "contains", Value: "@x.com"}),
	}}
	t0 := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			first := Campaign{ID: "c1", Name: "First", Rules: tree, AudienceSize: 3, CreatedAt: t0}
			second := Campaign{ID: "c2", Name: "Second", Rules: rules.New(), AudienceSize: 6, CreatedAt: t0.Add(time.Second)}
			require.NoError(t, s.CreateCampaign(ctx, first))
			require.NoError(t, s.CreateCampaign(ctx, second))
			assert.Error(t, s.CreateCampaign(ctx, first), "duplicate id")

			got, err := s.GetCampaign(ctx, "c1")
			require.NoError(t, err)
			assert.Equal(t, first, *got)

			_, err = s.GetCampaign(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			list, err := s.ListCampaigns(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "c2", list[0].ID, "newest first")
			assert.Equal(t, "c1", list[1].ID)
		})
	}
}

func TestOpenSQLite_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stub.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.ReplaceCustomers(context.Background(), []Customer{{ID: "a", Name: "A", Email: "a@x.com"}}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	v, err := MigrationVersion(s.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	got, err := s.ListCustomers(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLite_ErrorPaths(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		run     func(s *SQLite) error
		wantErr string
	}{
		{
			name: "list query fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM customers").WillReturnError(errors.New("disk I/O error"))
			},
			run: func(s *SQLite) error {
				_, err := s.ListCustomers(context.Background())
				return err
			},
			wantErr: "failed to list customers",
		},
		{
			name: "insert fails rolls back",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM customers").WillReturnResult(sqlmock.NewResult(0, 2))
				mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO customers")).
					ExpectExec().WillReturnError(errors.New("constraint failed"))
				mock.ExpectRollback()
			},
			run: func(s *SQLite) error {
				return s.ReplaceCustomers(context.Background(), []Customer{{ID: "a"}})
			},
			wantErr: "failed to insert customer a",
		},
		{
			name: "commit fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("DELETE FROM customers").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO customers"))
				mock.ExpectCommit().WillReturnError(errors.New("database is locked"))
			},
			run: func(s *SQLite) error {
				return s.ReplaceCustomers(context.Background(), nil)
			},
			wantErr: "failed to commit customers",
		},
		{
			name: "create campaign fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO campaigns")).WillReturnError(errors.New("readonly database"))
			},
			run: func(s *SQLite) error {
				return s.CreateCampaign(context.Background(), Campaign{ID: "c1", Rules: rules.New()})
			},
			wantErr: "failed to create campaign",
		},
		{
			name: "corrupt stored rules",
			setup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "name", "rules", "audience_size", "created_at"}).
					AddRow("c1", "Bad", "{not json", 1, "2026-01-02T03:04:05.000000000Z")
				mock.ExpectQuery("SELECT (.+) FROM campaigns").WillReturnRows(rows)
			},
			run: func(s *SQLite) error {
				_, err := s.ListCampaigns(context.Background())
				return err
			},
			wantErr: "failed to scan campaign",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setup(mock)
			err = tt.run(newSQLite(db))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "got %v", err)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDecodeSeed(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		want    int
		wantErr string
	}{
		{name: "empty file", yaml: "", want: 0},
		{name: "two customers", yaml: "customers:\n  - id: a\n    name: A\n  - id: b\n    name: B\n", want: 2},
		{name: "missing id", yaml: "customers:\n  - name: A\n", wantErr: "has no id"},
		{name: "duplicate id", yaml: "customers:\n  - id: a\n  - id: a\n", wantErr: "duplicate"},
		{name: "unknown key", yaml: "customers:\n  - id: a\n    age: 3\n", wantErr: "age"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSeed(strings.NewReader(tt.yaml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestLoadSeed(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "seed.yaml", "customers:\n  - id: z\n    name: Zed\n    total_spend: 10\n")

	got, err := LoadSeed(path)
	require.NoError(t, err)
	assert.Equal(t, []Customer{{ID: "z", Name: "Zed", TotalSpend: 10}}, got)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultCustomers(t *testing.T) {
	got := DefaultCustomers()
	assert.NotEmpty(t, got)
	for _, c := range got {
		assert.NotEmpty(t, c.ID)
		assert.Contains(t, c.Email, "@")
	}
}
