package lookups

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"loan_audit/internal/ports"
)

type fakeRows struct {
	data [][2]string
	i    int
	err  error
}

func (f *fakeRows) Close()                                       {}
func (f *fakeRows) Err() error                                   { return f.err }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) Next() bool {
	if f.i >= len(f.data) {
		return false
	}
	f.i++
	return true
}
func (f *fakeRows) Scan(dest ...any) error {
	row := f.data[f.i-1]
	*(dest[0].(*string)) = row[0]
	*(dest[1].(*string)) = row[1]
	return nil
}
func (f *fakeRows) Values() ([]any, error) { return nil, nil }
func (f *fakeRows) RawValues() [][]byte    { return nil }
func (f *fakeRows) Conn() *pgx.Conn        { return nil }

type fakeDB struct {
	rows    [][2]string
	queries []string
	err     error
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, sql)
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{data: f.rows}, nil
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("not supported")
}

func TestRepoLoadsAndCaches(t *testing.T) {
	db := &fakeDB{rows: [][2]string{{" A1 ", "BĐS "}, {"", "skip"}, {"B1", "PTVT"}}}
	repo := NewRepoWith(db)

	got, err := repo.CollateralTypes(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := []ports.CodeMapping{{Code: "A1", Value: "BĐS"}, {Code: "B1", Value: "PTVT"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %+v want %+v", got, want)
	}

	if _, err := repo.CollateralTypes(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(db.queries) != 1 {
		t.Fatalf("expected cached second read, got %d queries", len(db.queries))
	}

	if _, err := repo.PurposeGroups(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(db.queries) != 2 {
		t.Fatalf("expected separate query per table, got %d", len(db.queries))
	}
}

func TestRepoErrors(t *testing.T) {
	repo := NewRepoWith(&fakeDB{err: errors.New("down")})
	if _, err := repo.PurposeGroups(context.Background()); err == nil {
		t.Fatalf("expected query error")
	}

	empty := NewRepo(nil)
	if _, err := empty.CollateralTypes(context.Background()); err == nil {
		t.Fatalf("expected error without postgres")
	}
	if _, err := empty.Replace(context.Background(), "users", nil); err == nil {
		t.Fatalf("expected unknown table error")
	}
}

func TestDedupe(t *testing.T) {
	got := dedupe([]ports.CodeMapping{
		{Code: "P1", Value: "SXKD"},
		{Code: " P1 ", Value: "Tiêu dùng"},
		{Code: "P2", Value: ""},
		{Code: "P3", Value: "Tiêu dùng"},
	})
	if len(got) != 2 || got[0].Value != "SXKD" || got[1].Code != "P3" {
		t.Fatalf("unexpected %+v", got)
	}
}

type execRecorder struct {
	stmts []string
	err   error
}

func (e *execRecorder) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.stmts = append(e.stmts, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), e.err
}

func TestEnsureSchema(t *testing.T) {
	ex := &execRecorder{}
	if err := EnsureSchema(context.Background(), ex); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(ex.stmts) != 2 || !strings.Contains(ex.stmts[0], CollateralTypesTable) || !strings.Contains(ex.stmts[1], PurposeGroupsTable) {
		t.Fatalf("unexpected statements %q", ex.stmts)
	}

	ex = &execRecorder{err: errors.New("permission denied")}
	if err := EnsureSchema(context.Background(), ex); err == nil || len(ex.stmts) != 1 {
		t.Fatalf("expected the first failure to stop, got err=%v stmts=%d", err, len(ex.stmts))
	}
}
