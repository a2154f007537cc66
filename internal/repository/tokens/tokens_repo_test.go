package tokens

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	vals []any
	err  error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = r.vals[i].(int64)
		case *string:
			*p = r.vals[i].(string)
		case **time.Time:
			*p = r.vals[i].(*time.Time)
		}
	}
	return nil
}

type fakeDB struct {
	row  fakeRow
	args []any
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.args = args
	return f.row
}

func TestSplitToken(t *testing.T) {
	id, secret := splitToken("42|abc")
	require.NotNil(t, id)
	require.EqualValues(t, 42, *id)
	require.Equal(t, "abc", secret)

	id, secret = splitToken("x|abc")
	require.Nil(t, id)
	require.Equal(t, "x|abc", secret)

	id, secret = splitToken("plain")
	require.Nil(t, id)
	require.Equal(t, "plain", secret)
}

func TestHashSecret(t *testing.T) {
	// sha256("abc")
	require.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", hashSecret("abc"))
}

func TestFindByPlain(t *testing.T) {
	db := &fakeDB{row: fakeRow{vals: []any{int64(7), hashSecret("abc"), "auditor-hn", "audit:run, upload", (*time.Time)(nil)}}}
	repo := NewRepoWith(db)

	tok, err := repo.FindByPlain(context.Background(), "7|abc")
	require.NoError(t, err)
	require.EqualValues(t, 7, tok.ID)
	require.Equal(t, "auditor-hn", tok.Owner)
	require.Equal(t, []string{AbilityAudit, AbilityUpload}, tok.Abilities)
	require.True(t, tok.Can(AbilityUpload))
	require.False(t, tok.Can(AbilityLookups))

	require.EqualValues(t, 7, db.args[0])
	require.Equal(t, hashSecret("abc"), db.args[1])
}

func TestFindByPlain_errors(t *testing.T) {
	_, err := NewRepoWith(&fakeDB{}).FindByPlain(context.Background(), "  ")
	require.Error(t, err)

	_, err = NewRepoWith(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}}).FindByPlain(context.Background(), "abc")
	require.ErrorIs(t, err, ErrTokenNotFound)

	boom := errors.New("conn reset")
	_, err = NewRepoWith(&fakeDB{row: fakeRow{err: boom}}).FindByPlain(context.Background(), "abc")
	require.ErrorIs(t, err, boom)

	_, err = NewRepo(nil).FindByPlain(context.Background(), "abc")
	require.Error(t, err)
}

func TestCanAll(t *testing.T) {
	tok := &Token{Abilities: []string{AbilityAll}}
	require.True(t, tok.Can(AbilityLookups))
	require.False(t, (&Token{}).Can(AbilityAudit))
}
