package checks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/database/testutil"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestDatabase(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	check := Database(db)
	require.True(t, check.Critical)
	require.NoError(t, check.Run(context.Background()))

	require.Error(t, Database(nil).Run(context.Background()))
}

func TestCache(t *testing.T) {
	_, ok := Cache(struct{}{})
	require.False(t, ok)

	check, ok := Cache(fakePinger{err: errors.New("down")})
	require.True(t, ok)
	require.False(t, check.Critical)
	require.EqualError(t, check.Run(context.Background()), "down")
}
