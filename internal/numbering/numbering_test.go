package numbering

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Service {
	t.Helper()
	svc, err := Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	return svc
}

func TestNext_IncrementsPerYear(t *testing.T) {
	ctx := context.Background()
	year := 2026
	svc := openTest(t).WithClock(func() time.Time { return time.Date(year, 5, 1, 0, 0, 0, 0, time.UTC) })

	first, err := svc.Next(ctx)
	require.NoError(t, err)
	second, err := svc.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ref - 0000001/2026", first)
	assert.Equal(t, "Ref - 0000002/2026", second)

	year = 2027
	third, err := svc.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ref - 0000001/2027", third)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "")
	assert.Error(t, err)
}
