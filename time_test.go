package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iov-one/vault/errors"
)

func TestUnixTimeAdd(t *testing.T) {
	base := UnixTime(1000)
	assert.Equal(t, UnixTime(1060), base.Add(time.Minute))
	assert.Equal(t, UnixTime(940), base.Add(-time.Minute))
	// Sub-second durations truncate to zero.
	assert.Equal(t, base, base.Add(999*time.Millisecond))
}

func TestUnixTimeUnmarshalJSON(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    UnixTime
		wantErr *errors.Error
	}{
		"number":         {raw: `1234`, want: 1234},
		"string time":    {raw: `"2019-04-01T10:00:00Z"`, want: 1554112800},
		"negative":       {raw: `-4`, wantErr: errors.ErrInput},
		"invalid format": {raw: `"garbage"`, wantErr: errors.ErrInput},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var got UnixTime
			err := got.UnmarshalJSON([]byte(tc.raw))
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tc.want, got)
			} else {
				assert.True(t, tc.wantErr.Is(err))
			}
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := AsUnixTime(time.Now())
	ctx := WithBlockTime(context.Background(), now.Time())

	assert.True(t, IsExpired(ctx, now.Add(-time.Minute)))
	// Expiration is inclusive of the current block time.
	assert.True(t, IsExpired(ctx, now))
	assert.False(t, IsExpired(ctx, now.Add(time.Minute)))
}
