package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "curio/pkg/domain-errors"
)

func TestParseAccountID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		u := uuid.New()
		id, err := ParseAccountID(u.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(u), id)
	})
}

func TestParseItemID(t *testing.T) {
	t.Run("rejects zero", func(t *testing.T) {
		_, err := ParseItemID("0")
		require.Error(t, err)
	})

	t.Run("rejects negative and junk", func(t *testing.T) {
		for _, s := range []string{"-1", "abc", "1.5", ""} {
			_, err := ParseItemID(s)
			assert.Error(t, err, "input %q", s)
		}
	})

	t.Run("accepts positive", func(t *testing.T) {
		id, err := ParseItemID("42")
		require.NoError(t, err)
		assert.Equal(t, ItemID(42), id)
	})
}
