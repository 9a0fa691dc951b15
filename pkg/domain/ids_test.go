package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "assetd/pkg/domain-errors"
)

// TestParseAccountID_Invariants validates the parsing invariant:
// "account IDs must be valid, non-empty, non-nil UUIDs"
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
		valid := uuid.New()
		account, err := ParseAccountID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(valid), account)
	})
}

func TestAccountID_BytesRoundTrip(t *testing.T) {
	account := AccountID(uuid.New())

	decoded, err := AccountIDFromBytes(account.Bytes())
	require.NoError(t, err)
	assert.Equal(t, account, decoded)

	_, err = AccountIDFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// TestParseAccountID_TrustBoundary validates rejection of hostile input.
func TestParseAccountID_TrustBoundary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE registry_kv;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAccountID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseIdentity(t *testing.T) {
	t.Run("round trips hex", func(t *testing.T) {
		id := Identity{0x00, 0x01, 0xfe, 0xff}
		parsed, err := ParseIdentity(id.String())
		require.NoError(t, err)
		assert.True(t, id.Equal(parsed))
		assert.Equal(t, "0001feff", id.String())
	})

	t.Run("accepts uppercase", func(t *testing.T) {
		parsed, err := ParseIdentity("ABCD")
		require.NoError(t, err)
		assert.Equal(t, Identity{0xab, 0xcd}, parsed)
	})

	t.Run("rejects empty, odd length and non hex", func(t *testing.T) {
		for _, input := range []string{"", "abc", "zz"} {
			_, err := ParseIdentity(input)
			require.Error(t, err, input)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})

	t.Run("rejects oversized", func(t *testing.T) {
		_, err := ParseIdentity(strings.Repeat("ab", MaxIdentityLength+1))
		require.Error(t, err)
	})
}

func TestIdentity_CloneDoesNotAlias(t *testing.T) {
	id := Identity{1, 2, 3}
	clone := id.Clone()
	clone[0] = 9
	assert.Equal(t, byte(1), id[0])
	assert.Nil(t, Identity(nil).Clone())
}
