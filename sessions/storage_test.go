package sessions_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jrsteele09/readify/internal/errors"
	"github.com/jrsteele09/readify/sessions"
	"github.com/jrsteele09/readify/sessions/memstore"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestScope_IsolatesKeys(t *testing.T) {
	ctx := context.Background()
	backing := memstore.New()

	alice, err := sessions.Scope(backing, "alice")
	require.NoError(t, err)
	bob, err := sessions.Scope(backing, "bob")
	require.NoError(t, err)

	require.NoError(t, alice.Set(ctx, sessions.CredentialKey, "a"))

	_, err = bob.Get(ctx, sessions.CredentialKey)
	require.ErrorIs(t, err, sessions.ErrNotFound)

	value, err := alice.Get(ctx, sessions.CredentialKey)
	require.NoError(t, err)
	require.Equal(t, "a", value)

	value, err = backing.Get(ctx, "alice:"+sessions.CredentialKey)
	require.NoError(t, err)
	require.Equal(t, "a", value)

	require.NoError(t, bob.Delete(ctx, sessions.CredentialKey))
	require.Equal(t, 1, backing.Len())
}

func TestScope_Invalid(t *testing.T) {
	for _, scope := range []string{"", "a:b"} {
		_, err := sessions.Scope(memstore.New(), scope)
		require.ErrorIs(t, err, errors.ErrInvalidScope)
	}
}

func TestSealed_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backing := memstore.New()
	sealed, err := sessions.Sealed(backing, testKey)
	require.NoError(t, err)

	require.NoError(t, sealed.Set(ctx, "authTokens", `{"access":"secret"}`))

	raw, err := backing.Get(ctx, "authTokens")
	require.NoError(t, err)
	require.NotContains(t, raw, "secret")

	value, err := sealed.Get(ctx, "authTokens")
	require.NoError(t, err)
	require.Equal(t, `{"access":"secret"}`, value)

	require.NoError(t, sealed.Delete(ctx, "authTokens"))
	_, err = sealed.Get(ctx, "authTokens")
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestSealed_RejectsTampering(t *testing.T) {
	ctx := context.Background()
	backing := memstore.New()
	sealed, err := sessions.Sealed(backing, testKey)
	require.NoError(t, err)
	require.NoError(t, sealed.Set(ctx, "a", "value"))

	raw, err := backing.Get(ctx, "a")
	require.NoError(t, err)

	t.Run("moved to another key", func(t *testing.T) {
		require.NoError(t, backing.Set(ctx, "b", raw))
		_, err := sealed.Get(ctx, "b")
		require.ErrorIs(t, err, errors.ErrUnsealed)
	})

	t.Run("other key material", func(t *testing.T) {
		other, err := sessions.Sealed(backing, []byte(strings.Repeat("x", 32)))
		require.NoError(t, err)
		_, err = other.Get(ctx, "a")
		require.ErrorIs(t, err, errors.ErrUnsealed)
	})

	t.Run("plaintext", func(t *testing.T) {
		require.NoError(t, backing.Set(ctx, "c", "plain"))
		_, err := sealed.Get(ctx, "c")
		require.ErrorIs(t, err, errors.ErrUnsealed)
	})
}

func TestSealedStore_DiscardsUnreadableCredential(t *testing.T) {
	ctx := context.Background()
	backing := memstore.New()
	require.NoError(t, backing.Set(ctx, sessions.CredentialKey, "written-before-sealing"))

	sealed, err := sessions.Sealed(backing, testKey)
	require.NoError(t, err)

	store, err := sessions.Open(ctx, sealed, nil)
	require.NoError(t, err)
	require.False(t, store.Authenticated())
	require.Equal(t, 0, backing.Len())
}

func TestKeyFromHex(t *testing.T) {
	key, err := sessions.KeyFromHex(strings.Repeat("ab", 32))
	require.NoError(t, err)
	require.Len(t, key, 32)

	_, err = sessions.KeyFromHex("abcd")
	require.Error(t, err)

	_, err = sessions.KeyFromHex("zz")
	require.Error(t, err)

	_, err = sessions.Sealed(memstore.New(), []byte("short"))
	require.Error(t, err)
}
