package auth

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthURLCarriesPKCEParams(t *testing.T) {
	flow, err := NewFlow()
	require.NoError(t, err)

	u, err := url.Parse(flow.AuthURL())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(flow.AuthURL(), authorizeURL))

	q := u.Query()
	require.Equal(t, flow.pkce.Challenge, q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, flow.pkce.State, q.Get("state"))
}

func TestExchangeRejectsStateMismatch(t *testing.T) {
	flow, err := NewFlow()
	require.NoError(t, err)

	_, err = flow.Exchange(context.Background(), "some-code", "wrong-state")
	require.Error(t, err)
	require.Contains(t, err.Error(), "state mismatch")
}
