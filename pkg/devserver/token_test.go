package devserver

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusclinic/console/pkg/common/models"
)

func TestTokenSignerRoundTrip(t *testing.T) {
	signer := NewTokenSigner("secret", time.Hour)

	token, err := signer.Issue("nurse.cruz", models.RoleNurse)
	require.NoError(t, err)

	username, role, err := signer.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "nurse.cruz", username)
	require.Equal(t, models.RoleNurse, role)
}

func TestTokenSignerRejectsForeignSignature(t *testing.T) {
	token, err := NewTokenSigner("secret", time.Hour).Issue("admin", models.RoleAdmin)
	require.NoError(t, err)

	_, _, err = NewTokenSigner("other", time.Hour).Validate(token)
	require.Error(t, err)
}

func TestTokenSignerRejectsExpired(t *testing.T) {
	expired := &TokenSigner{secret: []byte("secret"), ttl: -time.Minute}
	token, err := expired.Issue("admin", models.RoleAdmin)
	require.NoError(t, err)

	_, _, err = NewTokenSigner("secret", time.Hour).Validate(token)
	require.Error(t, err)
}
