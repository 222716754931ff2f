package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	s := NewService()
	sess, err := s.Register(RegisterRequest{
		Name: "Agencia Centro", BoothNumber: "55501", Password: "secreto",
		Question: "¿Ciudad natal?", Answer: "Rosario",
	})
	require.NoError(t, err)
	assert.Equal(t, "55501@quiniela.com", sess.User.Email)
	assert.NotEmpty(t, sess.Token)

	// Duplicate booth number is rejected.
	_, err = s.Register(RegisterRequest{Name: "Otro", BoothNumber: "55501", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	// Login with the derived email.
	sess2, err := s.Login("55501@quiniela.com", "secreto")
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, sess2.User.ID)

	_, err = s.Login("55501@quiniela.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login("nobody@quiniela.com", "secreto")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSeededDemoUsers(t *testing.T) {
	t.Parallel()

	s := NewService()
	s.SeedDemo()

	sess, err := s.Login("admin@demo.com", "demo123")
	require.NoError(t, err)
	assert.Equal(t, "Usuario Demo", sess.User.Name)
	assert.Equal(t, "12345", sess.User.BoothNumber)

	_, err = s.Login("test@test.com", "test123")
	require.NoError(t, err)

	// Seeding twice does not duplicate.
	s.SeedDemo()
	_, err = s.Login("admin@demo.com", "demo123")
	require.NoError(t, err)
}

func TestValidateAndLogout(t *testing.T) {
	t.Parallel()

	s := NewService()
	s.SeedDemo()
	sess, err := s.Login("admin@demo.com", "demo123")
	require.NoError(t, err)

	u, err := s.Validate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)

	_, err = s.Validate("no-such-token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	s.Logout(sess.Token)
	_, err = s.Validate(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Logout is idempotent.
	s.Logout(sess.Token)
}

func TestSessionExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewService(
		WithTTL(24*time.Hour),
		WithClock(func() time.Time { return now }),
	)
	s.SeedDemo()

	sess, err := s.Login("admin@demo.com", "demo123")
	require.NoError(t, err)

	now = now.Add(23 * time.Hour)
	_, err = s.Validate(sess.Token)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = s.Validate(sess.Token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestPasswordRecovery(t *testing.T) {
	t.Parallel()

	s := NewService()
	s.SeedDemo()

	q, err := s.RecoveryQuestion("admin@demo.com")
	require.NoError(t, err)
	assert.Contains(t, q, "color")

	_, err = s.RecoveryQuestion("ghost@demo.com")
	assert.ErrorIs(t, err, ErrRecoveryRejected)

	// Wrong answer and unknown email fail the same way.
	err = s.ResetPassword("admin@demo.com", "rojo", "nueva")
	assert.ErrorIs(t, err, ErrRecoveryRejected)
	err = s.ResetPassword("ghost@demo.com", "azul", "nueva")
	assert.ErrorIs(t, err, ErrRecoveryRejected)

	// Case-insensitive answer match.
	require.NoError(t, s.ResetPassword("admin@demo.com", "  AZUL ", "nueva"))
	_, err = s.Login("admin@demo.com", "demo123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login("admin@demo.com", "nueva")
	require.NoError(t, err)
}
