package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karimelsayed/shopgo/internal/domain/user"
)

type mockUserRepo struct {
	byEmail map[string]*user.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{byEmail: make(map[string]*user.User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return user.ErrEmailTaken
	}
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUserRepo) GetByID(context.Context, string) (*user.User, error) {
	return nil, errors.New("unexpected")
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetPoints(context.Context, string) (int64, error) {
	return 0, errors.New("unexpected")
}

func (m *mockUserRepo) DebitPoints(context.Context, string, int64) error {
	return errors.New("unexpected")
}

func (m *mockUserRepo) CreditPoints(context.Context, string, int64) error {
	return errors.New("unexpected")
}

const testSecret = "test-secret-do-not-use"

func TestSignupSigninVerify(t *testing.T) {
	svc := NewService(newMockUserRepo(), []byte(testSecret), time.Hour)
	ctx := context.Background()

	token, u, err := svc.Signup(ctx, "Karim", "karim@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash, "password must be stored hashed")

	ownerID, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, ownerID)

	token2, u2, err := svc.Signin(ctx, "karim@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, u2.ID)

	ownerID, err = svc.Verify(token2)
	require.NoError(t, err)
	assert.Equal(t, u.ID, ownerID)
}

func TestSignup_EmailTaken(t *testing.T) {
	svc := NewService(newMockUserRepo(), []byte(testSecret), time.Hour)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Karim", "karim@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "Other", "karim@example.com", "other-pass")
	require.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestSignin_InvalidCredentials(t *testing.T) {
	svc := NewService(newMockUserRepo(), []byte(testSecret), time.Hour)
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "Karim", "karim@example.com", "s3cret-pass")
	require.NoError(t, err)

	_, _, err = svc.Signin(ctx, "karim@example.com", "wrong-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Signin(ctx, "nobody@example.com", "s3cret-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerify_Rejects(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo, []byte(testSecret), time.Hour)
	ctx := context.Background()

	token, _, err := svc.Signup(ctx, "Karim", "karim@example.com", "s3cret-pass")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered signature", func(t *testing.T) {
		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]
		_, err := svc.Verify(tampered)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService(repo, []byte("another-secret"), time.Hour)
		_, err := other.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		// Verify with a clock past the token's TTL.
		expired := NewService(repo, []byte(testSecret), time.Hour)
		expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := expired.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
