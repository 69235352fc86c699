package accounts

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, denylist Denylist) (*Service, *InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	return NewService(repo, NewTokenIssuer("test-secret", time.Hour), denylist, nil), repo
}

func TestSignUpCreatesPatientProfile(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	p, err := svc.SignUp(ctx, SignUpInput{Email: " Jane@Example.com", Password: "correct-horse", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", p.Email)
	assert.Equal(t, RolePatient, p.Role)
	assert.NotEqual(t, "correct-horse", p.PasswordHash)

	stored, err := repo.GetByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, CheckPassword("correct-horse", stored.PasswordHash))

	_, err = svc.SignUp(ctx, SignUpInput{Email: "jane@example.com", Password: "another-pass"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "nope", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrEmailRequired)
	_, err = svc.SignUp(context.Background(), SignUpInput{Email: "a@b.c", Password: "short"})
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = svc.SignUp(context.Background(), SignUpInput{Email: "a@b.c", Password: strings.Repeat("x", MaxPasswordLength+1)})
	assert.ErrorIs(t, err, ErrWeakPassword)
	_, err = svc.SignUp(context.Background(), SignUpInput{Email: "a@b.c", Password: strings.Repeat("x", MaxPasswordLength)})
	assert.NoError(t, err)
}

func TestSignInIssuesVerifiableToken(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "jane@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, SignInInput{Email: "jane@example.com", Password: "wrong-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, SignInInput{Email: "ghost@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := svc.SignIn(ctx, SignInInput{Email: "JANE@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	claims, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Profile.UserID, claims.Subject)
	assert.Equal(t, RolePatient, claims.Role)
	assert.Equal(t, "jane@example.com", claims.Email)

	p, err := svc.Profile(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", p.Email)
}

func TestSignOutRevokesTokenInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	svc, _ := newTestService(t, NewRedisDenylist(client))
	ctx := context.Background()
	_, err := svc.SignUp(ctx, SignUpInput{Email: "jane@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	session, err := svc.SignIn(ctx, SignInInput{Email: "jane@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	claims, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	require.NoError(t, svc.SignOut(ctx, claims))

	assert.True(t, mr.Exists("auth:revoked:"+claims.ID))
	ttl := mr.TTL("auth:revoked:" + claims.ID)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	_, err = svc.Authenticate(ctx, session.Token)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	mr.FastForward(time.Hour + time.Second)
	revoked, err := NewRedisDenylist(client).IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestEnsureAdmin(t *testing.T) {
	svc, repo := newTestService(t, nil)
	ctx := context.Background()

	p, err := svc.EnsureAdmin(ctx, "", "")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = svc.SignUp(ctx, SignUpInput{Email: "admin@medibook.com", Password: "patient-pass"})
	require.NoError(t, err)

	p, err = svc.EnsureAdmin(ctx, "Admin@MediBook.com", "admin-pass")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, p.Role)

	stored, err := repo.GetByEmail(ctx, "admin@medibook.com")
	require.NoError(t, err)
	assert.True(t, CheckPassword("admin-pass", stored.PasswordHash))

	session, err := svc.SignIn(ctx, SignInInput{Email: "admin@medibook.com", Password: "admin-pass"})
	require.NoError(t, err)
	claims, err := svc.Authenticate(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestTokenIssuerRejectsExpiredAndTampered(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Minute)
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return start }

	token, _, err := issuer.Issue(&Profile{UserID: "u-1", Email: "a@b.c", Role: RoleAdmin})
	require.NoError(t, err)
	_, err = issuer.Parse(token)
	require.NoError(t, err)

	_, err = issuer.Parse(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuer.now = func() time.Time { return start.Add(2 * time.Minute) }
	_, err = issuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMemoryDenylistExpires(t *testing.T) {
	d := NewMemoryDenylist()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, d.Revoke(ctx, "jti-1", now.Add(time.Minute)))
	revoked, _ := d.IsRevoked(ctx, "jti-1")
	assert.True(t, revoked)

	now = now.Add(time.Minute)
	revoked, _ = d.IsRevoked(ctx, "jti-1")
	assert.False(t, revoked)
}
