package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/auth"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc    *UserService
	users  *memUsers
	hasher *spyHasher
	mailer *fakeMailer
}

func newUserFixture(t *testing.T, seed ...models.User) *userFixture {
	t.Helper()
	db, _ := newSQLMockDB(t)
	f := &userFixture{users: newMemUsers(seed...), hasher: newSpyHasher(), mailer: &fakeMailer{}}
	f.svc = NewUserService(db, &fakeRepoManager{u: f.users}, testPolicy(t), f.hasher, f.mailer, nopLogger, testConfig())
	return f
}

func registration() models.RegistrationForm {
	return models.RegistrationForm{
		Username:        "new@example.com",
		Password:        "secret123",
		PasswordConfirm: "secret123",
		ProfileAttributes: models.ProfileAttributes{
			Forename: "Grace",
			Surname:  "Hopper",
		},
	}
}

func TestRegister_Success(t *testing.T) {
	f := newUserFixture(t)

	u, err := f.svc.Register(context.Background(), registration())
	require.NoError(t, err)

	assert.Equal(t, "new@example.com", u.Email)
	assert.False(t, u.EmailVerified)
	assert.NoError(t, f.hasher.inner.Compare(u.PasswordHash, "secret123"))

	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, sentMail{"verify", "new@example.com", f.mailer.sent[0].code}, f.mailer.sent[0])
}

func TestRegister_FormErrors(t *testing.T) {
	f := newUserFixture(t)

	form := registration()
	form.Username = "nope"
	form.PasswordConfirm = "different1"
	form.Surname = ""

	_, err := f.svc.Register(context.Background(), form)

	var fe common.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{
		"Please enter a valid email address",
		"Passwords do not match",
		"Surname is required",
	}, fe.Messages())
	assert.Zero(t, f.users.writes)
}

func TestRegister_MissingAndWeakPassword(t *testing.T) {
	f := newUserFixture(t)

	form := registration()
	form.Password, form.PasswordConfirm = "", ""
	_, err := f.svc.Register(context.Background(), form)
	require.ErrorIs(t, err, common.ErrMissingPassword)

	form.Password, form.PasswordConfirm = "short", "short"
	_, err = f.svc.Register(context.Background(), form)
	require.ErrorIs(t, err, common.ErrPasswordFailCriteria)
	assert.Zero(t, f.users.writes)
}

func TestRegister_Duplicate(t *testing.T) {
	f := newUserFixture(t, models.User{ID: "u1", Email: "New@Example.com"})

	_, err := f.svc.Register(context.Background(), registration())

	require.ErrorIs(t, err, common.ErrUserExists)
	assert.Empty(t, f.mailer.sent)
}

func TestAuthenticate(t *testing.T) {
	f := newUserFixture(t, models.User{ID: "u1", Email: "judge@example.com", PasswordHash: mustHash(t, "secret123")})
	ctx := context.Background()

	u, err := f.svc.Authenticate(ctx, "judge@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = f.svc.Authenticate(ctx, "judge@example.com", "wrong")
	assert.ErrorIs(t, err, common.ErrIncorrectPassword)

	_, err = f.svc.Authenticate(ctx, "ghost@example.com", "secret123")
	assert.ErrorIs(t, err, common.ErrIncorrectPassword)

	_, err = f.svc.Authenticate(ctx, "judge@example.com", "")
	assert.ErrorIs(t, err, common.ErrMissingPassword)
}

func TestAuthenticate_StoreFailureIsNotCoded(t *testing.T) {
	f := newUserFixture(t)
	f.users.getErr = errors.New("connection reset")

	_, err := f.svc.Authenticate(context.Background(), "judge@example.com", "secret123")

	require.Error(t, err)
	_, coded := common.CodeOf(err)
	assert.False(t, coded)
}

func TestVerifyEmail(t *testing.T) {
	f := newUserFixture(t, models.User{ID: "u1", Email: "judge@example.com"})
	secret := []byte("test-secret")

	code, err := auth.GenerateCode("u1", auth.PurposeVerifyEmail, auth.Stamp("judge@example.com"), secret, time.Hour)
	require.NoError(t, err)

	u, err := f.svc.VerifyEmail(context.Background(), code)
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)
	assert.True(t, f.users.get("u1").EmailVerified)
}

func TestVerifyEmail_StaleOrWrongCode(t *testing.T) {
	f := newUserFixture(t, models.User{ID: "u1", Email: "judge@example.com"})
	secret := []byte("test-secret")

	stale, err := auth.GenerateCode("u1", auth.PurposeVerifyEmail, auth.Stamp("old@example.com"), secret, time.Hour)
	require.NoError(t, err)
	_, err = f.svc.VerifyEmail(context.Background(), stale)
	assert.ErrorIs(t, err, common.ErrInvalidCode)

	reset, err := auth.GenerateCode("u1", auth.PurposeResetPassword, auth.Stamp("judge@example.com"), secret, time.Hour)
	require.NoError(t, err)
	_, err = f.svc.VerifyEmail(context.Background(), reset)
	assert.ErrorIs(t, err, common.ErrInvalidCode)

	ghost, err := auth.GenerateCode("u9", auth.PurposeVerifyEmail, auth.Stamp("judge@example.com"), secret, time.Hour)
	require.NoError(t, err)
	_, err = f.svc.VerifyEmail(context.Background(), ghost)
	assert.ErrorIs(t, err, common.ErrInvalidCode)

	assert.False(t, f.users.get("u1").EmailVerified)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newUserFixture(t, models.User{ID: "u1", Email: "judge@example.com", PasswordHash: mustHash(t, "secret123")})
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "ghost@example.com"))
	assert.Empty(t, f.mailer.sent)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "judge@example.com"))
	require.Len(t, f.mailer.sent, 1)
	code := f.mailer.sent[0].code
	assert.Equal(t, "reset", f.mailer.sent[0].kind)

	err := f.svc.ResetPassword(ctx, code, "newpass123", "newpass124")
	var fe common.FieldErrors
	require.True(t, errors.As(err, &fe))

	require.ErrorIs(t, f.svc.ResetPassword(ctx, code, "weak", "weak"), common.ErrPasswordFailCriteria)

	require.NoError(t, f.svc.ResetPassword(ctx, code, "newpass123", "newpass123"))
	assert.NoError(t, f.hasher.inner.Compare(f.users.get("u1").PasswordHash, "newpass123"))

	// the code is bound to the old hash
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, code, "another123", "another123"), common.ErrInvalidCode)
}

func TestResetPassword_BadCode(t *testing.T) {
	f := newUserFixture(t)

	err := f.svc.ResetPassword(context.Background(), "garbage", "newpass123", "newpass123")

	assert.ErrorIs(t, err, common.ErrInvalidCode)
}

func TestCreateAccountAndSetAdmin(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	u, err := f.svc.CreateAccount(ctx, "ops@example.com", "secret123", false)
	require.NoError(t, err)
	assert.True(t, f.users.get(u.ID).EmailVerified)
	assert.Empty(t, f.mailer.sent)

	require.NoError(t, f.svc.SetAdmin(ctx, "ops@example.com", true))
	assert.True(t, f.users.get(u.ID).IsAdmin)

	assert.ErrorIs(t, f.svc.SetAdmin(ctx, "ghost@example.com", true), common.ErrorNotFound)

	n, err := f.svc.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.svc.CreateAccount(ctx, "bad", "secret123", false)
	assert.ErrorIs(t, err, common.ErrEmailFailCriteria)
}
