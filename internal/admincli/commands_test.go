package admincli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/classify"
	"github.com/dmitrijs2005/bjcp-scoresheets/internal/server/models"
)

type fakeAccounts struct {
	created  []string
	admins   map[string]bool
	count    int
	err      error
	password string
}

func (f *fakeAccounts) CreateAccount(_ context.Context, email, password string, admin bool) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, email)
	f.password = password
	if admin {
		f.admins[email] = true
	}
	return &models.User{ID: "u1", Email: email, IsAdmin: admin}, nil
}

func (f *fakeAccounts) SetAdmin(_ context.Context, email string, admin bool) error {
	if f.err != nil {
		return f.err
	}
	f.admins[email] = admin
	return nil
}

func (f *fakeAccounts) CountUsers(context.Context) (int, error) {
	return f.count, f.err
}

type fakeBackend struct {
	accounts *fakeAccounts
	migrated bool
	closed   bool
	dsn      string
}

func (b *fakeBackend) Accounts() Accounts { return b.accounts }

func (b *fakeBackend) Migrate(context.Context) error {
	b.migrated = true
	return b.accounts.err
}

func (b *fakeBackend) Describe(ctx context.Context, err error) string {
	return describe(ctx, classify.New(classify.DefaultRegistry, logging.Nop{}), err)
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{accounts: &fakeAccounts{admins: map[string]bool{}}}
}

func run(t *testing.T, b *fakeBackend, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(func(_ context.Context, dsn string) (Backend, error) {
		b.dsn = dsn
		return b, nil
	}, strings.NewReader(stdin))

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func stubPasswords(t *testing.T, entries ...string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	i := 0
	readPassword = func(int) ([]byte, error) {
		if i >= len(entries) {
			return nil, errors.New("no more input")
		}
		pw := entries[i]
		i++
		return []byte(pw), nil
	}
}

func TestMigrate(t *testing.T) {
	b := newBackend()
	out, err := run(t, b, "", "migrate", "--dsn", "postgres://x")
	require.NoError(t, err)
	assert.True(t, b.migrated)
	assert.True(t, b.closed)
	assert.Equal(t, "postgres://x", b.dsn)
	assert.Contains(t, out, "Migrations applied")
}

func TestCreateUser(t *testing.T) {
	stubPasswords(t, "secret123", "secret123")
	b := newBackend()

	out, err := run(t, b, "", "create-user", "--email", "org@example.com", "--admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"org@example.com"}, b.accounts.created)
	assert.Equal(t, "secret123", b.accounts.password)
	assert.True(t, b.accounts.admins["org@example.com"])
	assert.Contains(t, out, "Created user org@example.com (u1)")
}

func TestCreateUser_PromptsForEmail(t *testing.T) {
	stubPasswords(t, "secret123", "secret123")
	b := newBackend()

	_, err := run(t, b, "judge@example.com\n", "create-user")
	require.NoError(t, err)
	assert.Equal(t, []string{"judge@example.com"}, b.accounts.created)
	assert.False(t, b.accounts.admins["judge@example.com"])
}

func TestCreateUser_PasswordMismatch(t *testing.T) {
	stubPasswords(t, "secret123", "secret124")
	b := newBackend()

	_, err := run(t, b, "", "create-user", "--email", "org@example.com")
	require.ErrorIs(t, err, errPasswordMismatch)
	assert.Empty(t, b.accounts.created)
	assert.False(t, b.closed, "backend must not be opened")
}

func TestCreateUser_ServiceErrorIsDescribed(t *testing.T) {
	stubPasswords(t, "short", "short")
	b := newBackend()
	b.accounts.err = common.ErrPasswordFailCriteria

	_, err := run(t, b, "", "create-user", "--email", "org@example.com")
	require.Error(t, err)
	assert.Equal(t, "Password does not meet the required criteria", err.Error())
}

func TestGrantAdmin(t *testing.T) {
	b := newBackend()

	out, err := run(t, b, "", "grant-admin", "judge@example.com")
	require.NoError(t, err)
	assert.True(t, b.accounts.admins["judge@example.com"])
	assert.Contains(t, out, "granted")

	out, err = run(t, b, "", "grant-admin", "judge@example.com", "--revoke")
	require.NoError(t, err)
	assert.False(t, b.accounts.admins["judge@example.com"])
	assert.Contains(t, out, "removed")
}

func TestGrantAdmin_RequiresEmail(t *testing.T) {
	_, err := run(t, newBackend(), "", "grant-admin")
	assert.Error(t, err)
}

func TestCountUsers(t *testing.T) {
	b := newBackend()
	b.accounts.count = 7

	out, err := run(t, b, "", "count-users")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestUnclassifiedErrorKeepsText(t *testing.T) {
	b := newBackend()
	b.accounts.err = errors.New("connection reset")

	_, err := run(t, b, "", "count-users")
	require.Error(t, err)
	assert.Equal(t, "connection reset", err.Error())
}

func TestOpenFailure(t *testing.T) {
	root := NewRootCmd(func(context.Context, string) (Backend, error) {
		return nil, errors.New("dial tcp: refused")
	}, strings.NewReader(""))
	root.SetArgs([]string{"count-users"})
	root.SetOut(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect:")
}

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name: " {
		t.Fatalf("prompt = %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	if _, err := GetPassword(&out, "Password"); err == nil {
		t.Fatal("expected error")
	}
}
