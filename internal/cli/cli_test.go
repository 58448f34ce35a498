package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iliyamo/recipe-share/internal/config"
	"github.com/iliyamo/recipe-share/internal/mail"
	"github.com/iliyamo/recipe-share/internal/model"
	"github.com/iliyamo/recipe-share/internal/queue"
	"github.com/iliyamo/recipe-share/internal/repository"
	"github.com/iliyamo/recipe-share/internal/testutil"
)

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "test")
	t.Setenv("DB_NAME", "test")
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("LOG_LEVEL", "error")
}

// useDB points the commands at db for the duration of the test.
func useDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	prev := openDB
	openDB = func(context.Context, config.Config) (*gorm.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = prev })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "missing.env")))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "migrate", "cleanup-tokens", "token-stats", "set-admin", "disable-user", "mail-worker"} {
		assert.Contains(t, names, want)
	}
}

func TestSetAdmin(t *testing.T) {
	setEnv(t)
	db := testutil.OpenDB(t)
	u := &model.User{Name: "Ops", Email: "ops@example.com", PasswordHash: "h"}
	require.NoError(t, repository.NewUserRepo(db).Create(context.Background(), u))
	useDB(t, db)

	out, err := run(t, "set-admin", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "admin=true")

	_, err = run(t, "set-admin", "abc")
	assert.Error(t, err)
}

func TestSetAdminUnknownUser(t *testing.T) {
	setEnv(t)
	useDB(t, testutil.OpenDB(t))
	_, err := run(t, "set-admin", "42")
	assert.Error(t, err)
}

func TestDisableUser(t *testing.T) {
	setEnv(t)
	db := testutil.OpenDB(t)
	u := &model.User{Name: "Ops", Email: "ops@example.com", PasswordHash: "h"}
	require.NoError(t, repository.NewUserRepo(db).Create(context.Background(), u))
	useDB(t, db)

	out, err := run(t, "disable-user", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "status=disabled")

	out, err = run(t, "disable-user", "1", "--enable")
	require.NoError(t, err)
	assert.Contains(t, out, "status=active")

	_, err = run(t, "disable-user", "42")
	assert.Error(t, err)
}

func TestTokenStatsAndCleanup(t *testing.T) {
	setEnv(t)
	db := testutil.OpenDB(t)
	tokens := repository.NewTokenRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, tokens.Store(ctx, 1, "live", now.Add(time.Hour)))
	require.NoError(t, tokens.Store(ctx, 1, "old", now.Add(-time.Hour)))
	useDB(t, db)

	out, err := run(t, "token-stats")
	require.NoError(t, err)
	var st repository.TokenStats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, repository.TokenStats{Total: 2, Active: 1, Expired: 1}, st)

	db2 := testutil.OpenDB(t)
	require.NoError(t, repository.NewTokenRepo(db2).Store(ctx, 1, "old", now.Add(-time.Hour)))
	useDB(t, db2)
	out, err = run(t, "cleanup-tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 refresh tokens")
}

func TestMissingConfigFails(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")
	_, err := run(t, "migrate")
	assert.Error(t, err)
}

func TestMailWorkerRequiresSMTPHost(t *testing.T) {
	setEnv(t)
	t.Setenv("SMTP_HOST", "")
	_, err := run(t, "mail-worker")
	assert.ErrorContains(t, err, "SMTP_HOST")
}

type recordingMailer struct{ got []mail.Message }

func (r *recordingMailer) Send(_ context.Context, m mail.Message) error {
	r.got = append(r.got, m)
	return nil
}

func TestDeliverMapsJobToMessage(t *testing.T) {
	m := &recordingMailer{}
	err := deliver(m)(context.Background(), queue.MailJob{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>"})
	require.NoError(t, err)
	require.Len(t, m.got, 1)
	assert.Equal(t, mail.Message{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>"}, m.got[0])
}
