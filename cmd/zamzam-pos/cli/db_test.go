package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/zamzam-pos/zamzam-pos/internal/store"
	"github.com/zamzam-pos/zamzam-pos/internal/store/storetest"
)

func insertExpense(t *testing.T, st *store.Store, id string) {
	t.Helper()
	err := st.Write(context.Background(), func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO expenses (id, date, amount, description, category, created_at)
			VALUES (?, '2024-06-01', 500, '', 'Rent', '2024-06-01T09:00:00Z')`, id)
		return err
	})
	require.NoError(t, err)
}

func countExpenses(t *testing.T, st *store.Store) int {
	t.Helper()
	var n int
	require.NoError(t, st.Get(context.Background(), &n, `SELECT COUNT(*) FROM expenses`))
	return n
}

func TestExportThenImportCommand(t *testing.T) {
	src, _ := storetest.New(t)
	insertExpense(t, src, "exp_1")

	path := filepath.Join(t.TempDir(), "nested", "pos.db")
	cli, err := NewDatabaseCLI(src)
	require.NoError(t, err)

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := cli.ExportCommand(context.Background(), DBOptions{Path: path, JSONOutput: true, Stdout: stdout, Stderr: stderr})
	require.Zero(t, code, stderr.String())

	var summary DBSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	require.Equal(t, "export-db", summary.Command)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, summary.Bytes, info.Size())

	dst, _ := storetest.New(t)
	require.Zero(t, countExpenses(t, dst))
	target, err := NewDatabaseCLI(dst)
	require.NoError(t, err)

	stdout.Reset()
	code = target.ImportCommand(context.Background(), DBOptions{Path: path, Stdout: stdout, Stderr: stderr})
	require.Zero(t, code, stderr.String())
	require.Contains(t, stdout.String(), "import-db:")
	require.Equal(t, 1, countExpenses(t, dst))
}

func TestCommandsRequirePaths(t *testing.T) {
	st, _ := storetest.New(t)
	cli, err := NewDatabaseCLI(st)
	require.NoError(t, err)

	stderr := new(bytes.Buffer)
	require.Equal(t, 1, cli.ExportCommand(context.Background(), DBOptions{Stdout: new(bytes.Buffer), Stderr: stderr}))
	require.Contains(t, stderr.String(), "-o is required")

	stderr.Reset()
	require.Equal(t, 1, cli.ImportCommand(context.Background(), DBOptions{Stdout: new(bytes.Buffer), Stderr: stderr}))
	require.Contains(t, stderr.String(), "-i is required")

	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "absent.db")
	require.Equal(t, 1, cli.ImportCommand(context.Background(), DBOptions{Path: missing, Stdout: new(bytes.Buffer), Stderr: stderr}))
}

func TestImportCommandRejectsGarbage(t *testing.T) {
	st, _ := storetest.New(t)
	insertExpense(t, st, "exp_1")
	cli, err := NewDatabaseCLI(st)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "junk.db")
	require.NoError(t, os.WriteFile(path, []byte("not sqlite"), 0o600))

	stderr := new(bytes.Buffer)
	require.Equal(t, 1, cli.ImportCommand(context.Background(), DBOptions{Path: path, Stdout: new(bytes.Buffer), Stderr: stderr}))
	require.Contains(t, stderr.String(), "import-db:")
	require.Equal(t, 1, countExpenses(t, st))
}

func TestRestoreCommandPromotesBackup(t *testing.T) {
	images, backup := &storetest.MemoryImages{}, &storetest.MemoryBackup{}
	opts := storetest.Options(images)
	opts.Backup = backup
	st, err := store.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	insertExpense(t, st, "exp_1")
	require.NotEmpty(t, backup.Text())

	// Corrupt the primary image and reopen under the same channels.
	require.NoError(t, st.Close())
	images.Set([]byte("garbage"))
	st, err = store.New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	cli, err := NewDatabaseCLI(st)
	require.NoError(t, err)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	code := cli.RestoreCommand(context.Background(), DBOptions{Stdout: stdout, Stderr: stderr})
	require.Zero(t, code, stderr.String())
	require.Contains(t, stdout.String(), "restore-backup:")
	require.Equal(t, 1, countExpenses(t, st))
}

func TestRestoreCommandWithoutBackup(t *testing.T) {
	st, _ := storetest.New(t)
	cli, err := NewDatabaseCLI(st)
	require.NoError(t, err)

	stderr := new(bytes.Buffer)
	require.Equal(t, 1, cli.RestoreCommand(context.Background(), DBOptions{Stdout: new(bytes.Buffer), Stderr: stderr}))
	require.Contains(t, stderr.String(), "restore-backup:")
}
