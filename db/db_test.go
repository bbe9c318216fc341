package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"voicecmd/model"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(filepath.Join(t.TempDir(), "nested", "commands.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestOpenFailsWhenParentIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := Open(filepath.Join(blocker, "commands.db"))
	require.Error(t, err)
}

func TestInsertUpdateDeleteRoundTrip(t *testing.T) {
	d := openTestDB(t)
	created := time.UnixMilli(time.Now().UnixMilli())

	cmd := model.Command{
		ID:        "c1",
		Phrase:    "mute",
		Type:      model.TypeKeyboard,
		Action:    "mute",
		CreatedAt: created,
	}
	require.NoError(t, d.Insert(cmd))

	cmds, skipped, err := d.List()
	require.NoError(t, err)
	require.Zero(t, skipped)
	require.Equal(t, []model.Command{cmd}, cmds)

	cmd.Action = "volumeDown"
	cmd.Description = "quieter"
	found, err := d.Update(cmd)
	require.NoError(t, err)
	require.True(t, found)

	cmds, _, err = d.List()
	require.NoError(t, err)
	require.Equal(t, "volumeDown", cmds[0].Action)
	require.Equal(t, "quieter", cmds[0].Description)
	require.Equal(t, created, cmds[0].CreatedAt)

	found, err = d.Delete("c1")
	require.NoError(t, err)
	require.True(t, found)

	found, err = d.Delete("c1")
	require.NoError(t, err)
	require.False(t, found)

	found, err = d.Update(cmd)
	require.NoError(t, err)
	require.False(t, found)
}

func TestListPreservesInsertionOrder(t *testing.T) {
	d := openTestDB(t)
	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, d.Insert(model.Command{ID: id, Phrase: id, Type: model.TypeSystem, Action: "show"}))
	}

	cmds, _, err := d.List()
	require.NoError(t, err)
	require.Len(t, cmds, 3)
	require.Equal(t, "z", cmds[0].ID)
	require.Equal(t, "a", cmds[1].ID)
	require.Equal(t, "m", cmds[2].ID)
}

func TestListSkipsCorruptRows(t *testing.T) {
	d := openTestDB(t)
	require.NoError(t, d.Insert(model.Command{ID: "ok", Phrase: "mute", Type: model.TypeKeyboard, Action: "mute"}))

	_, err := d.conn.Exec(`INSERT INTO commands (id, phrase, type, action, created_at) VALUES ('bad-type', 'x', 'mouse', 'click', 0)`)
	require.NoError(t, err)
	_, err = d.conn.Exec(`INSERT INTO commands (id, phrase, type, action, created_at) VALUES ('bad-time', 'y', 'app', '/bin/y', 'yesterday')`)
	require.NoError(t, err)
	_, err = d.conn.Exec(`INSERT INTO commands (id, phrase, type, action, created_at) VALUES ('no-phrase', '', 'app', '/bin/z', 0)`)
	require.NoError(t, err)

	cmds, skipped, err := d.List()
	require.NoError(t, err)
	require.Equal(t, 3, skipped)
	require.Len(t, cmds, 1)
	require.Equal(t, "ok", cmds[0].ID)
}

func TestPhoneticMappings(t *testing.T) {
	d := openTestDB(t)

	require.NoError(t, d.UpsertPhonetic(model.PhoneticMapping{Word: "vlc", Phonetic: "vee el see"}))
	require.NoError(t, d.UpsertPhonetic(model.PhoneticMapping{Word: "gimp", Phonetic: "gimp"}))
	require.NoError(t, d.UpsertPhonetic(model.PhoneticMapping{Word: "vlc", Phonetic: "vielsee"}))

	mappings, err := d.ListPhonetics()
	require.NoError(t, err)
	require.Equal(t, []model.PhoneticMapping{
		{Word: "gimp", Phonetic: "gimp"},
		{Word: "vlc", Phonetic: "vielsee"},
	}, mappings)

	found, err := d.DeletePhonetic("gimp")
	require.NoError(t, err)
	require.True(t, found)

	found, err = d.DeletePhonetic("gimp")
	require.NoError(t, err)
	require.False(t, found)
}

func TestMetaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.db")
	d, err := Open(path)
	require.NoError(t, err)

	_, ok, err := d.Meta("defaults_seeded")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, d.SetMeta("defaults_seeded", "1"))
	require.NoError(t, d.SetMeta("defaults_seeded", "2"))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()
	value, ok, err := d.Meta("defaults_seeded")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "2", value)
}
