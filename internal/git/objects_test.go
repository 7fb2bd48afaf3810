package git_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/stretchr/testify/require"

	"stackit.dev/pstack/internal/git"
	"stackit.dev/pstack/testhelpers"
)

func TestObjects(t *testing.T) {
	t.Run("blobs round trip and are content addressed", func(t *testing.T) {
		repo, err := git.NewMemoryRepository()
		require.NoError(t, err)

		id1, err := repo.WriteBlob([]byte("hello\n"))
		require.NoError(t, err)
		id2, err := repo.WriteBlob([]byte("hello\n"))
		require.NoError(t, err)
		require.Equal(t, id1, id2)
		// Same id git hash-object would produce
		require.Equal(t, "ce013625030ba8dba906f756967f9e9ca394464a", id1)

		data, err := repo.ReadBlob(id1)
		require.NoError(t, err)
		require.Equal(t, "hello\n", string(data))
	})

	t.Run("empty tree has the well known id", func(t *testing.T) {
		repo, err := git.NewMemoryRepository()
		require.NoError(t, err)

		tree, err := repo.BuildTree(map[string]git.TreeFile{})
		require.NoError(t, err)
		require.Equal(t, git.EmptyTreeID, tree)
	})

	t.Run("nested trees flatten back to the same files", func(t *testing.T) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{
			"a.txt":       "a\n",
			"a/b.txt":     "b\n",
			"a/c/d.txt":   "d\n",
			"z.txt":       "z\n",
			"a-b/one.txt": "1\n",
		})
		tree, err := m.Store.CommitTree(m.Head())
		require.NoError(t, err)

		require.Equal(t, map[string]string{
			"a.txt":       "a\n",
			"a/b.txt":     "b\n",
			"a/c/d.txt":   "d\n",
			"z.txt":       "z\n",
			"a-b/one.txt": "1\n",
		}, m.Files(tree))

		// Rebuilding from the flattened form yields the identical tree
		files, err := m.Store.TreeFiles(tree)
		require.NoError(t, err)
		rebuilt, err := m.Store.BuildTree(files)
		require.NoError(t, err)
		require.Equal(t, tree, rebuilt)
	})

	t.Run("file and directory with the same name are rejected", func(t *testing.T) {
		repo, err := git.NewMemoryRepository()
		require.NoError(t, err)
		blob, err := repo.WriteBlob([]byte("x"))
		require.NoError(t, err)

		_, err = repo.BuildTree(map[string]git.TreeFile{
			"a":   {Mode: filemode.Regular, ID: blob},
			"a/b": {Mode: filemode.Regular, ID: blob},
		})
		require.Error(t, err)
	})

	t.Run("commits keep parents, message and signatures", func(t *testing.T) {
		m := testhelpers.NewMemoryRepo(t, "main", map[string]string{"f": "1\n"})
		base := m.Head()
		child := m.PatchCommit(base, "second\n\nbody", map[string]string{"f": "2\n"})

		c, err := m.Store.ReadCommit(child)
		require.NoError(t, err)
		require.Equal(t, []string{base}, c.Parents)
		require.Equal(t, base, c.Parent())
		require.Equal(t, "second", c.Subject())
		require.Equal(t, "Test User", c.Author.Name)
		require.Equal(t, "test@example.com", c.Committer.Email)
		require.Equal(t, map[string]string{"f": "2\n"}, m.CommitFiles(child))
	})

	t.Run("reading a missing object fails", func(t *testing.T) {
		repo, err := git.NewMemoryRepository()
		require.NoError(t, err)
		_, err = repo.ReadCommit("1111111111111111111111111111111111111111")
		require.Error(t, err)
	})
}
