package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVirtualJoin(t *testing.T) {
	cases := []struct {
		base, arg, want string
	}{
		{"/", "one.txt", "/one.txt"},
		{"/files", "two.txt", "/files/two.txt"},
		{"/files", "/two.txt", "/two.txt"},
		{"/", "../../etc/passwd", "/etc/passwd"},
		{"/a/b", "../c", "/a/c"},
		{"/a/b", "..", "/a"},
		{"/", "..", "/"},
		{"/", ".", "/"},
		{"/", "", "/"},
		{"/a", "b//c", "/a/b/c"},
		{"/a", "./b/./c", "/a/b/c"},
		{"/a/b", "/..", "/"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, virtualJoin(c.base, c.arg), "virtualJoin(%q, %q)", c.base, c.arg)
	}
}

// An absolute argument resolves the same from any working directory.
func TestVirtualJoinAbsoluteIgnoresBase(t *testing.T) {
	paths := []string{"x", "x/y", "../x", "x/../y", "."}
	bases := []string{"/", "/sub", "/a/b/c"}
	for _, p := range paths {
		want := virtualJoin("/", p)
		for _, base := range bases {
			assert.Equal(t, want, virtualJoin(base, "/"+p), "base %q path %q", base, p)
		}
	}
}

func newTestConn(t *testing.T) *Conn {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return &Conn{rootPath: root, namePrefix: "/"}
}

func TestBuildPathStaysInJail(t *testing.T) {
	conn := newTestConn(t)

	physical, virtual, ok := conn.buildPath("one.txt")
	require.True(t, ok)
	assert.Equal(t, "/one.txt", virtual)
	assert.Equal(t, filepath.Join(conn.rootPath, "one.txt"), physical)

	// dot-dot escapes collapse onto the root instead of leaving it
	physical, virtual, ok = conn.buildPath("../../../etc/passwd")
	require.True(t, ok)
	assert.Equal(t, "/etc/passwd", virtual)
	assert.Equal(t, filepath.Join(conn.rootPath, "etc", "passwd"), physical)

	_, virtual, ok = conn.buildPath("")
	require.True(t, ok)
	assert.Equal(t, "/", virtual)
}

func TestBuildPathRefusesSymlinkEscape(t *testing.T) {
	conn := newTestConn(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("s"), 0o644))

	link := filepath.Join(conn.rootPath, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	_, _, ok := conn.buildPath("link/secret.txt")
	assert.False(t, ok)

	_, _, ok = conn.buildPath("link")
	assert.False(t, ok)
}

func TestTryChangeDir(t *testing.T) {
	conn := newTestConn(t)
	require.NoError(t, os.MkdirAll(filepath.Join(conn.rootPath, "sub", "inner"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(conn.rootPath, "file.txt"), nil, 0o644))

	require.True(t, conn.tryChangeDir("sub"))
	assert.Equal(t, "/sub", conn.namePrefix)

	require.True(t, conn.tryChangeDir("inner"))
	assert.Equal(t, "/sub/inner", conn.namePrefix)

	require.True(t, conn.tryChangeDir(".."))
	assert.Equal(t, "/sub", conn.namePrefix)

	// past the root is clamped to the root
	require.True(t, conn.tryChangeDir("../../../.."))
	assert.Equal(t, "/", conn.namePrefix)

	assert.False(t, conn.tryChangeDir("missing"))
	assert.Equal(t, "/", conn.namePrefix)

	// a file is not a directory
	assert.False(t, conn.tryChangeDir("file.txt"))
	assert.Equal(t, "/", conn.namePrefix)
}

func TestWithinRootCaseInsensitive(t *testing.T) {
	sep := string(filepath.Separator)
	root := filepath.Join(sep+"srv", "Ftp")
	assert.True(t, withinRoot(root, filepath.Join(sep+"srv", "ftp", "x")))
	assert.True(t, withinRoot(root, filepath.Join(sep+"SRV", "FTP")))
	assert.False(t, withinRoot(root, filepath.Join(sep+"srv", "ftp2", "x")))
	assert.False(t, withinRoot(root, sep+"srv"))
}
