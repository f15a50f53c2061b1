package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goftpd/ftpd/ftpd/internal/config"
)

func TestUserDirectoryCheckPasswd(t *testing.T) {
	dir := NewUserDirectory([]config.User{
		{Username: "alice", Password: "secret"},
		{Username: "Bob", Password: "hunter2"},
	})

	cases := []struct {
		name, pass string
		want       bool
	}{
		{"alice", "secret", true},
		{"alice", "Secret", false},
		{"alice", "", false},
		{"ALICE", "secret", false},
		{"Bob", "hunter2", true},
		{"bob", "hunter2", false},
		{"mallory", "secret", false},
		{"", "", false},
	}
	for _, c := range cases {
		ok, err := dir.CheckPasswd(c.name, c.pass)
		require.NoError(t, err)
		assert.Equal(t, c.want, ok, "CheckPasswd(%q, %q)", c.name, c.pass)
	}
}

func TestUserDirectoryEmpty(t *testing.T) {
	dir := NewUserDirectory(nil)
	ok, err := dir.CheckPasswd("anyone", "anything")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSimpleAuth(t *testing.T) {
	auth := &SimpleAuth{Name: "admin", Password: "pw"}
	ok, err := auth.CheckPasswd("admin", "pw")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = auth.CheckPasswd("admin", "pw2")
	require.NoError(t, err)
	assert.False(t, ok)
}
