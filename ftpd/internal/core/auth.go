// Copyright 2018 The goftp Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"crypto/subtle"

	"github.com/goftpd/ftpd/ftpd/internal/config"
)

// Auth is an interface to auth your ftp user login.
type Auth interface {
	// Verifies login credentials
	CheckPasswd(string, string) (bool, error)
}

var (
	_ Auth = &UserDirectory{}
	_ Auth = &SimpleAuth{}
)

// UserDirectory implements Auth over the records loaded from the users
// document. Lookup is a case-sensitive exact match on the username.
type UserDirectory struct {
	users map[string]string
}

func NewUserDirectory(records []config.User) *UserDirectory {
	users := make(map[string]string, len(records))
	for _, r := range records {
		users[r.Username] = r.Password
	}
	return &UserDirectory{users: users}
}

// CheckPasswd will check user's password
func (d *UserDirectory) CheckPasswd(name, pass string) (bool, error) {
	want, ok := d.users[name]
	return ok && constantTimeEquals(pass, want), nil
}

// SimpleAuth implements Auth interface to provide a memory user login auth
type SimpleAuth struct {
	Name     string
	Password string
}

// CheckPasswd will check user's password
func (a *SimpleAuth) CheckPasswd(name, pass string) (bool, error) {
	return constantTimeEquals(name, a.Name) && constantTimeEquals(pass, a.Password), nil
}

func constantTimeEquals(a, b string) bool {
	return len(a) == len(b) && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
