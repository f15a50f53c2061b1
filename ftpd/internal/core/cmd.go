// Copyright 2018 The goftp Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type Command interface {
	RequireAuth() bool
	Execute(*Conn, string)
}

type commandMap map[string]Command

var (
	commands = commandMap{
		"CDUP": commandCdup{},
		"CWD":  commandCwd{},
		"DELE": commandDele{},
		"FEAT": commandFeat{},
		"LIST": commandList{},
		"MKD":  commandMkd{},
		"NOOP": commandNoop{},
		"OPTS": commandOpts{},
		"PASS": commandPass{},
		"PASV": commandPasv{},
		"PWD":  commandPwd{},
		"QUIT": commandQuit{},
		"RETR": commandRetr{},
		"RMD":  commandRmd{},
		"STOR": commandStor{},
		"SYST": commandSyst{},
		"TYPE": commandType{},
		"USER": commandUser{},
	}
)

// commandNoop responds to the NOOP FTP command.
//
// This is essentially a ping from the client so we just respond with a
// basic OK message.
type commandNoop struct{}

func (cmd commandNoop) RequireAuth() bool {
	return false
}

func (cmd commandNoop) Execute(conn *Conn, param string) {
	_, _ = conn.writeMessage(200, "NOOP ok")
}

// commandOpts responds to the OPTS FTP command. Every option a client may
// ask for is acknowledged and ignored.
type commandOpts struct{}

func (cmd commandOpts) RequireAuth() bool {
	return false
}

func (cmd commandOpts) Execute(conn *Conn, param string) {
	_, _ = conn.writeMessage(200, "OPTS ok")
}

// commandSyst responds to the SYST FTP command by providing a canned response.
type commandSyst struct{}

func (cmd commandSyst) RequireAuth() bool {
	return false
}

func (cmd commandSyst) Execute(conn *Conn, param string) {
	_, _ = conn.writeMessage(215, "UNIX Type: L8")
}

// commandType responds to the TYPE FTP command.
//
// Transfers are binary only; I(mage) is the single accepted type.
type commandType struct{}

func (cmd commandType) RequireAuth() bool {
	return false
}

func (cmd commandType) Execute(conn *Conn, param string) {
	if strings.EqualFold(param, "I") {
		_, _ = conn.writeMessage(200, "Type set to I")
	} else {
		_, _ = conn.writeMessage(504, "Only TYPE I supported")
	}
}

// commandFeat responds to the FEAT FTP command with the fixed feature set.
type commandFeat struct{}

func (cmd commandFeat) RequireAuth() bool {
	return false
}

func (cmd commandFeat) Execute(conn *Conn, param string) {
	_ = conn.writeLines("211-Features", " PASV", " UTF8", "211 End")
}

// commandUser responds to the USER FTP command by asking for the password.
// The anonymous name is recognized case-insensitively.
type commandUser struct{}

func (cmd commandUser) RequireAuth() bool {
	return false
}

func (cmd commandUser) Execute(conn *Conn, param string) {
	if strings.EqualFold(param, "anonymous") {
		if !conn.server.Config.AllowAnonymous {
			_, _ = conn.writeMessage(530, "Anonymous access denied")
			return
		}
		conn.reqUser = "anonymous"
		_, _ = conn.writeMessage(331, "Anonymous login ok, send any password")
		return
	}
	conn.reqUser = param
	_, _ = conn.writeMessage(331, "Password required")
}

// commandPass responds to the PASS FTP command by finishing the login the
// preceding USER started. A successful login jails the session in the
// user's home under the server root.
type commandPass struct{}

func (cmd commandPass) RequireAuth() bool {
	return false
}

func (cmd commandPass) Execute(conn *Conn, param string) {
	if conn.loggedIn {
		_, _ = conn.writeMessage(230, "Logged in.")
		return
	}
	if conn.reqUser == "anonymous" {
		if !conn.server.Config.AllowAnonymous {
			_, _ = conn.writeMessage(530, "Anonymous access denied")
			return
		}
		cmd.finish(conn, "anonymous", filepath.Join(conn.server.Config.Root, "anonymous"))
		return
	}
	if conn.server.Auth == nil {
		_, _ = conn.writeMessage(530, "Login incorrect")
		return
	}
	ok, err := conn.server.Auth.CheckPasswd(conn.reqUser, param)
	if err != nil || !ok {
		_, _ = conn.writeMessage(530, "Login incorrect")
		return
	}
	home := filepath.Join(conn.server.Config.Root, "users", conn.reqUser)
	if !withinRoot(conn.server.Config.Root, filepath.Clean(home)) {
		_, _ = conn.writeMessage(530, "Login incorrect")
		return
	}
	cmd.finish(conn, conn.reqUser, home)
}

func (cmd commandPass) finish(conn *Conn, name, home string) {
	if err := conn.login(name, home); err != nil {
		conn.logger.PrintError(conn.sessionID, fmt.Sprint("login failed: ", err))
		_, _ = conn.writeMessage(421, "Server error, closing connection")
		conn.closed = true
		return
	}
	_, _ = conn.writeMessage(230, "Logged in.")
}

// commandPwd responds to the PWD FTP command.
type commandPwd struct{}

func (cmd commandPwd) RequireAuth() bool {
	return true
}

func (cmd commandPwd) Execute(conn *Conn, param string) {
	_, _ = conn.writeMessage(257, "\""+conn.namePrefix+"\" is current directory")
}

// commandCwd responds to the CWD FTP command. It allows the client to change
// the current working directory.
type commandCwd struct{}

func (cmd commandCwd) RequireAuth() bool {
	return true
}

func (cmd commandCwd) Execute(conn *Conn, param string) {
	if conn.tryChangeDir(param) {
		_, _ = conn.writeMessage(250, "Directory successfully changed")
	} else {
		_, _ = conn.writeMessage(550, "Failed to change directory")
	}
}

// commandCdup responds to the CDUP FTP command.
//
// Allows the client to change their current directory to the parent.
type commandCdup struct{}

func (cmd commandCdup) RequireAuth() bool {
	return true
}

func (cmd commandCdup) Execute(conn *Conn, param string) {
	if conn.tryChangeDir("..") {
		_, _ = conn.writeMessage(200, "OK")
	} else {
		_, _ = conn.writeMessage(550, "Failed")
	}
}

// commandPasv responds to the PASV FTP command.
//
// The client is requesting us to open a new TCP listening socket and wait
// for them to connect to it. A listener left over from an earlier PASV is
// closed first.
type commandPasv struct{}

func (cmd commandPasv) RequireAuth() bool {
	return true
}

func (cmd commandPasv) Execute(conn *Conn, param string) {
	port, ok := conn.tryOpenPasv()
	if !ok {
		_, _ = conn.writeMessage(421, "Can't open passive connection")
		return
	}
	ip := conn.passiveReplyAddress()
	msg := fmt.Sprintf("Entering Passive Mode (%d,%d,%d,%d,%d,%d)",
		ip[0], ip[1], ip[2], ip[3], port/256, port%256)
	_, _ = conn.writeMessage(227, msg)
}

// commandList responds to the LIST FTP command. It allows the client to
// retrieve a detailed listing of the contents of a directory.
type commandList struct{}

func (cmd commandList) RequireAuth() bool {
	return true
}

func (cmd commandList) Execute(conn *Conn, param string) {
	defer func() { _ = conn.closePasv() }()
	var lines []byte
	if physical, _, ok := conn.buildPath(param); ok {
		lines = unixListLines(physical)
	}
	data, ok := conn.acceptData()
	if !ok {
		_, _ = conn.writeMessage(425, "Can't open data connection")
		return
	}
	if _, err := conn.writeMessage(150, "Opening data connection for LIST"); err != nil {
		_ = data.Close()
		return
	}
	n, err := data.Write(lines)
	closeErr := data.Close()
	if err != nil || closeErr != nil {
		_, _ = conn.writeMessage(451, "Local error in processing")
		return
	}
	transfersTotal.WithLabelValues("LIST").Inc()
	transferBytes.WithLabelValues("out").Add(float64(n))
	_, _ = conn.writeMessage(226, "Transfer complete")
}

// commandRetr responds to the RETR FTP command. It streams the named file
// to the client over the passive data connection, in binary.
type commandRetr struct{}

func (cmd commandRetr) RequireAuth() bool {
	return true
}

func (cmd commandRetr) Execute(conn *Conn, param string) {
	defer func() { _ = conn.closePasv() }()
	if param == "" {
		_, _ = conn.writeMessage(501, "Filename required")
		return
	}
	physical, virtual, ok := conn.buildPath(param)
	if !ok {
		_, _ = conn.writeMessage(550, "File not found")
		return
	}
	// shared-read for the duration of the transfer
	unlock := conn.server.locks.lockRead(physical)
	defer unlock()
	info, err := os.Stat(physical)
	if err != nil || info.IsDir() {
		_, _ = conn.writeMessage(550, "File not found")
		return
	}
	file, err := os.Open(physical)
	if err != nil {
		_, _ = conn.writeMessage(550, "File not found")
		return
	}
	defer file.Close()
	data, ok := conn.acceptData()
	if !ok {
		_, _ = conn.writeMessage(425, "Can't open data connection")
		return
	}
	if _, err := conn.writeMessage(150, "Opening data connection for "+path.Base(virtual)); err != nil {
		_ = data.Close()
		return
	}
	n, err := io.Copy(data, file)
	closeErr := data.Close()
	if err != nil || closeErr != nil {
		_, _ = conn.writeMessage(451, "Local error in processing")
		return
	}
	transfersTotal.WithLabelValues("RETR").Inc()
	transferBytes.WithLabelValues("out").Add(float64(n))
	_, _ = conn.writeMessage(226, "Transfer complete")
}

// commandStor responds to the STOR FTP command. It receives the client's
// upload over the passive data connection, truncating an existing target.
// A target whose parent directory does not exist is refused.
type commandStor struct{}

func (cmd commandStor) RequireAuth() bool {
	return true
}

func (cmd commandStor) Execute(conn *Conn, param string) {
	defer func() { _ = conn.closePasv() }()
	if param == "" {
		_, _ = conn.writeMessage(501, "Filename required")
		return
	}
	physical, _, ok := conn.buildPath(param)
	if !ok {
		_, _ = conn.writeMessage(550, "Invalid path")
		return
	}
	// exclusive write lock for the duration of the transfer
	unlock := conn.server.locks.lockWrite(physical)
	defer unlock()
	file, err := os.OpenFile(physical, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		_, _ = conn.writeMessage(550, "Invalid path")
		return
	}
	data, ok := conn.acceptData()
	if !ok {
		_ = file.Close()
		_, _ = conn.writeMessage(425, "Can't open data connection")
		return
	}
	if _, err := conn.writeMessage(150, "Opening data connection for upload"); err != nil {
		_ = file.Close()
		_ = data.Close()
		return
	}
	n, err := io.Copy(file, data)
	_ = data.Close()
	if err != nil {
		_ = file.Close()
		_, _ = conn.writeMessage(451, "Local error in processing")
		return
	}
	if err := file.Close(); err != nil {
		_, _ = conn.writeMessage(451, "Local error in processing")
		return
	}
	transfersTotal.WithLabelValues("STOR").Inc()
	transferBytes.WithLabelValues("in").Add(float64(n))
	_, _ = conn.writeMessage(226, "Transfer complete")
}

// commandDele responds to the DELE FTP command. It allows the client to
// delete a file.
type commandDele struct{}

func (cmd commandDele) RequireAuth() bool {
	return true
}

func (cmd commandDele) Execute(conn *Conn, param string) {
	if param == "" {
		_, _ = conn.writeMessage(501, "Filename required")
		return
	}
	physical, _, ok := conn.buildPath(param)
	if !ok {
		_, _ = conn.writeMessage(550, "File not found")
		return
	}
	info, err := os.Stat(physical)
	if err != nil || info.IsDir() {
		_, _ = conn.writeMessage(550, "File not found")
		return
	}
	if err := os.Remove(physical); err != nil {
		_, _ = conn.writeMessage(450, "Delete failed")
		return
	}
	_, _ = conn.writeMessage(250, "File deleted")
}

// commandMkd responds to the MKD FTP command. It allows the client to create
// a new directory.
type commandMkd struct{}

func (cmd commandMkd) RequireAuth() bool {
	return true
}

func (cmd commandMkd) Execute(conn *Conn, param string) {
	if param == "" {
		_, _ = conn.writeMessage(501, "Directory name required")
		return
	}
	physical, _, ok := conn.buildPath(param)
	if !ok {
		_, _ = conn.writeMessage(550, "Invalid path")
		return
	}
	if _, err := os.Stat(physical); err == nil {
		_, _ = conn.writeMessage(550, "Directory already exists")
		return
	}
	if err := os.Mkdir(physical, 0o755); err != nil {
		_, _ = conn.writeMessage(550, "Create directory failed")
		return
	}
	_, _ = conn.writeMessage(257, "\""+param+"\" directory created")
}

// commandRmd responds to the RMD FTP command. It removes an empty directory
// inside the jail; the jail root itself cannot be removed.
type commandRmd struct{}

func (cmd commandRmd) RequireAuth() bool {
	return true
}

func (cmd commandRmd) Execute(conn *Conn, param string) {
	if param == "" {
		_, _ = conn.writeMessage(501, "Directory name required")
		return
	}
	physical, _, ok := conn.buildPath(param)
	if !ok {
		_, _ = conn.writeMessage(550, "Directory not found")
		return
	}
	info, err := os.Stat(physical)
	if err != nil || !info.IsDir() {
		_, _ = conn.writeMessage(550, "Directory not found")
		return
	}
	if filepath.Clean(physical) == filepath.Clean(conn.rootPath) {
		_, _ = conn.writeMessage(550, "Remove directory failed")
		return
	}
	entries, err := os.ReadDir(physical)
	if err != nil {
		_, _ = conn.writeMessage(550, "Remove directory failed")
		return
	}
	if len(entries) > 0 {
		_, _ = conn.writeMessage(550, "Directory not empty")
		return
	}
	if err := os.Remove(physical); err != nil {
		_, _ = conn.writeMessage(550, "Remove directory failed")
		return
	}
	_, _ = conn.writeMessage(250, "Directory removed")
}

// commandQuit responds to the QUIT FTP command. The client has requested
// the connection be closed.
type commandQuit struct{}

func (cmd commandQuit) RequireAuth() bool {
	return false
}

func (cmd commandQuit) Execute(conn *Conn, param string) {
	_, _ = conn.writeMessage(221, "Bye")
	conn.closed = true
}
