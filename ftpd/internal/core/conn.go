// Copyright 2018 The goftp Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"bufio"
	crypto "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/goftpd/ftpd/ftpd/internal/logger"
)

// Conn is one control connection and the session state hanging off it.
type Conn struct {
	conn          net.Conn
	controlReader *bufio.Reader
	controlWriter *bufio.Writer
	server        *Server
	logger        logger.Logger
	sessionID     string
	reqUser       string
	user          string
	loggedIn      bool
	rootPath      string
	namePrefix    string
	pasv          *pasvSocket
	closed        bool
}

func (conn *Conn) LoginUser() string {
	return conn.user
}

func (conn *Conn) IsLogin() bool {
	return conn.loggedIn
}

// returns a random 20 char string that can be used as a unique session ID
func newSessionID() string {
	hash := sha256.New()
	_, err := io.CopyN(hash, crypto.Reader, 50)
	if err != nil {
		return "????????????????????"
	}
	md := hash.Sum(nil)
	mdStr := hex.EncodeToString(md)
	return mdStr[0:20]
}

// Serve starts an endless loop that reads FTP commands from the client and
// responds appropriately. Control reads carry an idle deadline that differs
// before and after login.
func (conn *Conn) Serve() {
	conn.logger.Print(conn.sessionID, "connection established")
	sessionsActive.Inc()
	defer sessionsActive.Dec()
	// send welcome
	if _, err := conn.writeMessage(220, conn.server.WelcomeMessage); err != nil {
		conn.logger.PrintError(conn.sessionID, fmt.Sprint("write error: ", err))
	}
	// read commands
	for {
		idle := time.Duration(conn.server.Config.PreLoginIdleSeconds) * time.Second
		if conn.loggedIn {
			idle = time.Duration(conn.server.Config.PostLoginIdleSeconds) * time.Second
		}
		if err := conn.conn.SetReadDeadline(time.Now().Add(idle)); err != nil {
			break
		}
		line, err := conn.controlReader.ReadString('\n')
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				_, _ = conn.writeMessage(421, "Timeout - closing control connection")
			} else if err != io.EOF {
				conn.logger.PrintError(conn.sessionID, fmt.Sprint("read error: ", err))
			}
			break
		}
		conn.receiveLine(line)
		// QUIT closes the connection, break to avoid reading from a
		// closed socket
		if conn.closed {
			break
		}
	}
	_ = conn.Close()
	conn.logger.Print(conn.sessionID, "connection terminated")
}

// Close tears the session down: control socket, outstanding passive
// listener and its pool port.
func (conn *Conn) Close() error {
	var errs *multierror.Error
	if err := conn.conn.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	conn.closed = true
	if err := conn.closePasv(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// receiveLine accepts a single line FTP command and co-ordinates an
// appropriate response. Anything a handler does not catch itself is
// converted to a 421 and ends the session.
func (conn *Conn) receiveLine(line string) {
	defer func() {
		if r := recover(); r != nil {
			conn.logger.PrintError(conn.sessionID, fmt.Sprint("handler error: ", r))
			_, _ = conn.writeMessage(421, "Server error, closing connection")
			conn.closed = true
		}
	}()
	command, param := conn.parseLine(line)
	conn.logger.PrintCommand(conn.sessionID, command, param)
	cmdObj := commands[command]
	if cmdObj == nil {
		_, _ = conn.writeMessage(502, "Command not implemented")
		return
	}
	if cmdObj.RequireAuth() && !conn.loggedIn {
		_, _ = conn.writeMessage(530, "Please login with USER and PASS")
		return
	}
	cmdObj.Execute(conn, param)
}

func (conn *Conn) parseLine(line string) (string, string) {
	params := strings.SplitN(strings.TrimSpace(line), " ", 2)
	if len(params) == 1 {
		return strings.ToUpper(params[0]), ""
	}
	return strings.ToUpper(params[0]), strings.TrimSpace(params[1])
}

// writeMessage will send a standard FTP response back to the client.
func (conn *Conn) writeMessage(code int, message string) (wrote int, err error) {
	conn.logger.PrintResponse(conn.sessionID, code, message)
	line := fmt.Sprintf("%d %s\r\n", code, message)
	wrote, err = conn.controlWriter.WriteString(line)
	if err == nil {
		err = conn.controlWriter.Flush()
	}
	return
}

// writeLines sends a multi-line reply in one flush, so it goes out
// atomically with respect to this session's writer.
func (conn *Conn) writeLines(lines ...string) error {
	for _, l := range lines {
		conn.logger.PrintResponse(conn.sessionID, 0, l)
		if _, err := conn.controlWriter.WriteString(l + "\r\n"); err != nil {
			return err
		}
	}
	return conn.controlWriter.Flush()
}

// login flips the session into the authenticated state and jails it in the
// user's home directory, creating the directory on first login.
func (conn *Conn) login(name, home string) error {
	if !withinRoot(conn.server.Config.Root, filepath.Clean(home)) {
		return fmt.Errorf("home directory escapes server root")
	}
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	resolved, err := filepath.EvalSymlinks(home)
	if err != nil {
		return err
	}
	conn.loggedIn = true
	conn.user = name
	conn.reqUser = ""
	conn.rootPath = resolved
	conn.namePrefix = "/"
	return nil
}
