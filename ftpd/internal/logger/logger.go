// Copyright 2018 The goftp Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package logger

import (
	"fmt"
	"log"

	log15 "github.com/inconshreveable/log15"
)

// Logger is the logging interface consumed by the server core. Command and
// response lines go out at debug level, session lifecycle at info.
type Logger interface {
	Print(sessionID string, message interface{})
	Printf(sessionID string, format string, v ...interface{})
	PrintError(sessionID string, message interface{})
	PrintCommand(sessionID string, command string, params string)
	PrintResponse(sessionID string, code int, message string)
}

// Use an instance of this to log in a standard format
type StdLogger struct{}

func (logger *StdLogger) Print(sessionID string, message interface{}) {
	log.Printf("%s  %s", sessionID, message)
}

func (logger *StdLogger) Printf(sessionID string, format string, v ...interface{}) {
	logger.Print(sessionID, fmt.Sprintf(format, v...))
}

func (logger *StdLogger) PrintError(sessionID string, message interface{}) {
	log.Printf("%s  ERROR: %s", sessionID, message)
}

func (logger *StdLogger) PrintCommand(sessionID string, command string, params string) {
	if command == "PASS" {
		log.Printf("%s > PASS ****", sessionID)
	} else {
		log.Printf("%s > %s %s", sessionID, command, params)
	}
}

func (logger *StdLogger) PrintResponse(sessionID string, code int, message string) {
	log.Printf("%s < %d %s", sessionID, code, message)
}

// Silent logger, produces no output
type DiscardLogger struct{}

func (logger *DiscardLogger) Print(sessionID string, message interface{})                  {}
func (logger *DiscardLogger) Printf(sessionID string, format string, v ...interface{})     {}
func (logger *DiscardLogger) PrintError(sessionID string, message interface{})             {}
func (logger *DiscardLogger) PrintCommand(sessionID string, command string, params string) {}
func (logger *DiscardLogger) PrintResponse(sessionID string, code int, message string)     {}

// Log15Logger emits structured records through log15. The session ID rides
// on every record; the remote address is attached with WithRemote.
type Log15Logger struct {
	l log15.Logger
}

// NewLog15 returns a Log15Logger backed by the root log15 logger. Handler
// setup is the caller's business.
func NewLog15() *Log15Logger {
	return &Log15Logger{l: log15.Root()}
}

// WithRemote returns a copy whose records carry the peer address.
func (logger *Log15Logger) WithRemote(remote string) Logger {
	return &Log15Logger{l: logger.l.New("remote", remote)}
}

func (logger *Log15Logger) Print(sessionID string, message interface{}) {
	logger.l.Info(fmt.Sprint(message), "session", sessionID)
}

func (logger *Log15Logger) Printf(sessionID string, format string, v ...interface{}) {
	logger.l.Info(fmt.Sprintf(format, v...), "session", sessionID)
}

func (logger *Log15Logger) PrintError(sessionID string, message interface{}) {
	logger.l.Error(fmt.Sprint(message), "session", sessionID)
}

func (logger *Log15Logger) PrintCommand(sessionID string, command string, params string) {
	if command == "PASS" {
		logger.l.Debug("> PASS ****", "session", sessionID)
	} else {
		logger.l.Debug(fmt.Sprintf("> %s %s", command, params), "session", sessionID)
	}
}

func (logger *Log15Logger) PrintResponse(sessionID string, code int, message string) {
	logger.l.Debug(fmt.Sprintf("< %d %s", code, message), "session", sessionID)
}
