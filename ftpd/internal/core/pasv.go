// Copyright 2018 The goftp Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"net"
	"strconv"
	"time"
)

const (
	dataAcceptTimeout = 15 * time.Second
	dataIOTimeout     = 15 * time.Second
)

// pasvSocket is a session's outstanding passive listener together with the
// pool port backing it. At most one exists per session.
type pasvSocket struct {
	listener *net.TCPListener
	port     int
}

// DataSocket wraps the accepted passive connection and refreshes the I/O
// deadline before every read and write.
type DataSocket struct {
	conn *net.TCPConn
}

func (s *DataSocket) Read(p []byte) (int, error) {
	if err := s.conn.SetReadDeadline(time.Now().Add(dataIOTimeout)); err != nil {
		return 0, err
	}
	return s.conn.Read(p)
}

func (s *DataSocket) Write(p []byte) (int, error) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(dataIOTimeout)); err != nil {
		return 0, err
	}
	return s.conn.Write(p)
}

func (s *DataSocket) Close() error {
	return s.conn.Close()
}

// tryOpenPasv closes any outstanding passive listener, then walks the shared
// port pool until a listener binds. Ports that fail to bind are held while
// the next one is tried and go back to the pool once the walk ends; an
// exhausted pool reports failure.
func (conn *Conn) tryOpenPasv() (int, bool) {
	conn.closePasv()
	bind := conn.server.Config.Bind
	if ip := net.ParseIP(bind); ip == nil || ip.IsUnspecified() {
		bind = "0.0.0.0"
	}
	var failed []int
	defer func() {
		for _, p := range failed {
			conn.server.pool.Release(p)
		}
	}()
	for {
		port, ok := conn.server.pool.TryAcquire()
		if !ok {
			return 0, false
		}
		addr, err := net.ResolveTCPAddr("tcp4", net.JoinHostPort(bind, strconv.Itoa(port)))
		if err != nil {
			conn.server.pool.Release(port)
			return 0, false
		}
		listener, err := net.ListenTCP("tcp4", addr)
		if err != nil {
			failed = append(failed, port)
			continue
		}
		conn.pasv = &pasvSocket{listener: listener, port: port}
		return port, true
	}
}

// acceptData waits for the single inbound connection on the outstanding
// passive listener. The listener is closed and its port released regardless
// of the outcome.
func (conn *Conn) acceptData() (*DataSocket, bool) {
	pasv := conn.pasv
	if pasv == nil {
		return nil, false
	}
	defer conn.closePasv()
	if err := pasv.listener.SetDeadline(time.Now().Add(dataAcceptTimeout)); err != nil {
		return nil, false
	}
	tcpConn, err := pasv.listener.AcceptTCP()
	if err != nil {
		return nil, false
	}
	return &DataSocket{conn: tcpConn}, true
}

// closePasv stops the outstanding passive listener, if any, and returns its
// port to the pool. Safe to call repeatedly.
func (conn *Conn) closePasv() error {
	if conn.pasv == nil {
		return nil
	}
	err := conn.pasv.listener.Close()
	conn.server.pool.Release(conn.pasv.port)
	conn.pasv = nil
	return err
}

// passiveReplyAddress returns the IPv4 address advertised in PASV replies:
// the control connection's local endpoint, overridden by a non-wildcard
// bind address, falling back to loopback when still unspecified.
func (conn *Conn) passiveReplyAddress() net.IP {
	var ip net.IP
	if local, ok := conn.conn.LocalAddr().(*net.TCPAddr); ok {
		ip = local.IP
	}
	if bind := net.ParseIP(conn.server.Config.Bind); bind != nil && !bind.IsUnspecified() {
		ip = bind
	}
	if ip == nil || ip.IsUnspecified() {
		ip = net.IPv4(127, 0, 0, 1)
	}
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return net.IPv4(127, 0, 0, 1).To4()
}
