// Copyright 2018 The goftp Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/goftpd/ftpd/ftpd/internal/config"
	"github.com/goftpd/ftpd/ftpd/internal/logger"
)

const defaultWelcomeMessage = "Server ready"

// Opts contains parameters for core.NewServer()
type Opts struct {
	// Config is the immutable server configuration. This is a mandatory
	// option.
	Config *config.Server

	Auth Auth

	// Server Name, Default is Go FTP Server
	Name string

	WelcomeMessage string

	// A logger implementation, if nil the StdLogger is used
	Logger logger.Logger
}

// Server is the root of the FTP application. You should instantiate one
// of these and call ListenAndServe() to start accepting client connections.
//
// Always use the NewServer() method to create a new Server.
type Server struct {
	*Opts
	listenTo string
	logger   logger.Logger
	listener *net.TCPListener
	pool     *PortPool
	locks    *pathLocks
	ctx      context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup
}

// ErrServerClosed is returned by ListenAndServe() or Serve() when a shutdown
// was requested.
var ErrServerClosed = errors.New("ftp: Server closed")

// serverOptsWithDefaults copies an Opts struct into a new struct, then adds
// any default values that are missing and returns the new data.
func serverOptsWithDefaults(opts *Opts) *Opts {
	var newOpts Opts
	if opts == nil {
		opts = &Opts{}
	}
	newOpts.Config = opts.Config
	if opts.Name == "" {
		newOpts.Name = "Go FTP Server"
	} else {
		newOpts.Name = opts.Name
	}

	if opts.WelcomeMessage == "" {
		newOpts.WelcomeMessage = defaultWelcomeMessage
	} else {
		newOpts.WelcomeMessage = opts.WelcomeMessage
	}

	if opts.Auth != nil {
		newOpts.Auth = opts.Auth
	}

	newOpts.Logger = &logger.StdLogger{}
	if opts.Logger != nil {
		newOpts.Logger = opts.Logger
	}

	return &newOpts
}

// NewServer initialises a new FTP server. Configuration options are provided
// via an instance of Opts.
func NewServer(opts *Opts) *Server {
	opts = serverOptsWithDefaults(opts)
	s := new(Server)
	s.Opts = opts
	s.listenTo = net.JoinHostPort(opts.Config.Bind, strconv.Itoa(opts.Config.ControlPort))
	s.logger = opts.Logger
	s.pool = NewPortPool(opts.Config.PasvMin, opts.Config.PasvMax)
	s.locks = newPathLocks()
	return s
}

// newConn constructs a new object that will handle the FTP protocol over an
// active net.TCPConn. The TCP connection should already be open before it is
// handed to this function.
func (server *Server) newConn(tcpConn net.Conn) *Conn {
	c := new(Conn)
	c.namePrefix = "/"
	c.conn = tcpConn
	c.controlReader = bufio.NewReader(tcpConn)
	c.controlWriter = bufio.NewWriter(tcpConn)
	c.server = server
	c.rootPath = server.Config.Root
	c.sessionID = newSessionID()
	c.logger = server.logger
	if rl, ok := server.logger.(interface {
		WithRemote(string) logger.Logger
	}); ok {
		c.logger = rl.WithRemote(tcpConn.RemoteAddr().String())
	}
	return c
}

// ListenAndServe asks a new Server to begin accepting client connections. It
// accepts no arguments - all configuration is provided via the NewServer
// function.
//
// If the server fails to start for any reason, an error will be returned.
// Common errors are trying to bind to a privileged port or something else
// already listening on the same port.
func (server *Server) ListenAndServe() error {
	addr, err := net.ResolveTCPAddr("tcp", server.listenTo)
	if err != nil {
		return err
	}
	listener, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return err
	}

	sessionID := ""
	server.logger.Printf(sessionID, "%s listening on %s", server.Name, listener.Addr())

	return server.Serve(listener)
}

// Serve accepts connections on a given net.Listener and handles each request
// in a new goroutine.
func (server *Server) Serve(l *net.TCPListener) error {
	server.listener = l
	server.ctx, server.cancel = context.WithCancel(context.Background())
	sessionID := ""
	for {
		tcpConn, err := server.listener.AcceptTCP()
		if err != nil {
			select {
			case <-server.ctx.Done():
				server.sessions.Wait()
				return ErrServerClosed
			default:
			}
			server.logger.PrintError(sessionID, fmt.Sprint("listening error: ", err))
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				continue
			}
			return err
		}
		_ = tcpConn.SetNoDelay(true)
		sessionsOpened.Inc()
		ftpConn := server.newConn(tcpConn)
		server.sessions.Add(1)
		go func() {
			defer server.sessions.Done()
			ftpConn.Serve()
		}()
	}
}

// Addr returns the address the server is listening on, or nil before
// Serve() has been called. Handy when the control port was configured as 0.
func (server *Server) Addr() net.Addr {
	if server.listener == nil {
		return nil
	}
	return server.listener.Addr()
}

// Shutdown will gracefully stop the server: the acceptor stops, in-flight
// sessions are allowed to finish naturally.
func (server *Server) Shutdown() error {
	var errs *multierror.Error
	if server.cancel != nil {
		server.cancel()
	}
	if server.listener != nil {
		if err := server.listener.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
		server.sessions.Wait()
	}
	return errs.ErrorOrNil()
}
