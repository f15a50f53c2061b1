package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Server holds the server configuration consumed from the JSON document
// passed with --server. All fields are immutable after load.
type Server struct {
	// Root is the directory every per-user jail lives under. Relative
	// paths are made absolute at load time.
	Root string

	// Bind is the address the control port listens on.
	Bind string

	// ControlPort is the TCP port for the control connection.
	ControlPort int

	// PasvMin and PasvMax bound the inclusive port range used for
	// passive data listeners.
	PasvMin int
	PasvMax int

	// PreLoginIdleSeconds and PostLoginIdleSeconds are the control
	// connection idle timeouts before and after login.
	PreLoginIdleSeconds  int
	PostLoginIdleSeconds int

	// AllowAnonymous permits the anonymous login flow.
	AllowAnonymous bool
}

// User is a single username/password record from the users document.
// Passwords are compared by exact equality.
type User struct {
	Username string
	Password string
}

// LoadServer reads the server configuration from path. Missing fields take
// their defaults; a missing or unreadable file is an error.
func LoadServer(path string) (*Server, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("Root", "./ftp_root")
	v.SetDefault("Bind", "0.0.0.0")
	v.SetDefault("ControlPort", 21)
	v.SetDefault("PasvMin", 50000)
	v.SetDefault("PasvMax", 50100)
	v.SetDefault("PreLoginIdleSeconds", 120)
	v.SetDefault("PostLoginIdleSeconds", 300)
	v.SetDefault("AllowAnonymous", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	cfg.Root = root

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Server) validate() error {
	if cfg.ControlPort < 0 || cfg.ControlPort > 65535 {
		return fmt.Errorf("control port %d out of range", cfg.ControlPort)
	}
	if cfg.PasvMin < 1 || cfg.PasvMax > 65535 || cfg.PasvMax < cfg.PasvMin {
		return fmt.Errorf("invalid passive port range [%d,%d]", cfg.PasvMin, cfg.PasvMax)
	}
	if cfg.PreLoginIdleSeconds <= 0 || cfg.PostLoginIdleSeconds <= 0 {
		return fmt.Errorf("idle timeouts must be positive")
	}
	return nil
}

// LoadUsers reads the user records from path. The document carries the
// records under a top-level "Users" key; an empty list is valid.
func LoadUsers(path string) ([]User, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("Users", []User{})

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var doc struct {
		Users []User
	}
	if err := v.Unmarshal(&doc); err != nil {
		return nil, err
	}
	return doc.Users, nil
}
