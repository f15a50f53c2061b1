package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadServer(t *testing.T) {
	Convey("Given an empty server document", t, func() {
		path := writeFile(t, "server.json", `{}`)
		cfg, err := LoadServer(path)

		Convey("Every field takes its default", func() {
			So(err, ShouldBeNil)
			So(filepath.IsAbs(cfg.Root), ShouldBeTrue)
			So(filepath.Base(cfg.Root), ShouldEqual, "ftp_root")
			So(cfg.Bind, ShouldEqual, "0.0.0.0")
			So(cfg.ControlPort, ShouldEqual, 21)
			So(cfg.PasvMin, ShouldEqual, 50000)
			So(cfg.PasvMax, ShouldEqual, 50100)
			So(cfg.PreLoginIdleSeconds, ShouldEqual, 120)
			So(cfg.PostLoginIdleSeconds, ShouldEqual, 300)
			So(cfg.AllowAnonymous, ShouldBeTrue)
		})
	})

	Convey("Given a server document with overrides", t, func() {
		path := writeFile(t, "server.json", `{
			"Root": "/srv/ftp",
			"Bind": "192.168.1.10",
			"ControlPort": 2121,
			"PasvMin": 42000,
			"PasvMax": 42010,
			"PreLoginIdleSeconds": 10,
			"PostLoginIdleSeconds": 20,
			"AllowAnonymous": false
		}`)
		cfg, err := LoadServer(path)

		Convey("The overrides win over the defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Root, ShouldEqual, filepath.FromSlash("/srv/ftp"))
			So(cfg.Bind, ShouldEqual, "192.168.1.10")
			So(cfg.ControlPort, ShouldEqual, 2121)
			So(cfg.PasvMin, ShouldEqual, 42000)
			So(cfg.PasvMax, ShouldEqual, 42010)
			So(cfg.AllowAnonymous, ShouldBeFalse)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := LoadServer(filepath.Join(t.TempDir(), "absent.json"))
		Convey("Loading fails", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given an inverted passive range", t, func() {
		path := writeFile(t, "server.json", `{"PasvMin": 50100, "PasvMax": 50000}`)
		_, err := LoadServer(path)
		Convey("Validation rejects it", func() {
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given malformed JSON", t, func() {
		path := writeFile(t, "server.json", `{"Bind": `)
		_, err := LoadServer(path)
		Convey("Loading fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestLoadUsers(t *testing.T) {
	Convey("Given a users document with records", t, func() {
		path := writeFile(t, "users.json", `{
			"Users": [
				{"Username": "alice", "Password": "secret"},
				{"Username": "bob", "Password": "hunter2"}
			]
		}`)
		users, err := LoadUsers(path)

		Convey("Both records come back verbatim", func() {
			So(err, ShouldBeNil)
			So(len(users), ShouldEqual, 2)
			So(users[0].Username, ShouldEqual, "alice")
			So(users[0].Password, ShouldEqual, "secret")
			So(users[1].Username, ShouldEqual, "bob")
		})
	})

	Convey("Given an empty users document", t, func() {
		path := writeFile(t, "users.json", `{}`)
		users, err := LoadUsers(path)

		Convey("An empty list is valid", func() {
			So(err, ShouldBeNil)
			So(len(users), ShouldEqual, 0)
		})
	})

	Convey("Given a missing users file", t, func() {
		_, err := LoadUsers(filepath.Join(t.TempDir(), "absent.json"))
		Convey("Loading fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}
