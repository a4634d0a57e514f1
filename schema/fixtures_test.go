package schema

import (
	"errors"

	"github.com/google/uuid"
)

// =========================================================================
// Test Data Structures
// =========================================================================

type Person struct {
	Name string
	Age  int
}

type Account struct {
	ID       uuid.UUID `prop:"id;generate:uuid"`
	Owner    string    `prop:"owner_name"`
	Balance  float64   `prop:";readonly"`
	Secret   string    `prop:";writeonly"`
	Internal string    `prop:"-"`
	note     string
	active   bool
	nickname string
}

func (a *Account) IsActive() bool { return a.active }
func (a *Account) SetActive(v bool) { a.active = v }
func (a *Account) GetNote() string { return a.note }
func (a *Account) Nickname() string { return a.nickname }
func (a *Account) String() string { return a.Owner }
func (a *Account) SetNickname(n string) error {
	if n == "" {
		return errors.New("empty nickname")
	}
	a.nickname = n
	return nil
}

type Base struct {
	CreatedBy string
}

type Revision struct {
	Version int
}

type Audited struct {
	Base
	*Revision
	Title string
}

type Connection struct {
	addr string
}

func (Connection) ExplicitConstructor() {}
func (c *Connection) GetAddr() string { return c.addr }

type Session struct {
	Token string
	ready bool
}

func (s *Session) Init() error { s.ready = true; return nil }
func (s *Session) IsReady() bool { return s.ready }

type Broken struct{}

func (b *Broken) Init() error { return errors.New("boom") }

type Panicky struct{}

func (p *Panicky) Init() error { panic("kaboom") }

type Gauge struct {
	level int
}

func (g *Gauge) GetLevel() (int, error) {
	if g.level < 0 {
		return 0, errors.New("negative level")
	}
	return g.level, nil
}

func (g *Gauge) SetLevel(l int) {
	if l > 100 {
		panic("level overflow")
	}
	g.level = l
}

type Flags struct {
	enabled bool
}

func (f *Flags) GetEnabled() bool { return !f.enabled }
func (f *Flags) IsEnabled() bool { return f.enabled }

type Renamed struct {
	First  string `prop:"dup"`
	Second string `prop:"dup"`
	Bad    string `prop:";readonly;writeonly"`
	Gen    string `prop:"gen;generate:missing"`
}

type Level int

type Label string

type Shape interface {
	Area() float64
}
