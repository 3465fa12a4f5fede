// Package protocol defines the types necessary for unmarshalling a
// protocol XML file.
package protocol

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
)

type Protocol struct {
	Name      string `xml:"name,attr"`
	Copyright string `xml:"copyright"`

	Interfaces []Interface `xml:"interface"`
}

// Load decodes a protocol XML description from r.
func Load(r io.Reader) (proto Protocol, err error) {
	d := xml.NewDecoder(r)
	err = d.Decode(&proto)
	if err != nil {
		return proto, fmt.Errorf("decode protocol: %w", err)
	}
	return proto, nil
}

type Interface struct {
	Name        string      `xml:"name,attr"`
	Version     int         `xml:"version,attr"`
	Description Description `xml:"description"`

	Requests []Op   `xml:"request"`
	Events   []Op   `xml:"event"`
	Enums    []Enum `xml:"enum"`
}

// Event returns the opcode of the named event.
func (i Interface) Event(name string) (uint16, bool) {
	return opcode(i.Events, name)
}

// Request returns the opcode of the named request.
func (i Interface) Request(name string) (uint16, bool) {
	return opcode(i.Requests, name)
}

func opcode(ops []Op, name string) (uint16, bool) {
	for i, op := range ops {
		if op.Name == name {
			return uint16(i), true
		}
	}
	return 0, false
}

type Description struct {
	Summary string `xml:"summary,attr"`
	Full    string `xml:",chardata"`
}

type Op struct {
	Name        string      `xml:"name,attr"`
	Type        string      `xml:"type,attr"`
	Since       int         `xml:"since,attr"`
	Description Description `xml:"description"`

	Args []Arg `xml:"arg"`
}

// Destructor reports whether the op destroys the object it is sent
// to.
func (op Op) Destructor() bool {
	return op.Type == "destructor"
}

// Files returns the number of file descriptors that the op carries.
func (op Op) Files() (n int) {
	for _, arg := range op.Args {
		if arg.Type == "fd" {
			n++
		}
	}
	return n
}

type Arg struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`

	Type      string `xml:"type,attr"`
	Interface string `xml:"interface,attr"`
	AllowNull bool   `xml:"allow-null,attr"`
	Version   int    `xml:"version,attr"`
}

type Enum struct {
	Name        string      `xml:"name,attr"`
	Bitfield    bool        `xml:"bitfield,attr"`
	Description Description `xml:"description"`

	Entries []Entry `xml:"entry"`
}

// Value returns the value of the named entry.
func (e Enum) Value(name string) (int, bool) {
	for _, entry := range e.Entries {
		if entry.Name == name {
			v, err := entry.Int()
			return v, err == nil
		}
	}
	return 0, false
}

type Entry struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`
	Value   string `xml:"value,attr"`
}

func (e Entry) Int() (int, error) {
	v, err := strconv.ParseInt(e.Value, 0, 0)
	return int(v), err
}
