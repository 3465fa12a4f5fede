package protocol

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"
)

//go:embed *.xml
var builtin embed.FS

var loadBuiltin = sync.OnceValues(func() (map[string]Interface, error) {
	files, err := fs.Glob(builtin, "*.xml")
	if err != nil {
		return nil, err
	}

	interfaces := make(map[string]Interface)
	for _, name := range files {
		file, err := builtin.Open(name)
		if err != nil {
			return nil, err
		}
		proto, err := Load(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}

		for _, i := range proto.Interfaces {
			interfaces[i.Name] = i
		}
	}
	return interfaces, nil
})

// Builtin returns the interfaces of the protocols that this module
// implements, keyed by name. It covers the core protocol, xdg-shell and
// xdg-decoration.
func Builtin() (map[string]Interface, error) {
	return loadBuiltin()
}
