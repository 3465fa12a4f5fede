package decor

import "fmt"

type binding struct {
	value  any
	active bool
}

// DispatchData carries the value bound by the innermost active call
// to DispatchWith or Frame.Dispatch at the time that a callback was
// invoked. It must not be used after the callback returns.
type DispatchData struct {
	b *binding
}

// Value returns the bound value. It panics if nothing was bound or if
// the binding has ended.
func (d DispatchData) Value() any {
	if d.b == nil {
		panic("decor: no dispatch data bound")
	}
	if !d.b.active {
		panic("decor: dispatch data used after its binding ended")
	}
	return d.b.value
}

// Get returns the bound value if its type is *T. It panics under the
// same conditions as Value.
func Get[T any](d DispatchData) (*T, bool) {
	v, ok := d.Value().(*T)
	return v, ok
}

// MustGet is like Get but panics if the bound value is not a *T.
func MustGet[T any](d DispatchData) *T {
	v, ok := Get[T](d)
	if !ok {
		panic(fmt.Errorf("decor: dispatch data is %T, not %T", d.Value(), v))
	}
	return v
}

// bindings is the stack of active bindings. It is shared by every
// Context so that a callback sees the innermost binding no matter
// which Context or Frame bound it. Like the rest of the package, it
// may only be used from one goroutine.
var bindings []*binding

// with binds data for the duration of f. Bindings nest.
func with(data any, f func()) {
	b := &binding{value: data, active: true}
	bindings = append(bindings, b)
	defer func() {
		b.active = false
		bindings = bindings[:len(bindings)-1]
	}()

	f()
}

func current() DispatchData {
	if len(bindings) == 0 {
		return DispatchData{}
	}
	return DispatchData{b: bindings[len(bindings)-1]}
}
