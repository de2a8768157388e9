package dialect

import (
	"fmt"
	"strings"
	"sync"
)

var registered sync.Map // lower-cased name -> *Dialect

// Register makes d available to Get under its lower-cased name.
// Registering the same name twice panics; dialects register from init().
func Register(d *Dialect) {
	if _, loaded := registered.LoadOrStore(strings.ToLower(d.Name), d); loaded {
		panic(fmt.Sprintf("dialect %q registered twice", d.Name))
	}
}

// Get returns the dialect registered for a warehouse type.
func Get(name string) (*Dialect, bool) {
	v, ok := registered.Load(strings.ToLower(name))
	if !ok {
		return nil, false
	}
	return v.(*Dialect), true
}
