package app

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"sort"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
)

var isPath = regexp.MustCompile(`^[a-z]{3,16}/[a-z_]{3,32}$`).MatchString

// Router allows us to register many handlers with different paths and
// decode requests for them.
type Router struct {
	routes map[string]route
}

type route struct {
	msg     reflect.Type
	handler custody.Handler
}

var _ custody.Registry = (*Router)(nil)

// NewRouter returns a new empty router instance.
func NewRouter() *Router {
	return &Router{
		routes: make(map[string]route),
	}
}

// Handle adds a new Handler for the path of the given message. Messages
// routed there are decoded into a new instance of the same type.
// This function panics if the path is invalid or was already registered.
func (r *Router) Handle(m custody.Msg, h custody.Handler) {
	path := m.Path()
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path %q", path))
	}
	if _, ok := r.routes[path]; ok {
		panic(fmt.Sprintf("re-registering route: %s", path))
	}
	t := reflect.TypeOf(m)
	if t.Kind() != reflect.Ptr {
		panic(fmt.Sprintf("message of %s must be a pointer, got %T", path, m))
	}
	r.routes[path] = route{msg: t.Elem(), handler: h}
}

// Decode returns the message decoded from its JSON representation and the
// handler registered for the path.
func (r *Router) Decode(path string, raw []byte) (custody.Msg, custody.Handler, error) {
	rt, ok := r.routes[path]
	if !ok {
		return nil, nil, errors.Wrapf(errors.ErrNotFound, "no handler for path %q", path)
	}
	msg := reflect.New(rt.msg).Interface().(custody.Msg)
	if err := json.Unmarshal(raw, msg); err != nil {
		return nil, nil, errors.Wrapf(errors.ErrInvalidMsg, "decode %s: %s", path, err)
	}
	return msg, rt.handler, nil
}

// Paths returns every registered path in alphabetical order.
func (r *Router) Paths() []string {
	paths := make([]string, 0, len(r.routes))
	for p := range r.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
