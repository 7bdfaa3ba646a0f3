package conf

// Context carries the named values injected into computed fragments:
// the special arguments of an evaluation plus any caller-supplied
// extras. Contexts are immutable; With derives extended copies.
type Context struct {
	values map[string]any
}

// NewContext creates a context holding a copy of values.
func NewContext(values map[string]any) *Context {
	c := &Context{values: make(map[string]any, len(values))}
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Value looks up a named value. The second return reports whether the
// name is present.
func (c *Context) Value(name string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[name]
	return v, ok
}

// Len returns the number of values in the context.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

// With derives a new context where extra entries override same-named
// existing ones. The receiver is left untouched.
func (c *Context) With(extra map[string]any) *Context {
	if len(extra) == 0 {
		return c
	}

	size := len(extra)
	if c != nil {
		size += len(c.values)
	}
	merged := make(map[string]any, size)
	if c != nil {
		for k, v := range c.values {
			merged[k] = v
		}
	}
	for k, v := range extra {
		merged[k] = v
	}

	return &Context{values: merged}
}
