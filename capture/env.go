package capture

// Env is a lexical scope mapping binding names to integer values. A callback
// closes over an Env, so any later Assign into that Env is visible to it.
type Env struct {
	parent *Env
	values map[string]int
}

func newEnv(parent *Env) *Env {
	return &Env{parent: parent, values: make(map[string]int)}
}

func (e *Env) Get(name string) (int, bool) {
	if val, ok := e.values[name]; ok {
		return val, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	return 0, false
}

func (e *Env) Define(name string, val int) {
	e.values[name] = val
}

// Assign updates the nearest scope that already holds name and reports
// true. When no scope holds it, name is defined in e and Assign reports
// false.
func (e *Env) Assign(name string, val int) bool {
	if e.assignExisting(name, val) {
		return true
	}
	e.values[name] = val
	return false
}

func (e *Env) assignExisting(name string, val int) bool {
	if _, ok := e.values[name]; ok {
		e.values[name] = val
		return true
	}
	if e.parent != nil {
		return e.parent.assignExisting(name, val)
	}
	return false
}

// CloneShallow copies e's own bindings into a new scope with the same
// parent. Writes to the clone never reach e and vice versa.
func (e *Env) CloneShallow() *Env {
	clone := newEnv(e.parent)
	for k, v := range e.values {
		clone.values[k] = v
	}
	return clone
}
