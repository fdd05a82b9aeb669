package library

// Registry holds the modules a program has included, in inclusion order.
type Registry struct {
	modules []*Module
	byName  map[string]*Module
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Module)}
}

// Register appends m. Registering a name a second time keeps the original position
// and reports false.
func (r *Registry) Register(m *Module) bool {
	if _, ok := r.byName[m.Name]; ok {
		return false
	}
	r.byName[m.Name] = m
	r.modules = append(r.modules, m)
	return true
}

func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Lookup finds command in the first registered module that defines it.
func (r *Registry) Lookup(command string) (Native, *Module, bool) {
	for _, m := range r.modules {
		if n, ok := m.Lookup(command); ok {
			return n, m, true
		}
	}
	return Native{}, nil, false
}
