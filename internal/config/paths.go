package config

// PathSet is a read-only set of request paths.
type PathSet struct {
	paths map[string]struct{}
}

func NewPathSet(paths ...string) PathSet {
	m := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		m[p] = struct{}{}
	}
	return PathSet{paths: m}
}

func (s PathSet) Contains(path string) bool {
	_, ok := s.paths[path]
	return ok
}

func (s PathSet) Len() int {
	return len(s.paths)
}
