package flow

import (
	"os"
	"regexp"
	"strings"
)

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Vars resolves ${NAME} references. Lookups go through the layers in
// order; the first layer defining a name wins.
type Vars struct {
	layers []map[string]string
}

// NewVars builds a resolver over the given layers, highest priority first.
func NewVars(layers ...map[string]string) *Vars {
	return &Vars{layers: layers}
}

// Lookup returns the value of name.
func (v *Vars) Lookup(name string) (string, bool) {
	for _, layer := range v.layers {
		if val, ok := layer[name]; ok {
			return val, true
		}
	}
	return "", false
}

// Expand replaces every ${NAME} in s. Unknown names are left as written so
// a typo shows up in the failure message.
func (v *Vars) Expand(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := varPattern.FindStringSubmatch(ref)[1]
		if val, ok := v.Lookup(name); ok {
			return val
		}
		return ref
	})
}

// EnvLayer returns the process environment as a lookup layer.
func EnvLayer() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, val, ok := strings.Cut(kv, "="); ok {
			env[k] = val
		}
	}
	return env
}
