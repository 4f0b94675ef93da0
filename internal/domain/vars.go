package domain

import (
	"os"
	"regexp"
)

var varRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandVars replaces ${NAME} references in s. Names are looked up in vars
// first and then in the process environment. Unresolved names are left in
// place and returned in missing.
func ExpandVars(s string, vars map[string]string) (expanded string, missing []string) {
	expanded = varRef.ReplaceAllStringFunc(s, func(ref string) string {
		name := varRef.FindStringSubmatch(ref)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		missing = append(missing, name)
		return ref
	})
	return expanded, missing
}
