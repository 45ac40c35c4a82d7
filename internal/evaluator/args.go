package evaluator

import (
	"fmt"
	"sort"
	"strings"
)

// Flag is one structured build option. Name is written without leading
// dashes; rendering adds them. The value may itself be a quoted option
// string for the tool being driven, but name/value pairs are never joined
// or re-split by string surgery on this side of the boundary.
type Flag struct {
	Name  string
	Value string
}

// BuildArgs is the validated, structured build invocation for one variant:
// the build target, its option flags, preprocessor-style defines, and the
// path of the metrics file the build produces.
type BuildArgs struct {
	Target      string
	Flags       []Flag
	Defines     map[string]string
	MetricsFile string
}

// AddFlag appends an option flag.
func (a *BuildArgs) AddFlag(name, value string) {
	a.Flags = append(a.Flags, Flag{Name: name, Value: value})
}

// AddDefine sets a build define.
func (a *BuildArgs) AddDefine(key, value string) {
	if a.Defines == nil {
		a.Defines = make(map[string]string)
	}
	a.Defines[key] = value
}

// Validate checks the invocation for structural problems before any
// process is launched.
func (a *BuildArgs) Validate() error {
	if a.Target == "" {
		return fmt.Errorf("build args: target must not be empty")
	}
	if strings.ContainsAny(a.Target, " \t\n") {
		return fmt.Errorf("build args: target %q contains whitespace", a.Target)
	}
	if a.MetricsFile == "" {
		return fmt.Errorf("build args: metrics file must not be empty")
	}
	for _, f := range a.Flags {
		if f.Name == "" {
			return fmt.Errorf("build args: flag name must not be empty")
		}
		if strings.HasPrefix(f.Name, "-") {
			return fmt.Errorf("build args: flag name %q must not include dashes", f.Name)
		}
		if strings.ContainsAny(f.Name, " \t\n=") {
			return fmt.Errorf("build args: flag name %q contains whitespace or '='", f.Name)
		}
	}
	for k := range a.Defines {
		if k == "" || strings.ContainsAny(k, " \t\n=") {
			return fmt.Errorf("build args: define key %q is malformed", k)
		}
	}
	return nil
}

// FlagArgs renders the flags and defines as command-line arguments.
// Defines are emitted in sorted key order for deterministic invocations.
func (a *BuildArgs) FlagArgs() []string {
	out := make([]string, 0, len(a.Flags)+len(a.Defines))
	for _, f := range a.Flags {
		out = append(out, "--"+f.Name+"="+f.Value)
	}
	keys := make([]string, 0, len(a.Defines))
	for k := range a.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, "--define="+k+"="+a.Defines[k])
	}
	return out
}

// Argv renders the full argument vector: flags, defines, then the target.
func (a *BuildArgs) Argv() []string {
	return append(a.FlagArgs(), a.Target)
}
