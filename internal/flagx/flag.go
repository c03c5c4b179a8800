// Package flagx lets several flag sets share one os.Args. Each set parses
// only the flags it defines and silently skips everything else, so the JSON
// config path, the client flags and the server flags never trip over each
// other.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// split breaks "-name=value" / "--name=value" / "-name" into its parts.
// ok is false for positional arguments and the "--" terminator.
func split(arg string) (name, value string, hasValue, ok bool) {
	if len(arg) < 2 || arg[0] != '-' || arg == "--" {
		return "", "", false, false
	}
	name = strings.TrimPrefix(strings.TrimPrefix(arg, "-"), "-")
	if name == "" {
		return "", "", false, false
	}
	if i := strings.IndexByte(name, '='); i >= 0 {
		return name[:i], name[i+1:], true, true
	}
	return name, "", false, true
}

type boolFlag interface {
	IsBoolFlag() bool
}

// Known returns the subset of args that fs defines, preserving order. A
// non-boolean flag written without "=" takes the following argument as its
// value unless that argument starts with '-'.
func Known(fs *flag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name, _, hasValue, ok := split(args[i])
		if !ok {
			continue
		}
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		out = append(out, args[i])
		if hasValue {
			continue
		}
		if bf, isBool := f.Value.(boolFlag); isBool && bf.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// Parse parses the flags of fs found in args and ignores the rest.
func Parse(fs *flag.FlagSet, args []string) error {
	return fs.Parse(Known(fs, args))
}

// ConfigPath returns the JSON config file named by -c or -config. When
// neither flag is present it falls back to the envVar environment variable.
// An empty result means no config file.
func ConfigPath(envVar string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = Parse(fs, os.Args[1:])

	if path == "" && envVar != "" {
		path = os.Getenv(envVar)
	}
	return path
}
