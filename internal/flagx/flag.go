// Package flagx lets several flag sets share one command line: each layer
// picks out the flags it owns and ignores the rest.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// flagName strips the value of "-x=v" and folds "--x" into "-x", the way
// the flag package treats both spellings.
func flagName(arg string) (name string, inline bool) {
	name, _, inline = strings.Cut(arg, "=")
	if strings.HasPrefix(name, "--") {
		name = name[1:]
	}
	return name, inline
}

// FilterArgs keeps only the allowed flags from args, together with their
// values. A value is either inline ("-d=dsn") or the next argument when it
// does not start with "-". Positional arguments and unknown flags (cobra
// subcommands, their own flags) are dropped.
func FilterArgs(args []string, allowed []string) []string {
	keep := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		name, _ := flagName(f)
		keep[name] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if !strings.HasPrefix(args[i], "-") {
			continue
		}
		name, inline := flagName(args[i])
		if !keep[name] {
			continue
		}

		out = append(out, args[i])
		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigFileFlag returns the path given with -c or -config, or "" when
// neither is present. The last occurrence wins.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
