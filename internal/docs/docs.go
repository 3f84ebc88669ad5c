// Package docs renders the slipway command tree as reference
// documentation: one Markdown page or one man(1) page per visible command.
package docs

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// pageName flattens a command path into a page basename, joining the
// path words with sep: "slipway auth login" -> "slipway-auth-login".
func pageName(cmd *cobra.Command, sep string) string {
	return strings.ReplaceAll(cmd.CommandPath(), " ", sep)
}

// visibleCommands returns cmd's documentable subcommands sorted by name.
// Hidden commands and the injected help command never get pages.
func visibleCommands(cmd *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, c := range cmd.Commands() {
		if c.Hidden || c.Name() == "help" {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// anyRunnable reports whether cmd or any visible descendant can run, which
// is what decides whether a page gets a synopsis.
func anyRunnable(cmd *cobra.Command) bool {
	if cmd.Runnable() {
		return true
	}
	for _, c := range cmd.Commands() {
		if !c.Hidden && anyRunnable(c) {
			return true
		}
	}
	return false
}

// flagEntry is one documented flag, detached from pflag so the renderers
// can sort and format a merged local+inherited list.
type flagEntry struct {
	name      string
	shorthand string
	argType   string // empty for booleans
	usage     string
	defValue  string // empty when not worth printing
}

// collectFlags flattens the visible flags of each set, in order, into one
// list sorted by long name.
func collectFlags(sets ...*pflag.FlagSet) []flagEntry {
	var entries []flagEntry
	for _, fs := range sets {
		fs.VisitAll(func(f *pflag.Flag) {
			if f.Hidden {
				return
			}
			e := flagEntry{
				name:      f.Name,
				shorthand: f.Shorthand,
				usage:     f.Usage,
			}
			if t := f.Value.Type(); t != "bool" {
				e.argType = t
			}
			switch f.DefValue {
			case "", "false", "0", "[]":
				// zero defaults add noise, not information
			default:
				e.defValue = f.DefValue
			}
			entries = append(entries, e)
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries
}
