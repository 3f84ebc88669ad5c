package docs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/spf13/cobra"
)

// ManOptions configure man page generation. Zero-value fields fall back
// to section 1 with no date line.
type ManOptions struct {
	Section string     // man section, default "1"
	Manual  string     // manual name of the title line
	Date    *time.Time // page date, omitted when nil
}

func (o ManOptions) section() string {
	if o.Section == "" {
		return "1"
	}
	return o.Section
}

// ManFilename returns the page filename for a command:
// "slipway auth login" -> "slipway-auth-login.1".
func ManFilename(cmd *cobra.Command, section string) string {
	return pageName(cmd, "-") + "." + section
}

// WriteManTree writes one man page per visible command under cmd
// (inclusive) into dir.
func WriteManTree(cmd *cobra.Command, dir string, opts ManOptions) error {
	for _, c := range visibleCommands(cmd) {
		if err := WriteManTree(c, dir, opts); err != nil {
			return err
		}
	}

	filename := filepath.Join(dir, ManFilename(cmd, opts.section()))
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	defer f.Close()

	if err := WriteManPage(cmd, f, opts); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// WriteManPage renders the man page for a single command: the page source
// is built as Markdown and converted to roff by md2man.
func WriteManPage(cmd *cobra.Command, w io.Writer, opts ManOptions) error {
	cmd.InitDefaultHelpCmd()
	cmd.InitDefaultHelpFlag()

	_, err := w.Write(md2man.Render(manSource(cmd, opts)))
	return err
}

func manSource(cmd *cobra.Command, opts ManOptions) []byte {
	var b strings.Builder
	name := cmd.CommandPath()
	section := opts.section()

	// Title line: % NAME(section) date | manual
	date := ""
	if opts.Date != nil {
		date = opts.Date.Format("Jan 2006")
	}
	fmt.Fprintf(&b, "%% %s(%s) %s | %s\n\n",
		strings.ToUpper(pageName(cmd, "-")), section, date, opts.Manual)

	b.WriteString("# NAME\n")
	short := cmd.Short
	if short == "" {
		short = "manual page for " + name
	}
	fmt.Fprintf(&b, "%s \\- %s\n\n", name, short)

	b.WriteString("# SYNOPSIS\n**" + name + "**")
	if cmd.NonInheritedFlags().HasAvailableFlags() {
		b.WriteString(" [OPTIONS]")
	}
	if cmd.HasAvailableSubCommands() {
		b.WriteString(" COMMAND")
	}
	b.WriteString("\n\n")

	if cmd.Long != "" {
		b.WriteString("# DESCRIPTION\n" + cmd.Long + "\n\n")
	}

	if children := visibleCommands(cmd); len(children) > 0 {
		b.WriteString("# COMMANDS\n")
		for _, c := range children {
			fmt.Fprintf(&b, "**%s**\n: %s\n\n", c.Name(), c.Short)
		}
	}

	// Local and inherited flags merge into one sorted list; a man page
	// reader has no use for cobra's distinction.
	if entries := collectFlags(cmd.NonInheritedFlags(), cmd.InheritedFlags()); len(entries) > 0 {
		b.WriteString("# OPTIONS\n")
		for _, e := range entries {
			if e.shorthand != "" {
				fmt.Fprintf(&b, "**-%s**, **--%s**", e.shorthand, e.name)
			} else {
				fmt.Fprintf(&b, "**--%s**", e.name)
			}
			if e.argType != "" {
				fmt.Fprintf(&b, " <%s>", e.argType)
			}
			b.WriteString("\n: " + e.usage)
			if e.defValue != "" {
				fmt.Fprintf(&b, " (default: %s)", e.defValue)
			}
			b.WriteString("\n\n")
		}
	}

	if cmd.Example != "" {
		b.WriteString("# EXAMPLES\n```\n" + cmd.Example + "\n```\n\n")
	}

	if related := relatedPages(cmd, section); len(related) > 0 {
		b.WriteString("# SEE ALSO\n")
		b.WriteString(strings.Join(related, ", ") + "\n")
	}

	return []byte(b.String())
}

// relatedPages lists the parent, sibling, and child pages referenced from
// a command's SEE ALSO section.
func relatedPages(cmd *cobra.Command, section string) []string {
	var pages []string
	bold := func(c *cobra.Command) string {
		return fmt.Sprintf("**%s(%s)**", pageName(c, "-"), section)
	}

	if parent := cmd.Parent(); parent != nil {
		pages = append(pages, bold(parent))
		for _, sibling := range visibleCommands(parent) {
			if sibling != cmd {
				pages = append(pages, bold(sibling))
			}
		}
	}
	for _, child := range visibleCommands(cmd) {
		pages = append(pages, bold(child))
	}
	return pages
}
