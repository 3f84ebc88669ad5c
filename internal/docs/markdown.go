package docs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

// MarkdownOptions configure Markdown page generation. The zero value
// produces plain pages with flat relative links.
type MarkdownOptions struct {
	// FrontMatter, when set, is called with each page's filename and its
	// return value is written before the page body (e.g. Jekyll headers).
	FrontMatter func(filename string) string

	// LinkTarget maps a command path ("slipway auth") to the link used in
	// cross-references. Defaults to the page filename.
	LinkTarget func(cmdPath string) string

	// MDXSafe wraps bare <placeholder> tokens in prose in backticks so
	// JSX-aware site renderers do not parse them as tags. Text inside
	// fenced code blocks is never touched.
	MDXSafe bool
}

// MarkdownFilename returns the page filename for a command:
// "slipway auth login" -> "slipway_auth_login.md".
func MarkdownFilename(cmd *cobra.Command) string {
	return pageName(cmd, "_") + ".md"
}

// WriteMarkdownTree writes one Markdown page per visible command under
// cmd (inclusive) into dir.
func WriteMarkdownTree(cmd *cobra.Command, dir string, opts MarkdownOptions) error {
	for _, c := range visibleCommands(cmd) {
		if err := WriteMarkdownTree(c, dir, opts); err != nil {
			return err
		}
	}

	filename := filepath.Join(dir, MarkdownFilename(cmd))
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	defer f.Close()

	if opts.FrontMatter != nil {
		if _, err := io.WriteString(f, opts.FrontMatter(filename)); err != nil {
			return fmt.Errorf("writing front matter to %s: %w", filename, err)
		}
	}
	if err := WriteMarkdownPage(cmd, f, opts); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// WriteMarkdownPage writes the reference page for a single command.
func WriteMarkdownPage(cmd *cobra.Command, w io.Writer, opts MarkdownOptions) error {
	cmd.InitDefaultHelpCmd()
	cmd.InitDefaultHelpFlag()

	link := opts.LinkTarget
	if link == nil {
		link = func(cmdPath string) string {
			return strings.ReplaceAll(cmdPath, " ", "_") + ".md"
		}
	}

	p := &mdPage{w: &strings.Builder{}, mdxSafe: opts.MDXSafe}

	p.heading(2, cmd.CommandPath())
	p.prose(cmd.Short)

	if anyRunnable(cmd) {
		p.heading(3, "Synopsis")
		p.prose(cmd.Long)
		if cmd.Runnable() {
			p.fence(cmd.UseLine())
		}
	}

	if len(cmd.Aliases) > 0 {
		p.heading(3, "Aliases")
		names := append([]string{cmd.Name()}, cmd.Aliases...)
		for i, n := range names {
			names[i] = "`" + n + "`"
		}
		p.prose(strings.Join(names, ", "))
	}

	if cmd.Example != "" {
		p.heading(3, "Examples")
		p.fence(cmd.Example)
	}

	if children := visibleCommands(cmd); len(children) > 0 {
		p.heading(3, "Subcommands")
		for _, c := range children {
			p.linkItem(c.CommandPath(), link(c.CommandPath()), c.Short)
		}
		p.blank()
	}

	if fs := cmd.NonInheritedFlags(); fs.HasAvailableFlags() {
		p.heading(3, "Options")
		p.fence(strings.TrimRight(fs.FlagUsages(), "\n"))
	}
	if fs := cmd.InheritedFlags(); fs.HasAvailableFlags() {
		p.heading(3, "Options inherited from parent commands")
		p.fence(strings.TrimRight(fs.FlagUsages(), "\n"))
	}

	if parent := cmd.Parent(); parent != nil {
		p.heading(3, "See also")
		p.linkItem(parent.CommandPath(), link(parent.CommandPath()), parent.Short)
		p.blank()
	}

	_, err := io.WriteString(w, p.w.String())
	return err
}

// mdPage accumulates one Markdown page. Prose goes through the MDX escape
// when enabled; fenced blocks and links never do.
type mdPage struct {
	w       *strings.Builder
	mdxSafe bool
}

func (p *mdPage) heading(level int, text string) {
	p.w.WriteString(strings.Repeat("#", level) + " " + text + "\n\n")
}

func (p *mdPage) prose(text string) {
	if text == "" {
		return
	}
	if p.mdxSafe {
		text = escapePlaceholders(text)
	}
	p.w.WriteString(text + "\n\n")
}

func (p *mdPage) fence(text string) {
	p.w.WriteString("```\n" + text + "\n```\n\n")
}

func (p *mdPage) linkItem(label, target, short string) {
	if p.mdxSafe {
		short = escapePlaceholders(short)
	}
	fmt.Fprintf(p.w, "* [%s](%s) - %s\n", label, target, short)
}

func (p *mdPage) blank() {
	p.w.WriteString("\n")
}

// placeholderRe matches bare <word> tokens that MDX parsers would read as
// JSX tags, like <owner> or <my-value>.
var placeholderRe = regexp.MustCompile(`<(\w[\w-]*)>`)

// escapePlaceholders wraps bare angle-bracket placeholders in backticks.
func escapePlaceholders(s string) string {
	return placeholderRe.ReplaceAllString(s, "`<$1>`")
}
