// gen-docs renders the slipway command tree as reference documentation
// (Markdown pages and man pages) without building the full CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schmitthub/slipway/internal/cmd/root"
	"github.com/schmitthub/slipway/internal/cmdutil"
	"github.com/schmitthub/slipway/internal/docs"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("gen-docs", pflag.ContinueOnError)
	outDir := flags.String("dir", "", "Output directory (required)")
	markdown := flags.Bool("markdown", false, "Render Markdown pages")
	manPages := flags.Bool("man", false, "Render man pages")
	website := flags.Bool("website", false, "MDX-safe Markdown with Jekyll front matter (requires --markdown)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n\n%s", filepath.Base(args[0]), flags.FlagUsages())
	}

	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	if *outDir == "" {
		return fmt.Errorf("--dir is required")
	}
	if !*markdown && !*manPages {
		return fmt.Errorf("pick at least one format: --markdown, --man")
	}
	if *website && !*markdown {
		return fmt.Errorf("--website requires --markdown")
	}

	rootCmd, err := root.NewCmdRoot(&cmdutil.Factory{}, "", "")
	if err != nil {
		return fmt.Errorf("building command tree: %w", err)
	}

	if *markdown {
		dir := filepath.Join(*outDir, "markdown")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		opts := docs.MarkdownOptions{}
		if *website {
			opts.MDXSafe = true
			opts.FrontMatter = jekyllFrontMatter
		}
		if err := docs.WriteMarkdownTree(rootCmd, dir, opts); err != nil {
			return fmt.Errorf("rendering Markdown pages: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Markdown pages written to %s\n", dir)
	}

	if *manPages {
		dir := filepath.Join(*outDir, "man")
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
		opts := docs.ManOptions{Section: "1", Manual: "Slipway Manual"}
		if err := docs.WriteManTree(rootCmd, dir, opts); err != nil {
			return fmt.Errorf("rendering man pages: %w", err)
		}
		fmt.Fprintf(os.Stderr, "man pages written to %s\n", dir)
	}

	return nil
}

// jekyllFrontMatter derives Jekyll headers from a page filename:
// "slipway_auth_login.md" gets the title "slipway auth login" and the
// permalink /cli/slipway/auth/login/.
func jekyllFrontMatter(filename string) string {
	name := strings.TrimSuffix(filepath.Base(filename), ".md")
	title := strings.ReplaceAll(name, "_", " ")
	permalink := "/cli/" + strings.ReplaceAll(name, "_", "/") + "/"
	return fmt.Sprintf("---\nlayout: manual\npermalink: %s\ntitle: %s\n---\n\n", permalink, title)
}
