package docs

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// Test command tree for all format tests
// This simulates a slipway-like command hierarchy

func newTestRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "slipway",
		Short: "Release Docker images straight from Git context",
		Long:  "Slipway builds, tags, and pushes Docker images from local or remote Git repositories in one step.",
	}

	// Add auth command with subcommands
	authCmd := newTestAuthCmd()
	rootCmd.AddCommand(authCmd)

	// Add config command
	configCmd := newTestConfigCmd()
	rootCmd.AddCommand(configCmd)

	// Add hidden command (should be skipped in docs)
	hiddenCmd := &cobra.Command{
		Use:    "hidden",
		Short:  "This command is hidden",
		Hidden: true,
	}
	rootCmd.AddCommand(hiddenCmd)

	// Add global flags
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "Enable debug logging")

	return rootCmd
}

func newTestAuthCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage registry credentials",
		Long:  "Manage registry credentials stored in the system keychain for use during release.",
	}

	// auth login
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Store registry credentials",
		Long:  "Store credentials for a container registry in the system keychain.",
		Example: `  # Store Docker Hub credentials
  slipway auth login --username captain

  # Store credentials for a private registry
  slipway auth login --registry ghcr.io --username captain`,
	}
	loginCmd.Flags().StringP("username", "u", "", "Registry username")
	loginCmd.Flags().String("registry", "", "Registry host (defaults to Docker Hub)")
	authCmd.AddCommand(loginCmd)

	// auth logout
	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored registry credentials",
		Long:  "Remove credentials for a container registry from the system keychain.",
	}
	logoutCmd.Flags().String("registry", "", "Registry host (defaults to Docker Hub)")
	authCmd.AddCommand(logoutCmd)

	// auth status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored registry credentials",
		Long:  "Show which credentials are stored for a container registry.",
	}
	statusCmd.Flags().String("registry", "", "Registry host (defaults to Docker Hub)")
	authCmd.AddCommand(statusCmd)

	return authCmd
}

func newTestConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "Read and write persistent slipway configuration values.",
	}

	// config list
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configuration values",
		Long:    "Print every configuration key with its current value.",
	}
	configCmd.AddCommand(listCmd)

	// config set
	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Write a configuration value to the config file.",
	}
	configCmd.AddCommand(setCmd)

	return configCmd
}

// checkStringContains verifies that got contains expected substring
func checkStringContains(t *testing.T, got, expected string) {
	t.Helper()
	if !strings.Contains(got, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, got)
	}
}

// checkStringOmits verifies that got does not contain unexpected substring
func checkStringOmits(t *testing.T, got, unexpected string) {
	t.Helper()
	if strings.Contains(got, unexpected) {
		t.Errorf("expected output to not contain %q, got:\n%s", unexpected, got)
	}
}
