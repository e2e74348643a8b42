// ABOUTME: Main entry point for the chainsights CLI application
// ABOUTME: Sets up the root command and executes the CLI
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/chainsights-rest/chainsights-client/internal/cmd"
	"github.com/chainsights-rest/chainsights-client/internal/cmd/domain"
	"github.com/chainsights-rest/chainsights-client/internal/cmd/purl"
	"github.com/chainsights-rest/chainsights-client/internal/config"
	"github.com/chainsights-rest/chainsights-client/internal/discovery"
)

var (
	// Global flags
	configPath string
	dnsServer  string
	timeout    int
	maxDepth   int
	verbose    bool
	quiet      bool
)

// cmdContext is constructed empty at registration time and populated by
// rootCmd's PersistentPreRunE, once cobra has parsed argv into the
// package-level flag variables above. The domain/purl subcommands only
// read its fields inside their own RunE, which always runs after the
// parent's PersistentPreRunE, so they observe the parsed values.
var cmdContext = &cmd.CommandContext{}

var rootCmd = &cobra.Command{
	Use:   "chainsights",
	Short: "Discover and verify supply-chain attestation graphs",
	Long: `Chainsights resolves a domain's published attestation catalog, verifies
every DSSE-signed manifest it walks against its expected signer identity,
and prints the resulting catalog/component/release graph as JSON.

It never contacts a transparency log or certificate authority: signer
identity is established solely by matching the leaf certificate's SAN
against the identity declared alongside each link.`,
	PersistentPreRunE: setupCommandContext,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dnsServer, "dns-server", "", "DNS server to query for discovery records (host:port)")
	rootCmd.PersistentFlags().IntVar(&timeout, "timeout", 0, "HTTP request timeout in seconds (DNS queries keep the resolver's built-in timeout)")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 0, "Maximum traversal depth (root=0)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging (debug level)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Enable quiet mode (warnings and errors only)")

	rootCmd.AddCommand(domain.NewDomainCommand(cmdContext))
	rootCmd.AddCommand(purl.NewPurlCommand(cmdContext))
}

// setupCommandContext builds the logger, config, HTTP client and
// resolver from the now-parsed global flags and fills in cmdContext.
// It runs as rootCmd's PersistentPreRunE, after cobra parses argv and
// before any subcommand's RunE.
func setupCommandContext(c *cobra.Command, args []string) error {
	var logger *pterm.Logger
	if quiet {
		logger = pterm.DefaultLogger.WithTime(false).WithLevel(pterm.LogLevelWarn)
	} else if verbose {
		logger = pterm.DefaultLogger.WithTime(false).WithLevel(pterm.LogLevelDebug)
	} else {
		logger = pterm.DefaultLogger.WithTime(false).WithLevel(pterm.LogLevelInfo)
	}

	// Configure logger to write to stderr to keep stdout clean for JSON output
	logger = logger.WithWriter(os.Stderr)

	configOpts := config.DefaultConfigOpts()
	if configPath != "" {
		configOpts = configOpts.WithConfigPath(configPath)
	}
	configManager := config.NewConfigManager(configOpts)
	cfg, _, err := configManager.LoadConfig()
	if err != nil {
		logger.Warn("Failed to load configuration, using defaults", logger.Args("error", err))
		cfg = config.DefaultConfig()
	}

	if dnsServer != "" {
		cfg.Network.DNSServer = dnsServer
	}
	if timeout > 0 {
		cfg.Network.HTTPTimeoutSeconds = timeout
	}
	if maxDepth > 0 {
		cfg.Traversal.MaxDepth = maxDepth
	}

	httpTimeout := time.Duration(cfg.Network.HTTPTimeoutSeconds) * time.Second

	cmdContext.Config = cfg
	cmdContext.HTTPClient = &http.Client{Timeout: httpTimeout}
	cmdContext.Resolver = discovery.NewClient(cfg.Network.DNSServer)
	cmdContext.Logger = logger

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if cmdContext.Logger != nil {
			cmdContext.Logger.Error("Command execution failed", cmdContext.Logger.Args("error", err))
		}
		os.Exit(1)
	}
}
