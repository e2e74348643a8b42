// ABOUTME: Domain command — resolve a domain and print its aggregated catalog as JSON
// ABOUTME: Exit 0 even when the aggregate carries per-node errors; exit 1 only on invalid arguments or discovery/serialization failure
package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chainsights-rest/chainsights-client/internal/cmd"
	"github.com/chainsights-rest/chainsights-client/internal/driver"
)

// NewDomainCommand builds the "domain" subcommand described in spec §6.4.
func NewDomainCommand(ctx *cmd.CommandContext) *cobra.Command {
	var domainName string

	c := &cobra.Command{
		Use:   "domain",
		Short: "Resolve a domain's catalog attestation and print the aggregated result",
		Long: `Resolves the _chainsights TXT record for the given domain, walks the
catalog/component/release attestation graph it points to, and prints
the aggregated result as pretty JSON.

Per-node verification and fetch failures are captured inside the
aggregated output rather than aborting the command.`,
		RunE: func(c *cobra.Command, args []string) error {
			if domainName == "" {
				return fmt.Errorf("--domain is required")
			}

			ctx.Logger.Info("Resolving domain", ctx.Logger.Args("domain", domainName))

			d := driver.New(ctx.Resolver, ctx.HTTPClient, ctx.Config.Traversal.MaxDepth, ctx.Config.Traversal.MaxArtifactBytes)

			agg, err := d.RunDomain(context.Background(), domainName)
			if err != nil {
				ctx.Logger.Error("Domain resolution failed", ctx.Logger.Args("error", err))
				os.Exit(1)
			}

			out, err := json.MarshalIndent(agg, "", "  ")
			if err != nil {
				ctx.Logger.Error("Failed to serialize aggregated result", ctx.Logger.Args("error", err))
				os.Exit(1)
			}

			fmt.Println(string(out))
			return nil
		},
	}

	c.Flags().StringVar(&domainName, "domain", "", "Domain to resolve (required)")

	return c
}
