// ABOUTME: Purl command — resolve a chainsights PURL and print the filtered release set as JSON
// ABOUTME: Optionally fetches and digest-verifies artifacts matching a media-type filter
package purl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chainsights-rest/chainsights-client/internal/cmd"
	"github.com/chainsights-rest/chainsights-client/internal/driver"
)

// NewPurlCommand builds the "purl" subcommand described in spec §6.4.
func NewPurlCommand(ctx *cmd.CommandContext) *cobra.Command {
	var (
		purlString     string
		allReleases    bool
		fetchMediaType string
	)

	c := &cobra.Command{
		Use:   "purl",
		Short: "Resolve a chainsights PURL and print its filtered release set",
		Long: `Parses a pkg:chainsights/<domain>/<component>[@<version>] PURL, runs the
domain flow against its namespace, locates the single matching component,
and filters its releases by version (or includes them all with
--all-releases). With --fetch-sbom, artifacts matching the given media
type are fetched and digest-verified concurrently.`,
		RunE: func(c *cobra.Command, args []string) error {
			if purlString == "" {
				return fmt.Errorf("--purl is required")
			}

			ctx.Logger.Info("Resolving purl", ctx.Logger.Args("purl", purlString))

			d := driver.New(ctx.Resolver, ctx.HTTPClient, ctx.Config.Traversal.MaxDepth, ctx.Config.Traversal.MaxArtifactBytes)

			result, err := d.RunPurl(context.Background(), purlString, allReleases, fetchMediaType)
			if err != nil {
				ctx.Logger.Error("Purl resolution failed", ctx.Logger.Args("error", err))
				os.Exit(1)
			}

			if result.Warning != "" {
				ctx.Logger.Warn(result.Warning)
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				ctx.Logger.Error("Failed to serialize filtered result", ctx.Logger.Args("error", err))
				os.Exit(1)
			}

			fmt.Println(string(out))
			return nil
		},
	}

	c.Flags().StringVar(&purlString, "purl", "", "Package URL to resolve (required)")
	c.Flags().BoolVar(&allReleases, "all-releases", false, "Include every release of the matched component")
	c.Flags().StringVar(&fetchMediaType, "fetch-sbom", "", "Fetch and digest-verify artifacts with this media type")

	return c
}
