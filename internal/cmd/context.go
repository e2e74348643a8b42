// ABOUTME: Shared command context structure for CLI commands
// ABOUTME: Contains global configuration that can be passed to all commands
package cmd

import (
	"net/http"

	"github.com/pterm/pterm"

	"github.com/chainsights-rest/chainsights-client/internal/config"
	"github.com/chainsights-rest/chainsights-client/internal/discovery"
)

// CommandContext holds global configuration that can be passed to commands.
type CommandContext struct {
	Config     *config.Config
	HTTPClient *http.Client
	Resolver   discovery.Resolver
	Logger     *pterm.Logger
}
