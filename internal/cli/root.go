// Package cli implements relayctl, the operator tool for a Bedrock relay.
package cli

import (
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// NewRootCmd builds the relayctl command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "relayctl",
		Short: "Operate a Bedrock relay",
		Long: `relayctl signs test webhooks, mints admin tokens and reads or adjusts
credit balances on a running relay.

Secrets default to the same environment variables the relay reads:
RELAY_WEBHOOK_SECRET and RELAY_ADMIN_JWT_SECRET.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(webhookCmd())
	root.AddCommand(adminCmd())
	root.AddCommand(creditsCmd())

	return root
}
