package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"bedrock-relay/internal/service"

	"github.com/spf13/cobra"
)

func adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative credentials",
	}
	cmd.AddCommand(adminTokenCmd())
	return cmd
}

func adminTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		issuer  string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin bearer token for POST /credits/:address/add",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or RELAY_ADMIN_JWT_SECRET is required")
			}
			tokens := service.NewJWTTokenService(secret, ttl, issuer)
			token, expiresAt, err := tokens.Generate(subject, service.RoleAdmin)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("RELAY_ADMIN_JWT_SECRET"), "admin JWT secret")
	cmd.Flags().StringVar(&subject, "subject", "relayctl", "token subject recorded in audit entries")
	cmd.Flags().StringVar(&issuer, "issuer", "bedrock-relay", "token issuer; must match admin.issuer")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")

	return cmd
}
