package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"bedrock-relay/internal/service"

	"github.com/spf13/cobra"
)

func webhookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Webhook helpers",
	}
	cmd.AddCommand(webhookSignCmd())
	return cmd
}

func webhookSignCmd() *cobra.Command {
	var (
		secret    string
		bodyPath  string
		timestamp string
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the signature headers for a webhook payload",
		Example: `  relayctl webhook sign --body payload.json
  cat payload.json | relayctl webhook sign --body - --timestamp 1700000000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or RELAY_WEBHOOK_SECRET is required")
			}
			body, err := readBody(cmd, bodyPath)
			if err != nil {
				return err
			}
			if timestamp == "" {
				timestamp = strconv.FormatInt(time.Now().Unix(), 10)
			}

			verifier := service.NewHMACSignatureVerifier(service.DefaultWebhookMaxAge, service.DefaultWebhookMaxSkew)
			sig := verifier.Sign([]byte(secret), timestamp, body)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "X-Pay-Timestamp: %s\n", timestamp)
			fmt.Fprintf(out, "X-Pay-Signature: %s\n", sig)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("RELAY_WEBHOOK_SECRET"), "webhook signing secret")
	cmd.Flags().StringVar(&bodyPath, "body", "", "payload file, or - for stdin")
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "unix timestamp to sign (default now)")
	_ = cmd.MarkFlagRequired("body")

	return cmd
}

// readBody reads the payload bytes exactly as they will be sent.
func readBody(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return body, nil
}
