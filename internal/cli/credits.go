package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"bedrock-relay/pkg/response"

	"github.com/spf13/cobra"
)

const defaultRelayURL = "http://localhost:8000"

func creditsCmd() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Read or adjust credit balances on a running relay",
	}
	cmd.PersistentFlags().StringVar(&baseURL, "url", envOr("RELAY_URL", defaultRelayURL), "relay base URL")

	cmd.AddCommand(creditsGetCmd(&baseURL))
	cmd.AddCommand(creditsAddCmd(&baseURL))
	return cmd
}

func creditsGetCmd(baseURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "get ADDRESS",
		Short: "Show the credit balance of an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := strings.TrimRight(*baseURL, "/") + "/credits/" + url.PathEscape(args[0])
			return doRelayRequest(cmd, http.MethodGet, endpoint, "")
		},
	}
}

func creditsAddCmd(baseURL *string) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "add ADDRESS AMOUNT",
		Short: "Add credits; a negative amount removes them",
		Example: `  relayctl credits add 0xAbC... 10 --token $TOKEN
  relayctl credits add --token $TOKEN -- 0xAbC... -2.5`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := strconv.ParseFloat(args[1], 64); err != nil {
				return fmt.Errorf("invalid amount %q", args[1])
			}
			if token == "" {
				return fmt.Errorf("--token is required (see relayctl admin token)")
			}
			endpoint := fmt.Sprintf("%s/credits/%s/add?amount=%s",
				strings.TrimRight(*baseURL, "/"), url.PathEscape(args[0]), url.QueryEscape(args[1]))
			return doRelayRequest(cmd, http.MethodPost, endpoint, token)
		},
	}
	cmd.Flags().StringVar(&token, "token", os.Getenv("RELAY_ADMIN_TOKEN"), "admin bearer token")

	return cmd
}

// doRelayRequest prints the JSON body on success and the relay's error detail otherwise.
func doRelayRequest(cmd *cobra.Command, method, endpoint, token string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling relay: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading relay response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr response.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Detail != "" {
			return fmt.Errorf("relay returned %d %s: %s", resp.StatusCode, apiErr.ErrorCode, apiErr.Detail)
		}
		return fmt.Errorf("relay returned %d", resp.StatusCode)
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(body)))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
