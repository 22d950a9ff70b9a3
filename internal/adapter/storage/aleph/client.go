package aleph

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bedrock-relay/internal/core/ports"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
)

const (
	chainETH          = "ETH"
	messageAggregate  = "AGGREGATE"
	itemTypeInline    = "inline"
	statusRejected    = "rejected"
	maxErrorBodyBytes = 1 << 10
)

// Config points the client at an Aleph API node.
type Config struct {
	APIURL     string
	PrivateKey string // hex, with or without 0x
	Channel    string
	Timeout    time.Duration
}

// Client implements ports.AggregateStore on Aleph aggregates owned by the
// address of the configured key.
type Client struct {
	baseURL string
	http    *http.Client
	key     *ecdsa.PrivateKey
	sender  string
	channel string
	now     func() time.Time
	log     zerolog.Logger
}

// NewClient creates an Aleph client signing with cfg.PrivateKey.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing ledger private key: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		http:    &http.Client{Timeout: timeout},
		key:     key,
		sender:  crypto.PubkeyToAddress(key.PublicKey).Hex(),
		channel: cfg.Channel,
		now:     time.Now,
		log:     log,
	}, nil
}

// Sender returns the address owning the aggregates.
func (c *Client) Sender() string { return c.sender }

type aggregateResponse struct {
	Address string                            `json:"address"`
	Data    map[string]map[string]interface{} `json:"data"`
}

// FetchAggregate implements ports.AggregateStore.
func (c *Client) FetchAggregate(ctx context.Context, key string) (map[string]interface{}, error) {
	u := fmt.Sprintf("%s/api/v0/aggregates/%s.json?keys=%s", c.baseURL, c.sender, url.QueryEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("aleph: building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aleph: fetch aggregate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ports.ErrAggregateNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("fetch aggregate", resp)
	}

	var out aggregateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("aleph: decoding aggregate: %w", err)
	}
	content, ok := out.Data[key]
	if !ok || content == nil {
		return nil, ports.ErrAggregateNotFound
	}
	return content, nil
}

type itemContent struct {
	Address string                 `json:"address"`
	Key     string                 `json:"key"`
	Content map[string]interface{} `json:"content"`
	Time    float64                `json:"time"`
}

type message struct {
	Sender      string  `json:"sender"`
	Chain       string  `json:"chain"`
	Type        string  `json:"type"`
	Channel     string  `json:"channel,omitempty"`
	Time        float64 `json:"time"`
	ItemType    string  `json:"item_type"`
	ItemContent string  `json:"item_content"`
	ItemHash    string  `json:"item_hash"`
	Signature   string  `json:"signature"`
}

type submitRequest struct {
	Sync    bool     `json:"sync"`
	Message *message `json:"message"`
}

type submitResponse struct {
	MessageStatus string `json:"message_status"`
}

// CreateAggregate implements ports.AggregateStore. The posted content
// replaces the whole document under key.
func (c *Client) CreateAggregate(ctx context.Context, key string, content map[string]interface{}) error {
	msg, err := c.buildAggregateMessage(key, content)
	if err != nil {
		return err
	}

	body, err := json.Marshal(submitRequest{Sync: true, Message: msg})
	if err != nil {
		return fmt.Errorf("aleph: encoding message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v0/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("aleph: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("aleph: submit message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return statusError("submit message", resp)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.MessageStatus == statusRejected {
		return fmt.Errorf("aleph: message %s rejected", msg.ItemHash)
	}

	c.log.Debug().Str("key", key).Str("item_hash", msg.ItemHash).Int("entries", len(content)).Msg("aleph: aggregate submitted")
	return nil
}

func (c *Client) buildAggregateMessage(key string, content map[string]interface{}) (*message, error) {
	t := c.now()
	now := float64(t.Unix()) + float64(t.Nanosecond())/1e9

	item, err := json.Marshal(itemContent{Address: c.sender, Key: key, Content: content, Time: now})
	if err != nil {
		return nil, fmt.Errorf("aleph: encoding item content: %w", err)
	}
	sum := sha256.Sum256(item)
	itemHash := hex.EncodeToString(sum[:])

	sig, err := c.sign(verificationBuffer(c.sender, itemHash))
	if err != nil {
		return nil, err
	}

	return &message{
		Sender:      c.sender,
		Chain:       chainETH,
		Type:        messageAggregate,
		Channel:     c.channel,
		Time:        now,
		ItemType:    itemTypeInline,
		ItemContent: string(item),
		ItemHash:    itemHash,
		Signature:   sig,
	}, nil
}

// verificationBuffer is the string an ETH sender signs for a message.
func verificationBuffer(sender, itemHash string) []byte {
	return []byte(strings.Join([]string{chainETH, sender, messageAggregate, itemHash}, "\n"))
}

// sign produces an EIP-191 personal signature with a 27/28 recovery byte.
func (c *Client) sign(data []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(data), c.key)
	if err != nil {
		return "", fmt.Errorf("aleph: signing message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Ping implements ports.HealthChecker.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v0/version", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return statusError("version", resp)
	}
	return nil
}

// Name implements ports.HealthChecker.
func (c *Client) Name() string { return "aleph" }

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return fmt.Errorf("aleph: %s: unexpected status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(b)))
}
