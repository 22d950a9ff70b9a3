package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// ErrNoResolver is returned by resolver calls when no resolver address is configured.
var ErrNoResolver = errors.New("resolver address not configured")

// Backend is the subset of the JSON-RPC client the registry needs.
// *ethclient.Client satisfies it.
type Backend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	BlockNumber(ctx context.Context) (uint64, error)
}

var _ Backend = (*ethclient.Client)(nil)

// Config holds the contract addresses and signing key.
type Config struct {
	PrivateKey       string // hex, with or without 0x
	RegistrarAddress string
	ResolverAddress  string
	GasLimit         uint64
	CallTimeout      time.Duration
}

// Registry implements ports.NameRegistry against the registrar and resolver contracts.
type Registry struct {
	backend     Backend
	key         *ecdsa.PrivateKey
	from        common.Address
	registrar   common.Address
	resolver    *common.Address
	registrarAB abi.ABI
	resolverAB  abi.ABI
	gasLimit    uint64
	callTimeout time.Duration
	log         zerolog.Logger
}

// Dial connects to rpcURL and builds a Registry over it.
func Dial(ctx context.Context, rpcURL string, cfg Config, log zerolog.Logger) (*Registry, *ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing rpc: %w", err)
	}
	reg, err := NewRegistry(client, cfg, log)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return reg, client, nil
}

// NewRegistry creates a Registry. The resolver address is optional.
func NewRegistry(backend Backend, cfg Config, log zerolog.Logger) (*Registry, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing chain private key: %w", err)
	}
	if !common.IsHexAddress(cfg.RegistrarAddress) {
		return nil, fmt.Errorf("invalid registrar address %q", cfg.RegistrarAddress)
	}

	r := &Registry{
		backend:     backend,
		key:         key,
		from:        crypto.PubkeyToAddress(key.PublicKey),
		registrar:   common.HexToAddress(cfg.RegistrarAddress),
		gasLimit:    cfg.GasLimit,
		callTimeout: cfg.CallTimeout,
		log:         log,
	}
	if cfg.ResolverAddress != "" {
		if !common.IsHexAddress(cfg.ResolverAddress) {
			return nil, fmt.Errorf("invalid resolver address %q", cfg.ResolverAddress)
		}
		resolver := common.HexToAddress(cfg.ResolverAddress)
		r.resolver = &resolver
	}
	if r.gasLimit == 0 {
		r.gasLimit = 300000
	}
	if r.callTimeout <= 0 {
		r.callTimeout = 15 * time.Second
	}

	if r.registrarAB, err = abi.JSON(strings.NewReader(registrarABI)); err != nil {
		return nil, fmt.Errorf("parsing registrar abi: %w", err)
	}
	if r.resolverAB, err = abi.JSON(strings.NewReader(resolverABI)); err != nil {
		return nil, fmt.Errorf("parsing resolver abi: %w", err)
	}
	return r, nil
}

// From returns the relay's transaction sender.
func (r *Registry) From() common.Address { return r.from }

// Register submits register(username, owner) to the registrar.
func (r *Registry) Register(ctx context.Context, username string, owner common.Address) (string, error) {
	data, err := r.registrarAB.Pack("register", username, owner)
	if err != nil {
		return "", fmt.Errorf("packing register: %w", err)
	}
	return r.transact(ctx, r.registrar, data)
}

// GetUsername reads the name registered to owner.
func (r *Registry) GetUsername(ctx context.Context, owner common.Address) (string, error) {
	out, err := r.call(ctx, r.registrar, r.registrarAB, "getUsername", owner)
	if err != nil {
		return "", err
	}
	return unpackOne[string](out, "getUsername")
}

// Addr reads the address record of fullName. Unset records are the zero address.
func (r *Registry) Addr(ctx context.Context, fullName string) (common.Address, error) {
	if r.resolver == nil {
		return common.Address{}, ErrNoResolver
	}
	out, err := r.call(ctx, *r.resolver, r.resolverAB, "addr", [32]byte(Namehash(fullName)))
	if err != nil {
		return common.Address{}, err
	}
	return unpackOne[common.Address](out, "addr")
}

// Text reads the text record key of fullName.
func (r *Registry) Text(ctx context.Context, fullName, key string) (string, error) {
	if r.resolver == nil {
		return "", ErrNoResolver
	}
	out, err := r.call(ctx, *r.resolver, r.resolverAB, "text", [32]byte(Namehash(fullName)), key)
	if err != nil {
		return "", err
	}
	return unpackOne[string](out, "text")
}

// SetText submits setText(node, key, value) to the resolver.
func (r *Registry) SetText(ctx context.Context, fullName, key, value string) (string, error) {
	if r.resolver == nil {
		return "", ErrNoResolver
	}
	data, err := r.resolverAB.Pack("setText", [32]byte(Namehash(fullName)), key, value)
	if err != nil {
		return "", fmt.Errorf("packing setText: %w", err)
	}
	return r.transact(ctx, *r.resolver, data)
}

// Ping implements ports.HealthChecker.
func (r *Registry) Ping(ctx context.Context) error {
	_, err := r.backend.BlockNumber(ctx)
	return err
}

// Name implements ports.HealthChecker.
func (r *Registry) Name() string { return "chain" }

func (r *Registry) call(ctx context.Context, to common.Address, contract abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", method, err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	raw, err := r.backend.CallContract(ctx, ethereum.CallMsg{From: r.from, To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", method, err)
	}
	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", method, err)
	}
	return out, nil
}

// transact signs and sends a legacy transaction with the node's suggested gas price.
func (r *Registry) transact(ctx context.Context, to common.Address, data []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	nonce, err := r.backend.PendingNonceAt(ctx, r.from)
	if err != nil {
		return "", fmt.Errorf("getting nonce: %w", err)
	}
	gasPrice, err := r.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("getting gas price: %w", err)
	}
	chainID, err := r.backend.ChainID(ctx)
	if err != nil {
		return "", fmt.Errorf("getting chain id: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      r.gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), r.key)
	if err != nil {
		return "", fmt.Errorf("signing transaction: %w", err)
	}
	if err := r.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("sending transaction: %w", err)
	}

	r.log.Debug().Str("tx", signed.Hash().Hex()).Uint64("nonce", nonce).Str("to", to.Hex()).Msg("chain: transaction sent")
	return signed.Hash().Hex(), nil
}

func unpackOne[T any](out []interface{}, method string) (T, error) {
	var zero T
	if len(out) != 1 {
		return zero, fmt.Errorf("%s: expected 1 return value, got %d", method, len(out))
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected return type %T", method, out[0])
	}
	return v, nil
}
