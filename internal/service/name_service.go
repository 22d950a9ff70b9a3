package service

import (
	"context"
	"errors"
	"fmt"

	"bedrock-relay/internal/core/domain"
	"bedrock-relay/internal/core/ports"
	"bedrock-relay/pkg/apperror"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// ErrPinningDisabled is returned by SetAvatar when no pinning gateway is configured.
var ErrPinningDisabled = errors.New("ipfs pinning is not configured")

// nameService implements ports.NameService.
type nameService struct {
	registry ports.NameRegistry
	pinner   ports.ContentPinner
	parent   string
	log      zerolog.Logger
}

// NewNameService creates a name service for subnames of parent.
// pinner may be nil, which disables avatar uploads.
func NewNameService(registry ports.NameRegistry, pinner ports.ContentPinner, parent string, log zerolog.Logger) ports.NameService {
	return &nameService{registry: registry, pinner: pinner, parent: parent, log: log}
}

func (s *nameService) Register(ctx context.Context, username, address string) (*domain.Registration, error) {
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, apperror.ErrInvalidUsername()
	}
	owner, err := domain.ParseAddress(address)
	if err != nil {
		return nil, apperror.ErrInvalidAddress(err)
	}

	txHash, err := s.registry.Register(ctx, name, owner)
	if err != nil {
		s.log.Error().Err(err).Str("username", name).Str("owner", owner.Hex()).Msg("names: register failed")
		return nil, apperror.ErrChainCall(err)
	}

	s.log.Info().Str("username", name).Str("owner", owner.Hex()).Str("tx", txHash).Msg("names: registration submitted")
	return &domain.Registration{TxHash: txHash}, nil
}

func (s *nameService) Username(ctx context.Context, address string) (*domain.UsernameRecord, error) {
	owner, err := domain.ParseAddress(address)
	if err != nil {
		return nil, apperror.ErrInvalidAddress(err)
	}

	username, err := s.registry.GetUsername(ctx, owner)
	if err != nil {
		return nil, apperror.ErrChainCall(err)
	}
	return &domain.UsernameRecord{Username: username}, nil
}

func (s *nameService) Available(ctx context.Context, username string) (*domain.Availability, error) {
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, apperror.ErrInvalidUsername()
	}

	addr, err := s.registry.Addr(ctx, domain.FullName(name, s.parent))
	if err != nil {
		return nil, apperror.ErrChainCall(err)
	}
	return &domain.Availability{Username: name, Available: addr == (common.Address{})}, nil
}

func (s *nameService) Resolve(ctx context.Context, username string) (*domain.Resolution, error) {
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, apperror.ErrInvalidUsername()
	}

	full := domain.FullName(name, s.parent)
	addr, err := s.registry.Addr(ctx, full)
	if err != nil {
		return nil, apperror.ErrChainCall(err)
	}
	if addr == (common.Address{}) {
		return nil, apperror.ErrNameNotFound(full)
	}
	return &domain.Resolution{Username: name, Address: addr.Hex()}, nil
}

// SetAvatar pins data and points the name's avatar text record at it.
func (s *nameService) SetAvatar(ctx context.Context, username string, data []byte, contentType string) (*domain.AvatarUpdate, error) {
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, apperror.ErrInvalidUsername()
	}
	if s.pinner == nil {
		return nil, apperror.ErrPinning(ErrPinningDisabled)
	}

	cid, err := s.pinner.Pin(ctx, fmt.Sprintf("avatars/%s", name), data, contentType)
	if err != nil {
		s.log.Error().Err(err).Str("username", name).Msg("names: avatar pin failed")
		return nil, apperror.ErrPinning(err)
	}

	uri := domain.IPFSURI(cid)
	txHash, err := s.registry.SetText(ctx, domain.FullName(name, s.parent), domain.AvatarTextKey, uri)
	if err != nil {
		s.log.Error().Err(err).Str("username", name).Str("cid", cid).Msg("names: setText failed")
		return nil, apperror.ErrChainCall(err)
	}

	s.log.Info().Str("username", name).Str("cid", cid).Str("tx", txHash).Msg("names: avatar updated")
	return &domain.AvatarUpdate{CID: cid, URI: uri, TxHash: txHash}, nil
}

func (s *nameService) Avatar(ctx context.Context, username string) (*domain.AvatarRecord, error) {
	name, err := domain.NormalizeUsername(username)
	if err != nil {
		return nil, apperror.ErrInvalidUsername()
	}

	avatar, err := s.registry.Text(ctx, domain.FullName(name, s.parent), domain.AvatarTextKey)
	if err != nil {
		return nil, apperror.ErrChainCall(err)
	}
	return &domain.AvatarRecord{Username: name, Avatar: avatar}, nil
}
