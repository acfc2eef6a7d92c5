package chain

import (
	"context"

	"github.com/gitarch/poap-service/internal/utils"
)

// UnconnectedSigner is the zero wallet session. Real signing happens in the
// user's browser wallet, so a server process without an attached signer
// session reports every signing operation as signer-unavailable rather than
// crashing or silently simulating.
type UnconnectedSigner struct{}

func NewUnconnectedSigner() *UnconnectedSigner { return &UnconnectedSigner{} }

func (s *UnconnectedSigner) Enable(ctx context.Context, appName string) error {
	return utils.ErrSignerUnavailable
}

func (s *UnconnectedSigner) Accounts(ctx context.Context) ([]string, error) {
	return nil, utils.ErrSignerUnavailable
}

func (s *UnconnectedSigner) SignAndBroadcast(ctx context.Context, call MintCall, sender string) (<-chan StatusEvent, func(), error) {
	return nil, nil, utils.ErrSignerUnavailable
}
