package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/gitarch/poap-service/internal/utils"
)

// Strategy is the tagged submission variant, chosen once when the app is
// built: BrowserSigned when a contract address is configured, otherwise
// ServerSimulated. It is never re-inferred per call, so a simulated receipt
// can never masquerade as an on-chain one.
type Strategy interface {
	Submit(ctx context.Context, projectID, recipient, metadataURI string) (*Receipt, error)
	Simulated() bool
}

// ----------------------------------------------------------------
// Browser-signed variant
// ----------------------------------------------------------------

type BrowserSignedStrategy struct {
	signer          Signer
	contract        Contract
	finalizeTimeout time.Duration
}

func NewBrowserSignedStrategy(signer Signer, contract Contract, finalizeTimeout time.Duration) *BrowserSignedStrategy {
	return &BrowserSignedStrategy{
		signer:          signer,
		contract:        contract,
		finalizeTimeout: finalizeTimeout,
	}
}

func (s *BrowserSignedStrategy) Simulated() bool { return false }

// Submit drives one submission through
// Building -> Signing -> Broadcast -> InBlock -> Finalized.
// It resolves success only on a Finalized status; InBlock is logged and
// nothing else. The stream subscription is released on every exit path.
func (s *BrowserSignedStrategy) Submit(ctx context.Context, projectID, recipient, metadataURI string) (*Receipt, error) {
	call, err := s.contract.BuildMintCall(projectID, recipient, metadataURI)
	if err != nil {
		return nil, err
	}

	events, release, err := s.signer.SignAndBroadcast(ctx, call, recipient)
	if err != nil {
		return nil, err
	}
	defer release()

	timeout := time.NewTimer(s.finalizeTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			// Caller abandoned the flow. The broadcast itself cannot be
			// undone; we just stop observing.
			return nil, ctx.Err()

		case <-timeout.C:
			// State is ambiguous: the transaction may still finalize later.
			return nil, utils.ErrFinalizeTimeout

		case ev, ok := <-events:
			if !ok {
				return nil, fmt.Errorf("status stream closed before finalization: %w", utils.ErrTransactionFailed)
			}
			switch ev.Status {
			case StatusInBlock:
				utils.Logger.Infof("Mint tx for project %s included in block %s", projectID, ev.BlockHash)
			case StatusFinalized:
				utils.Logger.Infof("Mint tx for project %s finalized in block %s", projectID, ev.BlockHash)
				return &Receipt{
					TransactionHash: ev.BlockHash,
					TokenID:         ev.TokenID,
					ContractAddress: s.contract.Address(),
					Simulated:       false,
				}, nil
			case StatusFailed:
				return nil, fmt.Errorf("%s: %w", ev.Reason, utils.ErrTransactionFailed)
			}
		}
	}
}

// ----------------------------------------------------------------
// Server-simulated variant
// ----------------------------------------------------------------

// ServerSimulatedStrategy synthesizes a transaction without touching any
// chain. It exists so the rest of the flow can run with no deployed
// contract; its receipts are flagged so they stay distinguishable from
// genuine attestations.
type ServerSimulatedStrategy struct {
	contractAddress string
	now             func() time.Time
}

func NewServerSimulatedStrategy(contractAddress string) *ServerSimulatedStrategy {
	if contractAddress == "" {
		contractAddress = "PENDING_DEPLOYMENT"
	}
	return &ServerSimulatedStrategy{contractAddress: contractAddress, now: time.Now}
}

func (s *ServerSimulatedStrategy) Simulated() bool { return true }

func (s *ServerSimulatedStrategy) Submit(ctx context.Context, projectID, recipient, metadataURI string) (*Receipt, error) {
	// The hash is still computed so the simulated path exercises the same
	// payload construction as the real one.
	_ = ProjectHash(projectID)

	return &Receipt{
		TransactionHash: "0x" + utils.RandomHex(64),
		TokenID:         fmt.Sprintf("%d", s.now().UnixMilli()),
		ContractAddress: s.contractAddress,
		Simulated:       true,
	}, nil
}
