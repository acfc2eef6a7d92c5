package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gitarch/poap-service/internal/chain"
	"github.com/gitarch/poap-service/internal/config"
	"github.com/gitarch/poap-service/internal/models"
	"github.com/gitarch/poap-service/internal/queues"
	"github.com/gitarch/poap-service/internal/repositories"
	"github.com/gitarch/poap-service/internal/utils"
	"github.com/gitarch/poap-service/internal/utils/pinata"
)

// Pinner is the content-addressing capability the mint flow needs.
// *pinata.Client satisfies it.
type Pinner interface {
	PinJSON(ctx context.Context, name string, doc any) (pinata.ContentAddress, error)
	PinFile(ctx context.Context, name string, r io.Reader) (pinata.ContentAddress, error)
}

// ReconcilePublisher hands chain-confirmed-but-unrecorded mints to the
// repair queue. May be nil when no queue is configured.
type ReconcilePublisher interface {
	PublishLedgerRepair(msg queues.LedgerRepairMessage) error
}

type MintService struct {
	cfg         *config.Config
	projectRepo repositories.ProjectRepository
	profileRepo repositories.ProfileRepository
	poapRepo    repositories.PoapRepository
	pinner      Pinner
	strategy    chain.Strategy
	contract    chain.Contract
	publisher   ReconcilePublisher
	now         func() time.Time
	fetchImage  func(ctx context.Context, url string) (io.ReadCloser, error)
}

func NewMintService(
	cfg *config.Config,
	projectRepo repositories.ProjectRepository,
	profileRepo repositories.ProfileRepository,
	poapRepo repositories.PoapRepository,
	pinner Pinner,
	strategy chain.Strategy,
	contract chain.Contract,
	publisher ReconcilePublisher,
) *MintService {
	return &MintService{
		cfg:         cfg,
		projectRepo: projectRepo,
		profileRepo: profileRepo,
		poapRepo:    poapRepo,
		pinner:      pinner,
		strategy:    strategy,
		contract:    contract,
		publisher:   publisher,
		now:         time.Now,
		fetchImage:  fetchImageHTTP,
	}
}

// MintPoap runs the whole flow: resolve -> metadata -> pin -> submit ->
// record. Stages are strictly sequential and any failure aborts the
// remainder; the only non-fatal step is the trailing flag update, because
// the record itself is the source of truth for "attested".
func (s *MintService) MintPoap(ctx context.Context, projectID, userID uuid.UUID, walletOverride string) (*models.Poap, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("project lookup: %w", err)
	}
	if project == nil {
		return nil, utils.ErrProjectNotFound
	}

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile lookup: %w", err)
	}
	if profile == nil {
		return nil, utils.ErrUserNotFound
	}

	recipient := walletOverride
	if recipient == "" && profile.HasWallet() {
		recipient = *profile.WalletAddress
	}
	if recipient == "" {
		return nil, utils.ErrMissingWalletLink
	}

	metadata := BuildPoapMetadata(project, s.now())
	if rawImageReference(metadata.Image) {
		// Best-effort: a project image that is not yet content-addressed is
		// pinned first so the metadata references durable content. Failure
		// keeps the original reference rather than blocking the mint.
		if imageAddr, pinErr := s.pinImage(ctx, project.Title, metadata.Image); pinErr != nil {
			utils.Logger.WithError(pinErr).Warnf("Image pin failed for project %s; keeping original reference", projectID)
		} else {
			metadata.Image = imageAddr.String()
		}
	}

	metadataAddr, err := s.pinner.PinJSON(ctx, project.Title, metadata)
	if err != nil {
		return nil, err
	}
	if !metadataAddr.Pinned() {
		utils.Logger.Warnf("Metadata for project %s stored with degraded address scheme", projectID)
	}

	receipt, err := s.strategy.Submit(ctx, project.ID.String(), recipient, metadataAddr.String())
	if err != nil {
		return nil, err
	}

	poap := &models.Poap{
		ID:              uuid.New(),
		UserID:          userID,
		ProjectID:       projectID,
		TransactionHash: receipt.TransactionHash,
		MetadataURI:     metadataAddr.String(),
		TokenID:         receipt.TokenID,
		ContractAddress: receipt.ContractAddress,
		IsSimulated:     receipt.Simulated,
		CreatedAt:       s.now(),
	}

	if err := s.poapRepo.Create(ctx, poap); err != nil {
		// The chain side already happened and cannot be undone. This is the
		// one failure that must never be swallowed: log it distinctly and
		// queue the record for replay.
		utils.Logger.WithError(err).Errorf(
			"LEDGER WRITE FAILED after finalized mint: tx=%s project=%s user=%s",
			receipt.TransactionHash, projectID, userID,
		)
		s.queueLedgerRepair(poap)
		return nil, fmt.Errorf("insert poap record: %v: %w", err, utils.ErrLedgerWriteFailed)
	}

	if err := s.projectRepo.MarkPoapGenerated(ctx, projectID); err != nil {
		// Best-effort: the record exists, so the flow is a success. The
		// reconciler recomputes the flag from record existence.
		utils.Logger.WithError(err).Warnf("Failed to set poap_generated for project %s; reconciler will repair", projectID)
	}

	return poap, nil
}

// rawImageReference reports whether an image reference still needs content
// addressing. ipfs://, data: and local:// references already are.
func rawImageReference(ref string) bool {
	if ref == "" {
		return false
	}
	return !strings.HasPrefix(ref, pinata.SchemeIPFS) &&
		!strings.HasPrefix(ref, pinata.SchemeData) &&
		!strings.HasPrefix(ref, pinata.SchemeLocal)
}

func (s *MintService) pinImage(ctx context.Context, name, ref string) (pinata.ContentAddress, error) {
	body, err := s.fetchImage(ctx, ref)
	if err != nil {
		return "", err
	}
	defer body.Close()
	return s.pinner.PinFile(ctx, name, body)
}

var imageClient = &http.Client{Timeout: 30 * time.Second}

func fetchImageHTTP(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := imageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("image fetch returned %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *MintService) queueLedgerRepair(p *models.Poap) {
	if s.publisher == nil {
		utils.Logger.Warn("No reconciliation queue configured; relying on scheduled repair only")
		return
	}
	msg := queues.LedgerRepairMessage{
		PoapID:          p.ID,
		UserID:          p.UserID,
		ProjectID:       p.ProjectID,
		TransactionHash: p.TransactionHash,
		MetadataURI:     p.MetadataURI,
		TokenID:         p.TokenID,
		ContractAddress: p.ContractAddress,
		IsSimulated:     p.IsSimulated,
		CreatedAt:       p.CreatedAt,
	}
	if err := s.publisher.PublishLedgerRepair(msg); err != nil {
		utils.Logger.WithError(err).Errorf("Failed to queue ledger repair for tx %s", p.TransactionHash)
	}
}

// PoapsForUser lists a user's attestation records, newest first. When a
// contract read is available the on-chain get_user_poaps result is compared
// against the records; the ledger stays the source of truth either way.
func (s *MintService) PoapsForUser(ctx context.Context, userID uuid.UUID) ([]*models.Poap, error) {
	poaps, err := s.poapRepo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.crossCheckChainTokens(ctx, userID, poaps)
	return poaps, nil
}

func (s *MintService) crossCheckChainTokens(ctx context.Context, userID uuid.UUID, poaps []*models.Poap) {
	if s.contract == nil {
		return
	}
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil || profile == nil || !profile.HasWallet() {
		return
	}
	tokens, err := s.contract.UserTokens(ctx, *profile.WalletAddress)
	if err != nil {
		utils.Logger.WithError(err).Debugf("Chain token read unavailable for user %s", userID)
		return
	}
	var onChain int
	for _, p := range poaps {
		if !p.IsSimulated {
			onChain++
		}
	}
	if len(tokens) != onChain {
		utils.Logger.Warnf(
			"Ledger/chain divergence for user %s: %d on-chain records, %d chain tokens",
			userID, onChain, len(tokens),
		)
	}
}

// PoapsForProject lists all attestations of one project.
func (s *MintService) PoapsForProject(ctx context.Context, projectID uuid.UUID) ([]*models.Poap, error) {
	return s.poapRepo.FindByProject(ctx, projectID)
}

// MetadataGatewayURL resolves a stored record's metadata address into a
// fetchable URL. Inline and local addresses pass through unchanged.
func (s *MintService) MetadataGatewayURL(ctx context.Context, poapID uuid.UUID) (string, error) {
	p, err := s.poapRepo.GetByID(ctx, poapID)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", utils.ErrPoapNotFound
	}
	return pinata.ContentAddress(p.MetadataURI).GatewayURL(s.cfg.IPFSGatewayBase), nil
}
