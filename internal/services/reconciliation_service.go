package services

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gitarch/poap-service/internal/models"
	"github.com/gitarch/poap-service/internal/queues"
	"github.com/gitarch/poap-service/internal/repositories"
	"github.com/gitarch/poap-service/internal/utils"
)

// ReconciliationService repairs the two non-atomic writes of the mint flow:
// stale poap_generated flags, and ledger records whose insert failed after a
// finalized chain submission.
type ReconciliationService struct {
	projectRepo repositories.ProjectRepository
	poapRepo    repositories.PoapRepository
}

func NewReconciliationService(
	projectRepo repositories.ProjectRepository,
	poapRepo repositories.PoapRepository,
) *ReconciliationService {
	return &ReconciliationService{
		projectRepo: projectRepo,
		poapRepo:    poapRepo,
	}
}

// RunFlagRepair recomputes poap_generated from record existence. "Attested"
// is derived from records, never trusted from the flag alone.
func (s *ReconciliationService) RunFlagRepair(ctx context.Context) error {
	ids, err := s.projectRepo.FindUnflaggedWithPoaps(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.projectRepo.MarkPoapGenerated(ctx, id); err != nil {
			utils.Logger.WithError(err).Warnf("Flag repair failed for project %s", id)
			continue
		}
		utils.Logger.Infof("Repaired poap_generated flag for project %s", id)
	}
	return nil
}

// HandleLedgerRepair consumes one queued repair message and replays the
// record insert. Idempotent: a redelivered message for a record that
// already landed is a no-op. A returned error means the insert did not
// happen and the delivery must be requeued; malformed messages are
// discarded (returning them to the queue would loop forever).
func (s *ReconciliationService) HandleLedgerRepair(d amqp.Delivery) error {
	var msg queues.LedgerRepairMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		utils.Logger.WithError(err).Error("Discarding malformed ledger repair message")
		return nil
	}

	poap := &models.Poap{
		ID:              msg.PoapID,
		UserID:          msg.UserID,
		ProjectID:       msg.ProjectID,
		TransactionHash: msg.TransactionHash,
		MetadataURI:     msg.MetadataURI,
		TokenID:         msg.TokenID,
		ContractAddress: msg.ContractAddress,
		IsSimulated:     msg.IsSimulated,
		CreatedAt:       msg.CreatedAt,
	}

	ctx := context.Background()
	if err := s.poapRepo.CreateIfAbsent(ctx, poap); err != nil {
		utils.Logger.WithError(err).Errorf("Ledger repair insert failed for tx %s", msg.TransactionHash)
		return err
	}
	if err := s.projectRepo.MarkPoapGenerated(ctx, msg.ProjectID); err != nil {
		utils.Logger.WithError(err).Warnf("Ledger repair: flag update failed for project %s", msg.ProjectID)
	}
	utils.Logger.Infof("Ledger repair completed for tx %s", msg.TransactionHash)
	return nil
}
