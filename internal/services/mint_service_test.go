package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitarch/poap-service/internal/chain"
	"github.com/gitarch/poap-service/internal/config"
	"github.com/gitarch/poap-service/internal/models"
	"github.com/gitarch/poap-service/internal/queues"
	"github.com/gitarch/poap-service/internal/utils"
	"github.com/gitarch/poap-service/internal/utils/pinata"
)

// ----------------------------------------------------------------
// in-memory fakes
// ----------------------------------------------------------------

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*models.Project
	markErr  error
	marked   []uuid.UUID
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	return f.projects[id], nil
}

func (f *fakeProjectRepo) MarkPoapGenerated(ctx context.Context, id uuid.UUID) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	return nil
}

func (f *fakeProjectRepo) FindUnflaggedWithPoaps(ctx context.Context) ([]uuid.UUID, error) {
	return nil, nil
}

type fakeProfileRepo struct {
	profiles map[uuid.UUID]*models.Profile
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return f.profiles[id], nil
}

func (f *fakeProfileRepo) GetByWalletAddress(ctx context.Context, address string) (*models.Profile, error) {
	for _, p := range f.profiles {
		if p.WalletAddress != nil && *p.WalletAddress == address {
			return p, nil
		}
	}
	return nil, nil
}

type fakePoapRepo struct {
	mu        sync.Mutex
	created   []*models.Poap
	createErr error
}

func (f *fakePoapRepo) Create(ctx context.Context, p *models.Poap) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, p)
	return nil
}

func (f *fakePoapRepo) CreateIfAbsent(ctx context.Context, p *models.Poap) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.created {
		if existing.ID == p.ID {
			return nil
		}
	}
	f.created = append(f.created, p)
	return nil
}

func (f *fakePoapRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Poap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.created {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePoapRepo) FindByUser(ctx context.Context, userID uuid.UUID) ([]*models.Poap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Poap
	for _, p := range f.created {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePoapRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Poap, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Poap
	for _, p := range f.created {
		if p.ProjectID == projectID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePoapRepo) ExistsForProject(ctx context.Context, projectID uuid.UUID) (bool, error) {
	poaps, _ := f.FindByProject(ctx, projectID)
	return len(poaps) > 0, nil
}

type countingPinner struct {
	mu        sync.Mutex
	calls     int
	err       error
	fileCalls int
	fileErr   error
	lastDoc   any
}

func (p *countingPinner) PinJSON(ctx context.Context, name string, doc any) (pinata.ContentAddress, error) {
	p.mu.Lock()
	p.calls++
	p.lastDoc = doc
	p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	return "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG", nil
}

func (p *countingPinner) PinFile(ctx context.Context, name string, r io.Reader) (pinata.ContentAddress, error) {
	p.mu.Lock()
	p.fileCalls++
	p.mu.Unlock()
	if p.fileErr != nil {
		return "", p.fileErr
	}
	return "ipfs://QmPChd2hVbrJ6bfo3WBcTW4iZnpHm8TEzWkLHmLpXhF68A", nil
}

type countingStrategy struct {
	mu      sync.Mutex
	calls   int
	err     error
	receipt *chain.Receipt
}

func (s *countingStrategy) Submit(ctx context.Context, projectID, recipient, metadataURI string) (*chain.Receipt, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.receipt, nil
}

func (s *countingStrategy) Simulated() bool { return false }

type fakeContract struct {
	mu     sync.Mutex
	tokens []string
	err    error
	calls  int
}

func (c *fakeContract) Address() string { return "5Contract" }

func (c *fakeContract) BuildMintCall(projectID, recipient, metadataURI string) (chain.MintCall, error) {
	return chain.MintCall{}, nil
}

func (c *fakeContract) UserTokens(ctx context.Context, wallet string) ([]string, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return c.tokens, nil
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []queues.LedgerRepairMessage
	err      error
}

func (p *recordingPublisher) PublishLedgerRepair(msg queues.LedgerRepairMessage) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

// ----------------------------------------------------------------
// fixture
// ----------------------------------------------------------------

type mintFixture struct {
	service   *MintService
	projects  *fakeProjectRepo
	profiles  *fakeProfileRepo
	poaps     *fakePoapRepo
	pinner    *countingPinner
	publisher *recordingPublisher

	projectID uuid.UUID
	userID    uuid.UUID
}

func newMintFixture(t *testing.T, strategy chain.Strategy) *mintFixture {
	t.Helper()

	project := testProject()
	wallet := "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
	profile := &models.Profile{
		ID:            uuid.New(),
		Username:      "mies",
		WalletAddress: &wallet,
		CreatedAt:     time.Now(),
	}

	f := &mintFixture{
		projects:  &fakeProjectRepo{projects: map[uuid.UUID]*models.Project{project.ID: project}},
		profiles:  &fakeProfileRepo{profiles: map[uuid.UUID]*models.Profile{profile.ID: profile}},
		poaps:     &fakePoapRepo{},
		pinner:    &countingPinner{},
		publisher: &recordingPublisher{},
		projectID: project.ID,
		userID:    profile.ID,
	}
	f.service = NewMintService(
		&config.Config{}, f.projects, f.profiles, f.poaps, f.pinner, strategy, nil, f.publisher,
	)
	return f
}

// ----------------------------------------------------------------
// tests
// ----------------------------------------------------------------

func TestMintPoapSimulatedHappyPath(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")

	require.NoError(t, err)
	require.Len(t, f.poaps.created, 1)
	assert.Equal(t, poap, f.poaps.created[0])

	assert.Equal(t, f.userID, poap.UserID)
	assert.Equal(t, f.projectID, poap.ProjectID)
	assert.True(t, strings.HasPrefix(poap.TransactionHash, "0x"))
	assert.Equal(t, "PENDING_DEPLOYMENT", poap.ContractAddress)
	assert.True(t, poap.IsSimulated)
	assert.True(t, strings.HasPrefix(poap.MetadataURI, "ipfs://"))
	assert.False(t, poap.CreatedAt.IsZero())

	// The fixture's first image is already ipfs://, so nothing is re-pinned.
	assert.Zero(t, f.pinner.fileCalls)

	// Flag update piggybacks on success.
	assert.Equal(t, []uuid.UUID{f.projectID}, f.projects.marked)
}

func TestMintPoapPinsRawImageReference(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))
	f.projects.projects[f.projectID].ImageURLs = []string{"https://cdn.example/render.png"}

	var fetched string
	f.service.fetchImage = func(ctx context.Context, url string) (io.ReadCloser, error) {
		fetched = url
		return io.NopCloser(strings.NewReader("png bytes")), nil
	}

	_, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/render.png", fetched)
	assert.Equal(t, 1, f.pinner.fileCalls)

	// The pinned address, not the raw URL, ends up in the metadata document.
	doc, ok := f.pinner.lastDoc.(PoapMetadata)
	require.True(t, ok)
	assert.Equal(t, "ipfs://QmPChd2hVbrJ6bfo3WBcTW4iZnpHm8TEzWkLHmLpXhF68A", doc.Image)
}

func TestMintPoapImagePinFailureKeepsReference(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))
	f.projects.projects[f.projectID].ImageURLs = []string{"https://cdn.example/render.png"}
	f.pinner.fileErr = utils.ErrPinningFailed
	f.service.fetchImage = func(ctx context.Context, url string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("png bytes")), nil
	}

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")

	// Image pinning is best-effort; the mint still completes.
	require.NoError(t, err)
	require.NotNil(t, poap)

	doc, ok := f.pinner.lastDoc.(PoapMetadata)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example/render.png", doc.Image)
}

func TestMintPoapProjectNotFound(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))

	poap, err := f.service.MintPoap(context.Background(), uuid.New(), f.userID, "")

	assert.Nil(t, poap)
	assert.ErrorIs(t, err, utils.ErrProjectNotFound)
	assert.Zero(t, f.pinner.calls)
}

func TestMintPoapUserNotFound(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))

	poap, err := f.service.MintPoap(context.Background(), f.projectID, uuid.New(), "")

	assert.Nil(t, poap)
	assert.ErrorIs(t, err, utils.ErrUserNotFound)
	assert.Zero(t, f.pinner.calls)
}

func TestMintPoapMissingWalletLink(t *testing.T) {
	strategy := &countingStrategy{}
	f := newMintFixture(t, strategy)
	f.profiles.profiles[f.userID].WalletAddress = nil

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")

	assert.Nil(t, poap)
	assert.ErrorIs(t, err, utils.ErrMissingWalletLink)
	// Must fail before any pinning or chain work is attempted.
	assert.Zero(t, f.pinner.calls)
	assert.Zero(t, strategy.calls)
	assert.Empty(t, f.poaps.created)
}

func TestMintPoapWalletOverride(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))
	f.profiles.profiles[f.userID].WalletAddress = nil

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID,
		"5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY")

	require.NoError(t, err)
	require.NotNil(t, poap)
	assert.Len(t, f.poaps.created, 1)
}

func TestMintPoapPinFailureAborts(t *testing.T) {
	strategy := &countingStrategy{}
	f := newMintFixture(t, strategy)
	f.pinner.err = utils.ErrPinningFailed

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")

	assert.Nil(t, poap)
	assert.ErrorIs(t, err, utils.ErrPinningFailed)
	// No submission and no record against a rejected upload.
	assert.Zero(t, strategy.calls)
	assert.Empty(t, f.poaps.created)
	assert.Empty(t, f.projects.marked)
}

func TestMintPoapSubmitFailureWritesNothing(t *testing.T) {
	strategy := &countingStrategy{err: utils.ErrTransactionFailed}
	f := newMintFixture(t, strategy)

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")

	assert.Nil(t, poap)
	assert.ErrorIs(t, err, utils.ErrTransactionFailed)
	assert.Empty(t, f.poaps.created)
	assert.Empty(t, f.projects.marked)
	assert.Empty(t, f.publisher.messages)
}

func TestMintPoapLedgerWriteFailureQueuesRepair(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))
	f.poaps.createErr = errors.New("connection reset")

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")

	assert.Nil(t, poap)
	assert.ErrorIs(t, err, utils.ErrLedgerWriteFailed)
	assert.Empty(t, f.projects.marked)

	// The confirmed mint must survive as a repair message.
	require.Len(t, f.publisher.messages, 1)
	msg := f.publisher.messages[0]
	assert.Equal(t, f.projectID, msg.ProjectID)
	assert.Equal(t, f.userID, msg.UserID)
	assert.NotEmpty(t, msg.TransactionHash)
	assert.True(t, msg.IsSimulated)
	// The repair message carries the mint time so a later replay does not
	// record the repair time instead.
	assert.False(t, msg.CreatedAt.IsZero())
}

func TestMintPoapFlagUpdateFailureStillSucceeds(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))
	f.projects.markErr = errors.New("deadlock detected")

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")

	require.NoError(t, err)
	require.NotNil(t, poap)
	assert.Len(t, f.poaps.created, 1)
}

func TestMintPoapConcurrentUsersEachGetRecord(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))

	wallet := "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	second := &models.Profile{ID: uuid.New(), Username: "corbu", WalletAddress: &wallet, CreatedAt: time.Now()}
	f.profiles.profiles[second.ID] = second

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, userID := range []uuid.UUID{f.userID, second.ID} {
		wg.Add(1)
		go func(i int, userID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.service.MintPoap(context.Background(), f.projectID, userID, "")
		}(i, userID)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	poaps, err := f.service.PoapsForProject(context.Background(), f.projectID)
	require.NoError(t, err)
	require.Len(t, poaps, 2)
	assert.NotEqual(t, poaps[0].UserID, poaps[1].UserID)
	assert.NotEqual(t, poaps[0].TransactionHash, poaps[1].TransactionHash)
}

func TestPoapsForUserChainCrossCheck(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))
	contract := &fakeContract{tokens: []string{"1"}}
	f.service.contract = contract

	_, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")
	require.NoError(t, err)

	poaps, err := f.service.PoapsForUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, poaps, 1)
	assert.Equal(t, 1, contract.calls)

	// An unavailable contract read never fails the listing.
	contract.err = utils.ErrContractUnavailable
	poaps, err = f.service.PoapsForUser(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Len(t, poaps, 1)
}

func TestMetadataGatewayURL(t *testing.T) {
	f := newMintFixture(t, chain.NewServerSimulatedStrategy(""))

	poap, err := f.service.MintPoap(context.Background(), f.projectID, f.userID, "")
	require.NoError(t, err)

	url, err := f.service.MetadataGatewayURL(context.Background(), poap.ID)
	require.NoError(t, err)
	assert.Equal(t,
		"https://gateway.pinata.cloud/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		url)

	_, err = f.service.MetadataGatewayURL(context.Background(), uuid.New())
	assert.ErrorIs(t, err, utils.ErrPoapNotFound)
}
