package chain

import (
	"context"
	"fmt"

	"github.com/gitarch/poap-service/internal/utils"
)

// Contract is the deployed-contract capability: building the mint call and
// the get_user_poaps read. Like Signer it is an explicitly owned handle, not
// ambient state; every method degrades to ErrContractUnavailable instead of
// crashing when the contract cannot be reached.
type Contract interface {
	Address() string
	BuildMintCall(projectID, recipient, metadataURI string) (MintCall, error)
	UserTokens(ctx context.Context, wallet string) ([]string, error)
}

// TokenReader executes the read-only get_user_poaps call against whatever
// gateway the deployment provides. Reads are optional: a deployment without
// one still mints, it just cannot cross-check the chain.
type TokenReader interface {
	ReadUserTokens(ctx context.Context, contractAddress, wallet string) ([]string, error)
}

// DeployedContract is the live variant, built from runtime-fetched contract
// metadata. Each operation is gated on its message actually existing in the
// metadata, so calling a method the deployed code lacks fails fast instead
// of producing a doomed transaction.
type DeployedContract struct {
	metadata *ContractMetadata
	address  string
	gas      GasLimit
	reader   TokenReader
}

func NewDeployedContract(metadata *ContractMetadata, address string, gas GasLimit, reader TokenReader) *DeployedContract {
	if gas == (GasLimit{}) {
		gas = DefaultGasLimit
	}
	return &DeployedContract{
		metadata: metadata,
		address:  address,
		gas:      gas,
		reader:   reader,
	}
}

func (c *DeployedContract) Address() string { return c.address }

func (c *DeployedContract) BuildMintCall(projectID, recipient, metadataURI string) (MintCall, error) {
	if !c.metadata.HasMessage(MsgMintPoap) {
		return MintCall{}, fmt.Errorf("%s not present in contract metadata: %w", MsgMintPoap, utils.ErrContractUnavailable)
	}
	return MintCall{
		ContractAddress: c.address,
		ProjectHash:     ProjectHash(projectID),
		Recipient:       recipient,
		MetadataURI:     metadataURI,
		Gas:             c.gas,
	}, nil
}

func (c *DeployedContract) UserTokens(ctx context.Context, wallet string) ([]string, error) {
	if !c.metadata.HasMessage(MsgGetUserPoaps) {
		return nil, fmt.Errorf("%s not present in contract metadata: %w", MsgGetUserPoaps, utils.ErrContractUnavailable)
	}
	if c.reader == nil {
		return nil, fmt.Errorf("no read gateway attached: %w", utils.ErrContractUnavailable)
	}
	return c.reader.ReadUserTokens(ctx, c.address, wallet)
}

// UnavailableContract stands in when no contract address is configured or
// the metadata fetch failed.
type UnavailableContract struct{}

func (UnavailableContract) Address() string { return "" }

func (UnavailableContract) BuildMintCall(projectID, recipient, metadataURI string) (MintCall, error) {
	return MintCall{}, utils.ErrContractUnavailable
}

func (UnavailableContract) UserTokens(ctx context.Context, wallet string) ([]string, error) {
	return nil, utils.ErrContractUnavailable
}
