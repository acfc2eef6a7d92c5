package chain

import "context"

// TxStatus tracks one submission through its lifecycle. Finalized and Failed
// are the only terminal states.
type TxStatus string

const (
	StatusBuilding  TxStatus = "BUILDING"
	StatusSigning   TxStatus = "SIGNING"
	StatusBroadcast TxStatus = "BROADCAST"
	StatusInBlock   TxStatus = "IN_BLOCK"
	StatusFinalized TxStatus = "FINALIZED"
	StatusFailed    TxStatus = "FAILED"
)

// StatusEvent is one element of the signer's status stream.
type StatusEvent struct {
	Status    TxStatus
	BlockHash string // set from IN_BLOCK onwards
	TokenID   string // set on FINALIZED, from the contract's mint event
	Reason    string // set on FAILED
}

// GasLimit is the WeightV2 budget attached to a contract call.
type GasLimit struct {
	RefTime   uint64
	ProofSize uint64
}

// DefaultGasLimit matches the budget the web client uses for mint_poap.
var DefaultGasLimit = GasLimit{
	RefTime:   2_000_000_000,
	ProofSize: 1_000_000,
}

// MintCall is the fully-built contract call payload.
type MintCall struct {
	ContractAddress string
	ProjectHash     [32]byte
	Recipient       string
	MetadataURI     string
	Gas             GasLimit
}

// Receipt is the terminal outcome of a successful submission.
type Receipt struct {
	TransactionHash string
	TokenID         string
	ContractAddress string
	Simulated       bool
}

// Signer is the wallet capability: an explicitly owned connection, not
// ambient state. Enable corresponds to the extension handshake; absence of
// an extension or zero accounts is a reportable condition, not a crash.
//
// SignAndBroadcast returns a status event stream plus a release func. The
// caller must invoke release when it stops consuming, whether or not a
// terminal status arrived; a broadcast transaction itself cannot be
// cancelled.
type Signer interface {
	Enable(ctx context.Context, appName string) error
	Accounts(ctx context.Context) ([]string, error)
	SignAndBroadcast(ctx context.Context, call MintCall, sender string) (<-chan StatusEvent, func(), error)
}
