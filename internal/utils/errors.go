package utils

import "errors"

/*
   Sentinel errors for the mint flow.
   Controllers do: if errors.Is(err, ErrXYZ) { ... }
*/
var (
	ErrProjectNotFound   = errors.New("project_not_found")
	ErrUserNotFound      = errors.New("user_not_found")
	ErrPoapNotFound      = errors.New("poap_not_found")
	ErrMissingWalletLink = errors.New("missing_wallet_link")

	ErrPinningFailed = errors.New("pinning_failed")

	// Wallet-level failures; require user action, never auto-retried.
	ErrSignerUnavailable = errors.New("signer_unavailable")
	ErrUserRejected      = errors.New("user_rejected")

	// The contract interface description could not be loaded or is missing
	// the mint method. Degrades contract calls, never crashes.
	ErrContractUnavailable = errors.New("contract_unavailable")

	// Chain rejected or reverted the transaction. No ledger write happens.
	ErrTransactionFailed = errors.New("transaction_failed")

	// Finalization not observed within the bounded wait. State is ambiguous:
	// the transaction may still land, so this must never be treated as success.
	ErrFinalizeTimeout = errors.New("finalize_timeout")

	// The chain accepted the mint but the record insert failed. The on-chain
	// action is irreversible, so this one is queued for reconciliation.
	ErrLedgerWriteFailed = errors.New("ledger_write_failed")
)
