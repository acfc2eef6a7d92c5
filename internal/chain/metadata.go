package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ContractMetadata is the slice of the ink! metadata JSON we care about:
// enough to confirm the methods we call actually exist on the deployed
// contract. Fetched at runtime, same as the web client fetching the ABI.
type ContractMetadata struct {
	Spec contractSpec `json:"spec"`
}

type contractSpec struct {
	Messages []contractMessage `json:"messages"`
}

type contractMessage struct {
	Label string `json:"label"`
}

const (
	MsgMintPoap     = "mint_poap"
	MsgGetUserPoaps = "get_user_poaps"
)

// FetchContractMetadata loads the contract interface description from the
// configured URL. Callers treat a fetch failure as "contract unavailable"
// rather than fatal.
func FetchContractMetadata(ctx context.Context, client *http.Client, url string) (*ContractMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contract metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("contract metadata fetch returned %d", resp.StatusCode)
	}

	var meta ContractMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode contract metadata: %w", err)
	}
	return &meta, nil
}

// HasMessage reports whether the contract exposes a message with the label.
func (m *ContractMetadata) HasMessage(label string) bool {
	if m == nil {
		return false
	}
	for _, msg := range m.Spec.Messages {
		if msg.Label == label {
			return true
		}
	}
	return false
}
