package pinata

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	cid "github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"github.com/gitarch/poap-service/internal/utils"
)

// PinJSON pins a JSON document and returns its address.
//
// Credentialed: uploads via pinning/pinJSONToIPFS and returns ipfs://<cid>;
// any non-success response aborts with ErrPinningFailed so no record is ever
// written against a rejected upload.
//
// No credential: returns the document as an inline data: URI. Not durable,
// but explicitly a non-error path.
func (c *Client) PinJSON(ctx context.Context, name string, doc any) (ContentAddress, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	if !c.Credentials.Configured() {
		utils.Logger.Warn("No pinning credential configured; falling back to inline data URI")
		return ContentAddress(SchemeData + "application/json;base64," + base64.StdEncoding.EncodeToString(raw)), nil
	}

	payload, err := json.Marshal(map[string]any{
		"pinataContent":  json.RawMessage(raw),
		"pinataMetadata": map[string]string{"name": name + ".json"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to build pin payload: %w", err)
	}

	var out pinResponse
	if err := c.doRequest(ctx, "pinning/pinJSONToIPFS", "application/json", payload, &out); err != nil {
		return "", fmt.Errorf("pinJSONToIPFS: %v: %w", err, utils.ErrPinningFailed)
	}
	return c.pinnedAddress(out.IpfsHash)
}

// PinFile pins a binary blob (project image).
//
// No credential: degrades to an ephemeral local:// reference whose
// identifier is still derived from the content, so repeated pins of the
// same bytes agree.
func (c *Client) PinFile(ctx context.Context, name string, r io.Reader) (ContentAddress, error) {
	if !c.Credentials.Configured() {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		utils.Logger.Warn("No pinning credential configured; using ephemeral local reference")
		return localAddress(data)
	}

	contentType, body, err := multipartFile(name, r)
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}

	var out pinResponse
	if err := c.doRequest(ctx, "pinning/pinFileToIPFS", contentType, body, &out); err != nil {
		return "", fmt.Errorf("pinFileToIPFS: %v: %w", err, utils.ErrPinningFailed)
	}
	return c.pinnedAddress(out.IpfsHash)
}

// pinnedAddress validates the returned hash as a real CID before trusting it.
// A malformed hash means the store response is unusable and the flow aborts.
func (c *Client) pinnedAddress(ipfsHash string) (ContentAddress, error) {
	if _, err := cid.Decode(ipfsHash); err != nil {
		return "", fmt.Errorf("pinning API returned invalid CID %q: %v: %w", ipfsHash, err, utils.ErrPinningFailed)
	}
	return ContentAddress(SchemeIPFS + ipfsHash), nil
}

// localAddress derives a CIDv1 (raw + sha2-256) from the content itself.
func localAddress(data []byte) (ContentAddress, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return ContentAddress(SchemeLocal + cid.NewCidV1(cid.Raw, sum).String()), nil
}
