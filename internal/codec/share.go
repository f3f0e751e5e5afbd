package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/starford/murmur/internal/apperr"
	"github.com/starford/murmur/internal/models"
)

// ShareParam is the query parameter carrying a share-link payload.
const ShareParam = "note"

// EncodeShareLink serializes d to JSON and base64-encodes it.
func EncodeShareLink(d models.Draft) (string, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("codec: marshal share payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeShareLink reverses EncodeShareLink. Any malformed payload yields
// apperr.ErrInvalidShareLink.
func DecodeShareLink(payload string) (models.Draft, error) {
	// A '+' that reached us unescaped through a query string arrives as a space.
	payload = strings.ReplaceAll(strings.TrimSpace(payload), " ", "+")
	if payload == "" {
		return models.Draft{}, fmt.Errorf("%w: empty payload", apperr.ErrInvalidShareLink)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return models.Draft{}, fmt.Errorf("%w: %v", apperr.ErrInvalidShareLink, err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return models.Draft{}, fmt.Errorf("%w: payload is not an object", apperr.ErrInvalidShareLink)
	}
	var d models.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return models.Draft{}, fmt.Errorf("%w: %v", apperr.ErrInvalidShareLink, err)
	}
	return d, nil
}

// ShareURL returns base with the encoded draft set as the ShareParam query
// parameter. Other query parameters of base are preserved.
func ShareURL(base string, d models.Draft) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("codec: parse base url: %w", err)
	}
	payload, err := EncodeShareLink(d)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set(ShareParam, payload)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DraftFromURL extracts and decodes the ShareParam of a full URL.
func DraftFromURL(raw string) (models.Draft, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return models.Draft{}, fmt.Errorf("%w: %v", apperr.ErrInvalidShareLink, err)
	}
	return DecodeShareLink(u.Query().Get(ShareParam))
}
