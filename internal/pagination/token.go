package pagination

import (
	"encoding/base64"
	"encoding/json"

	"go.uber.org/zap"
)

// Phase marks which half of the aggregated result set a continuation token
// is positioned in.
type Phase string

const (
	PhaseInternal Phase = "internal"
	PhaseExternal Phase = "external"
)

const (
	// DefaultPageSize applies when the client sends no size or a
	// non-positive one.
	DefaultPageSize = 50
	// MaxPageSize is the hard upper bound per page.
	MaxPageSize = 100
)

// ExternalPageState carries round-robin position and per-provider native
// tokens between page requests.
type ExternalPageState struct {
	CurrentProviderIndex int                `json:"current_provider_index"`
	ProviderTokens       map[string]*string `json:"provider_tokens"`
	TotalExternalFetched int                `json:"total_external_fetched"`
}

// ContinuationToken is the full pagination state, round-tripped opaque to the
// caller and never stored server-side.
type ContinuationToken struct {
	Phase          Phase              `json:"phase"`
	InternalOffset int                `json:"internal_offset"`
	External       *ExternalPageState `json:"external,omitempty"`
}

// DefaultToken positions a query at the start of the internal phase.
func DefaultToken() ContinuationToken {
	return ContinuationToken{Phase: PhaseInternal, InternalOffset: 0}
}

// TokenCodec encodes and decodes opaque continuation tokens.
type TokenCodec struct {
	logger *zap.Logger
}

// NewTokenCodec constructs the codec.
func NewTokenCodec(logger *zap.Logger) *TokenCodec {
	return &TokenCodec{logger: logger}
}

// Decode parses a client-supplied token. Empty input yields the default
// token. Malformed input is not an error to the caller: it is logged and
// treated as the start of a fresh query.
func (c *TokenCodec) Decode(raw string) ContinuationToken {
	if raw == "" {
		return DefaultToken()
	}
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		c.logger.Warn("invalid page token encoding, restarting query", zap.Error(err))
		return DefaultToken()
	}
	var token ContinuationToken
	if err := json.Unmarshal(data, &token); err != nil {
		c.logger.Warn("invalid page token payload, restarting query", zap.Error(err))
		return DefaultToken()
	}
	if token.Phase != PhaseInternal && token.Phase != PhaseExternal {
		c.logger.Warn("unknown page token phase, restarting query", zap.String("phase", string(token.Phase)))
		return DefaultToken()
	}
	if token.InternalOffset < 0 {
		token.InternalOffset = 0
	}
	return token
}

// Encode serializes a token for the wire. A nil result means the page must be
// treated as terminal rather than handing the client an unusable cursor.
func (c *TokenCodec) Encode(token ContinuationToken) *string {
	data, err := json.Marshal(token)
	if err != nil {
		c.logger.Error("failed to encode page token", zap.Error(err))
		return nil
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	return &encoded
}

// NormalizePageSize clamps a client-supplied page size to [1, MaxPageSize].
// Non-positive values fall back to the default rather than the pathological
// minimum.
func NormalizePageSize(n int) int {
	if n <= 0 {
		return DefaultPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}
