package middleware

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"time"

	"private-ledger-indexer/internal/core/ports"
	"private-ledger-indexer/pkg/apperror"
	"private-ledger-indexer/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// Header names for notifier webhook authentication
	HeaderHookEvent     = "X-Notifier-Event"
	HeaderHookSignature = "X-Notifier-Signature"
	HeaderHookTimestamp = "X-Notifier-Timestamp"
	HeaderHookNonce     = "X-Notifier-Nonce"

	// Context key for the authenticated event name
	CtxHookEvent = "hook_event"

	// Nonce scope for the webhook surface
	hookNonceScope = "hook"
)

// HookAuthConfig parameterises the notifier webhook authentication.
type HookAuthConfig struct {
	Secret        string
	TimestampSkew time.Duration
	NonceTTL      time.Duration
}

// HookAuth creates a middleware that verifies HMAC-SHA256 signatures on
// inbound chain-notifier webhooks.
// Pipeline: Check timestamp -> Check nonce -> Verify signature.
func HookAuth(
	cfg HookAuthConfig,
	sigSvc ports.SignatureService,
	nonceStore ports.NonceStore,
	log zerolog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		event := c.GetHeader(HeaderHookEvent)
		signature := c.GetHeader(HeaderHookSignature)
		timestampStr := c.GetHeader(HeaderHookTimestamp)
		nonce := c.GetHeader(HeaderHookNonce)

		if event == "" || signature == "" || timestampStr == "" || nonce == "" {
			response.Error(c, apperror.ErrInvalidSignature())
			c.Abort()
			return
		}

		// Step 1: Timestamp check
		timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
		if err != nil {
			response.Error(c, apperror.ErrTimestampExpired())
			c.Abort()
			return
		}
		now := time.Now().Unix()
		if math.Abs(float64(now-timestamp)) > cfg.TimestampSkew.Seconds() {
			response.Error(c, apperror.ErrTimestampExpired())
			c.Abort()
			return
		}

		// Step 2: Nonce check
		isNew, err := nonceStore.CheckAndSet(c.Request.Context(), hookNonceScope, nonce, cfg.NonceTTL)
		if err != nil {
			log.Warn().Err(err).Msg("nonce store error, allowing request")
		} else if !isNew {
			response.Error(c, apperror.ErrNonceUsed())
			c.Abort()
			return
		}

		// Step 3: Signature verification
		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.Error(c, apperror.Validation("cannot read request body"))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		canonical := sigSvc.BuildCanonicalString(event, timestamp, nonce, string(bodyBytes))
		if !sigSvc.Verify(cfg.Secret, canonical, signature) {
			response.Error(c, apperror.ErrInvalidSignature())
			c.Abort()
			return
		}

		c.Set(CtxHookEvent, event)
		c.Next()
	}
}
