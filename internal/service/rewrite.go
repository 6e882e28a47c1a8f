package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"obituary-service/internal/core/cache"
	"obituary-service/internal/domain"
	"obituary-service/internal/errs"
)

const MaxRewriteLen = 8000

type rewriteEntry struct {
	Text string `json:"text"`
}

// RewriteService fronts the text rewriter with validation and a result cache.
type RewriteService struct {
	rw    domain.TextRewriter
	cache *cache.Cache
	ttl   time.Duration
	log   *zap.Logger
}

func NewRewriteService(rw domain.TextRewriter, c *cache.Cache, ttl time.Duration, log *zap.Logger) *RewriteService {
	return &RewriteService{rw: rw, cache: c, ttl: ttl, log: log}
}

func rewriteKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "rewrite:" + hex.EncodeToString(sum[:])
}

func (s *RewriteService) Rewrite(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errs.Invalid("text", "text cannot be empty")
	}
	if len(text) > MaxRewriteLen {
		return "", errs.Invalid("text", fmt.Sprintf("text must be at most %d bytes", MaxRewriteLen))
	}
	e, err := cache.GetOrLoadJSON(ctx, s.cache, rewriteKey(text), s.ttl, func(ctx context.Context) (rewriteEntry, error) {
		out, err := s.rw.Rewrite(ctx, text)
		if err != nil {
			return rewriteEntry{}, err
		}
		if out == "" {
			return rewriteEntry{}, errors.New("empty rewrite")
		}
		return rewriteEntry{Text: out}, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.log.Error("rewrite failed", zap.Int("len", len(text)), zap.Error(err))
		return "", fmt.Errorf("rewrite: %w", errs.ErrRewriteFailed)
	}
	return e.Text, nil
}
