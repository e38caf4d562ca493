package utils

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	blacklistedTokens = make(map[string]time.Time)
	blacklistMutex    sync.RWMutex
)

func BlacklistToken(token string) {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	blacklistedTokens[token] = time.Now().Add(tokenTTL) // token tidak akan valid lebih lama dari TTL
}

func IsTokenBlacklisted(token string) bool {
	blacklistMutex.RLock()
	expiry, exists := blacklistedTokens[token]
	blacklistMutex.RUnlock()

	if !exists {
		return false
	}
	if time.Now().Before(expiry) {
		return true
	}

	// Hapus token kadaluarsa dari blacklist
	blacklistMutex.Lock()
	delete(blacklistedTokens, token)
	blacklistMutex.Unlock()
	return false
}

// PruneBlacklist drops revoked tokens that have expired by now and returns
// how many were removed.
func PruneBlacklist(now time.Time) int {
	blacklistMutex.Lock()
	defer blacklistMutex.Unlock()
	removed := 0
	for token, expiry := range blacklistedTokens {
		if now.After(expiry) {
			delete(blacklistedTokens, token)
			removed++
		}
	}
	return removed
}

// CleanupBlacklist prunes the revocation list every interval until ctx ends.
func CleanupBlacklist(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := PruneBlacklist(now); n > 0 {
				InfoLogger.Infof("Removed %d expired tokens from blacklist", n)
			}
		}
	}
}

// ValidateToken parses the token and rejects revoked ones.
func ValidateToken(tokenString string) (*CustomClaims, error) {
	if IsTokenBlacklisted(tokenString) {
		return nil, errors.New("token has been revoked")
	}

	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, errors.New("invalid user id in token")
	}
	return claims, nil
}
