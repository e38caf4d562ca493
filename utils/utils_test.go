package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		minor    int64
		currency string
		want     string
	}{
		{minor: 150050, currency: "inr", want: "INR 1,500.50"},
		{minor: 5, currency: "USD", want: "USD 0.05"},
		{minor: 123456789, currency: "", want: "1,234,567.89"},
		{minor: -2500, currency: "EUR", want: "EUR -25.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.minor, tt.currency))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test_secret")

	token, err := GenerateToken(42, "customer")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "customer", claims.Role)

	BlacklistToken(token)
	_, err = ValidateToken(token)
	assert.Error(t, err)

	SetJWTSecret("other_secret")
	other, err := GenerateToken(42, "customer")
	require.NoError(t, err)
	SetJWTSecret("test_secret")
	_, err = ValidateToken(other)
	assert.Error(t, err)
}

func TestGenerateToken_NoSecret(t *testing.T) {
	SetJWTSecret("")
	defer SetJWTSecret("test_secret")

	_, err := GenerateToken(1, "admin")
	assert.Error(t, err)
}

func TestPruneBlacklist(t *testing.T) {
	BlacklistToken("revoked-a")
	BlacklistToken("revoked-b")

	assert.Equal(t, 0, PruneBlacklist(time.Now()))
	assert.True(t, IsTokenBlacklisted("revoked-a"))

	removed := PruneBlacklist(time.Now().Add(tokenTTL + time.Minute))
	assert.GreaterOrEqual(t, removed, 2)

	blacklistMutex.RLock()
	_, exists := blacklistedTokens["revoked-b"]
	blacklistMutex.RUnlock()
	assert.False(t, exists)
}

func TestCleanupBlacklist_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- CleanupBlacklist(ctx, time.Millisecond) }()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("cleanup did not stop")
	}
}
