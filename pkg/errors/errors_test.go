package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadErrorMessage(t *testing.T) {
	cause := errors.New("timeout")
	err := NewFatalSetup("google_maps_rod", "search box not found", cause)

	assert.Equal(t, "[fatal_setup] google_maps_rod: search box not found - timeout", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.IsFatal())

	plain := NewValidation("limit must be positive")
	assert.Equal(t, "[validation] : limit must be positive", plain.Error())
}

func TestIsFatal(t *testing.T) {
	assert.True(t, NewBrowser("e", "scroll", nil).IsFatal())
	assert.False(t, NewExtraction("e", "click", nil).IsFatal())
	assert.False(t, NewStore("sqlite", "exists", nil).IsFatal())
	assert.False(t, NewCache("get", nil).IsFatal())
	assert.False(t, NewPublisher("xadd", nil).IsFatal())
	assert.True(t, NewConfiguration("bad engine", nil).IsFatal())
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("crawl: %w", NewStore("supabase", "upsert", nil))

	assert.True(t, IsType(wrapped, ErrorTypeStore))
	assert.False(t, IsType(wrapped, ErrorTypeBrowser))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeStore))
}
