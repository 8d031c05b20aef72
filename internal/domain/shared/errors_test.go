package shared

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Is(t *testing.T) {
	err := NotFound("Invoice")

	assert.Equal(t, "Invoice not found", err.Error())
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("load: %w", err)))
	assert.False(t, IsNotFound(ErrInvalidState))
}

func TestAsDomainError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewDomainError("ENTRY_NOT_BALANCED", "Journal entry is not balanced"))

	de, ok := AsDomainError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "ENTRY_NOT_BALANCED", de.Code)

	_, ok = AsDomainError(fmt.Errorf("plain"))
	assert.False(t, ok)
}
