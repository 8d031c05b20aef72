package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseAggregateRoot_PersistedVersion(t *testing.T) {
	root := NewBaseAggregateRoot()
	assert.Equal(t, 1, root.GetVersion())
	assert.Zero(t, root.PersistedVersion(), "a new aggregate has never been stored")

	root.MarkPersisted()
	root.IncrementVersion()
	root.IncrementVersion()
	assert.Equal(t, 3, root.GetVersion())
	assert.Equal(t, 1, root.PersistedVersion())

	root.MarkPersisted()
	assert.Equal(t, 3, root.PersistedVersion())
}
