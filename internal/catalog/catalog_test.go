package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTables(t *testing.T) {
	tables := Tables()
	assert.Len(t, tables, 16)
	assert.Equal(t, Count(), len(tables))

	// Returned slice is a copy.
	tables[0] = "mutated"
	assert.NotEqual(t, "mutated", Tables()[0])
}

func TestIsAllowed(t *testing.T) {
	assert.True(t, IsAllowed("articles"))
	assert.True(t, IsAllowed("users"))
	assert.False(t, IsAllowed("secrets"))
	assert.False(t, IsAllowed("ARTICLES"))
	assert.False(t, IsAllowed(""))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("notes"))

	err := Validate("nope")
	assert.ErrorIs(t, err, ErrUnknownTable)
	assert.ErrorContains(t, err, `"nope"`)
	for _, table := range Tables() {
		assert.ErrorContains(t, err, table)
	}
}

func TestColumns(t *testing.T) {
	cols, ok := Columns("articles")
	assert.True(t, ok)
	assert.NotEmpty(t, cols)

	_, ok = Columns("bookmarks")
	assert.False(t, ok)
}
