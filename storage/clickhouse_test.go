package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmptyAggregateRow(t *testing.T) {
	// The global aggregate over zero samples is one row of count 0;
	// it must not surface as a statistics entry.
	require.True(t, emptyAggregateRow(0, false))

	// Grouped rows always come from at least one sample.
	require.False(t, emptyAggregateRow(0, true))
	require.False(t, emptyAggregateRow(3, false))
}
