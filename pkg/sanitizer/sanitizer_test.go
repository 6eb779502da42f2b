package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-io/gatehouse/pkg/sanitizer"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "jo@example.com", sanitizer.NormalizeEmail("  Jo@Example.COM "))
	assert.Equal(t, "", sanitizer.NormalizeEmail("   "))
}

func TestTrimToNil(t *testing.T) {
	t.Parallel()

	assert.Nil(t, sanitizer.TrimToNil(""))
	assert.Nil(t, sanitizer.TrimToNil("   "))

	got := sanitizer.TrimToNil(" +15551234567 ")
	require.NotNil(t, got)
	assert.Equal(t, "+15551234567", *got)
}
