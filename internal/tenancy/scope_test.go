package tenancy

import (
	"context"
	"testing"

	"tailtown/internal/common"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScope_RejectsNil(t *testing.T) {
	_, err := NewScope(uuid.Nil, "acme")
	assert.ErrorIs(t, err, common.ErrMissingTenantScope)
}

func TestScope_ContextRoundTrip(t *testing.T) {
	id := uuid.New()
	s, err := NewScope(id, "acme")
	require.NoError(t, err)

	got, err := FromContext(WithScope(context.Background(), s))
	require.NoError(t, err)
	assert.Equal(t, id, got.TenantID())
	assert.Equal(t, "acme", got.Subdomain())
}

func TestFromContext_Missing(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.Error(t, err)

	var zero Scope
	_, err = zero.Require()
	assert.Error(t, err)
}
