package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamvault/streamvault-server/internal/domain"
	domainerrors "github.com/streamvault/streamvault-server/internal/errors"
)

func TestValidateRawEntry(t *testing.T) {
	v := New()

	valid := domain.RawEntry{Name: "Globo SP", URL: "http://provider.example/1.ts"}
	assert.NoError(t, v.Validate(&valid))

	missingName := domain.RawEntry{URL: "http://provider.example/1.ts"}
	err := v.Validate(&missingName)
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	missingURL := domain.RawEntry{Name: "Globo SP"}
	require.Error(t, v.Validate(&missingURL))
}

func TestValidationErrorUsesJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(&domain.RawEntry{})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))

	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "name")
	assert.Contains(t, details, "url")
}
