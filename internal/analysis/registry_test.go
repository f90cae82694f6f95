package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedEntitiesDerivedFromRecognizers(t *testing.T) {
	swiss, err := SwissRecognizers()
	require.NoError(t, err)
	reg := NewRegistry(swiss...)

	infos := reg.SupportedEntities()
	types := make([]string, 0, len(infos))
	for _, i := range infos {
		types = append(types, i.Type)
	}
	assert.ElementsMatch(t, []string{"CH_AHV", "CH_PHONE", "CH_POSTAL_CODE", "CH_IBAN"}, types)
	for _, i := range infos {
		assert.True(t, i.IsRegionSpecific, "%s should be region specific", i.Type)
		assert.NotEmpty(t, i.Description)
	}
}

func TestSupportedEntitiesReflectsNewRecognizer(t *testing.T) {
	reg := NewRegistry()
	assert.Empty(t, reg.SupportedEntities())

	email, err := NewEmailRecognizer()
	require.NoError(t, err)
	reg.Add(email)

	infos := reg.SupportedEntities()
	require.Len(t, infos, 1)
	assert.Equal(t, "EMAIL_ADDRESS", infos[0].Type)
	assert.False(t, infos[0].IsRegionSpecific)
}

func TestUnknownEntityGetsFallbackDescription(t *testing.T) {
	rec := &stubRecognizer{name: "custom", entities: []string{"MY_TYPE"}}
	reg := NewRegistry(rec)

	infos := reg.SupportedEntities()
	require.Len(t, infos, 1)
	assert.Equal(t, "MY_TYPE entities", infos[0].Description)
}
