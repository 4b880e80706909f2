package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eslsoft/yorlect/internal/entity"
)

func TestIndexListScanDefaults(t *testing.T) {
	var l IndexList
	require.NoError(t, l.Scan(nil))
	assert.Equal(t, IndexList{}, l)

	require.NoError(t, l.Scan([]byte("[3,4,5]")))
	assert.Equal(t, IndexList{3, 4, 5}, l)

	require.Error(t, l.Scan(42))

	v, err := IndexList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestTranslationsScanAndValue(t *testing.T) {
	var tr Translations
	require.NoError(t, tr.Scan(""))
	assert.Empty(t, tr)
	assert.NotNil(t, tr)

	require.NoError(t, tr.Scan(`{"7":{"English":"Hi","Translation":"Bawo","Timestamp":"2024-01-01T00:00:00Z"}}`))
	assert.Equal(t, "Bawo", tr["7"].Translation)

	v, err := Translations{"1": entity.TranslationEntry{English: "a", Translation: "b", Timestamp: "t"}}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":{"English":"a","Translation":"b","Timestamp":"t"}}`, v.(string))
}

func TestMetadataScanAndValue(t *testing.T) {
	var m Metadata
	require.NoError(t, m.Scan(`{"name":"Ada","sex":"Female","age":30}`))
	assert.Equal(t, "Ada", m.Name)
	assert.Equal(t, entity.SexFemale, m.Sex)
	assert.Equal(t, 30, m.Age)

	v, err := Metadata{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", v)
}
