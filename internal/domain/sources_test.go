package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVerifyKind(t *testing.T) {
	for in, want := range map[string]VerifyKind{
		"nip":    VerifyNIP,
		" KRS ":  VerifyKRS,
		"Vat_EU": VerifyVATEU,
	} {
		got, err := ParseVerifyKind(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}
	_, err := ParseVerifyKind("pesel")
	require.ErrorContains(t, err, `"pesel"`)
}

func TestVerification_DataFields(t *testing.T) {
	var v Verification
	require.NoError(t, json.Unmarshal([]byte(`{
		"valid": true, "identifier": "0000123456", "type": "krs",
		"data": {"name": "Beta S.A.", "address": 12}
	}`), &v))
	require.Equal(t, VerifyKRS, v.Type)
	require.Equal(t, "Beta S.A.", v.Name())
	require.Empty(t, v.Address(), "non-string values are ignored")

	require.Empty(t, Verification{}.Name())
}

func TestSourceTypeIcon(t *testing.T) {
	require.Equal(t, "🏛️", SourceOfficial.Icon())
	require.Equal(t, "💼", SourceCommercial.Icon())
	require.Equal(t, "📄 KSeF", CategoryLabel("ksef"))
	require.Equal(t, "inne", CategoryLabel("inne"))
}
