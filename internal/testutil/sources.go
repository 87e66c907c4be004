package testutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/detax-ai/detax/internal/domain"
)

// Identifiers the fake registries know.
const (
	KnownNIP   = "5260250274"
	KnownKRS   = "0000123456"
	KnownVATEU = "PL5260250274"
)

var sourceCatalog = []domain.DataSource{
	{ID: "isap", Name: "ISAP - Internetowy System Aktów Prawnych", Type: domain.SourceOfficial,
		BaseURL: "https://isap.sejm.gov.pl", Description: "Oficjalne akty prawne publikowane przez Sejm RP", Active: true},
	{ID: "mf_ksef", Name: "KSeF - Krajowy System e-Faktur", Type: domain.SourceOfficial,
		BaseURL: "https://ksef.mf.gov.pl", Description: "API Krajowego Systemu e-Faktur", Active: true},
	{ID: "ceidg", Name: "CEIDG - Centralna Ewidencja Działalności", Type: domain.SourceOfficial,
		BaseURL: "https://dane.biznes.gov.pl/api/ceidg/v2", Description: "Weryfikacja działalności gospodarczych", Active: true},
	{ID: "vies", Name: "VIES - VAT Information Exchange System", Type: domain.SourceOfficial,
		BaseURL: "https://ec.europa.eu/taxation_customs/vies/rest-api", Description: "Weryfikacja numeru VAT UE", Active: true},
	{ID: "lex", Name: "LEX - Wolters Kluwer", Type: domain.SourceCommercial,
		BaseURL: "https://sip.lex.pl/api", Description: "Komercyjna baza aktów prawnych i komentarzy"},
}

var categorySources = map[string][]string{
	"ksef":    {"mf_ksef", "isap"},
	"vat":     {"isap", "vies"},
	"b2b":     {"isap", "ceidg"},
	"default": {"isap"},
}

var legalCatalog = []domain.LegalDocument{
	{ID: "WDU20220001463", Title: "Ustawa o Krajowym Systemie e-Faktur", Category: "ksef"},
	{ID: "WDU20040540535", Title: "Ustawa o podatku od towarów i usług (VAT)", Category: "vat"},
	{ID: "WDU19740240141", Title: "Kodeks pracy", Category: "b2b"},
	{ID: "WDU19971370926", Title: "Ordynacja podatkowa", Category: "vat"},
}

var registry = map[domain.VerifyKind]map[string]map[string]any{
	domain.VerifyNIP: {KnownNIP: {"name": "Acme Sp. z o.o.", "address": "ul. Prosta 1, Warszawa"}},
	domain.VerifyKRS: {KnownKRS: {"name": "Beta S.A.", "address": "ul. Długa 2, Kraków"}},
	domain.VerifyVATEU: {KnownVATEU: {"valid": true, "name": "ACME SP. Z O.O.",
		"address": "UL. PROSTA 1, WARSZAWA"}},
}

func legalURL(id string) string {
	return "https://isap.sejm.gov.pl/isap.nsf/DocDetails.xsp?id=" + id
}

func (s *Server) handleSources(w http.ResponseWriter, sourceType string) {
	if sourceType != "" && sourceType != string(domain.SourceOfficial) && sourceType != string(domain.SourceCommercial) {
		writeDetail(w, http.StatusBadRequest, "Invalid source_type: "+sourceType)
		return
	}
	out := []domain.DataSource{}
	for _, src := range sourceCatalog {
		if sourceType == "" || string(src.Type) == sourceType {
			out = append(out, src)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSource(w http.ResponseWriter, id string) {
	for _, src := range sourceCatalog {
		if src.ID == id {
			writeJSON(w, http.StatusOK, src)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Źródło '"+id+"' nie istnieje")
}

func (s *Server) handleSourcesForCategory(w http.ResponseWriter, category string) {
	ids, ok := categorySources[category]
	if !ok {
		ids = categorySources["default"]
	}
	out := []domain.DataSource{}
	for _, id := range ids {
		for _, src := range sourceCatalog {
			if src.ID == id {
				out = append(out, src)
			}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLegalDocuments(w http.ResponseWriter) {
	out := make([]domain.LegalDocument, 0, len(legalCatalog))
	for _, d := range legalCatalog {
		d.URL = legalURL(d.ID)
		out = append(out, d)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleVerify(w http.ResponseWriter, body []byte) {
	var req struct {
		Identifier string            `json:"identifier"`
		Type       domain.VerifyKind `json:"type"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	entities, ok := registry[req.Type]
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Nieobsługiwany typ weryfikacji: "+string(req.Type))
		return
	}
	if req.Type == domain.VerifyVATEU && len(req.Identifier) < 3 {
		writeDetail(w, http.StatusBadRequest, "Nieprawidłowy format VAT UE")
		return
	}
	res := domain.Verification{Identifier: req.Identifier, Type: req.Type}
	if data, found := entities[req.Identifier]; found {
		res.Valid, res.Data = true, data
	} else {
		switch req.Type {
		case domain.VerifyNIP:
			res.Error = "NIP nie znaleziony lub brak klucza API"
		case domain.VerifyKRS:
			res.Error = "KRS nie znaleziony"
		default:
			res.Error = "Błąd weryfikacji VAT UE"
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleVerifyVAT(w http.ResponseWriter, number string) {
	if len(number) < 3 {
		writeDetail(w, http.StatusBadRequest, "Nieprawidłowy format VAT")
		return
	}
	res := domain.VATCheck{CountryCode: strings.ToUpper(number[:2]), VATNumber: number[2:]}
	if data, ok := registry[domain.VerifyVATEU][res.CountryCode+res.VATNumber]; ok {
		res.Valid = true
		res.Name, _ = data["name"].(string)
		res.Address, _ = data["address"].(string)
	} else {
		res.Error = "Nie można zweryfikować"
	}
	writeJSON(w, http.StatusOK, res)
}
