package testutil

import "testing"

// Preset ids produced by NewStandardServer. Projects are seeded first, each
// followed by its files, then documents.
const (
	AcmeInvoicesID   int64 = 1 // Acme: "Faktury KSeF"
	AcmeInvoiceXML   int64 = 2 // file of project 1: faktura-01.xml
	AcmeInvoicePDF   int64 = 3 // file of project 1: faktura-02.pdf
	AcmeContractID   int64 = 4 // Acme: "Umowa B2B"
	AcmeContractFile int64 = 5 // file of project 4: umowa.pdf
	BetaPayrollID    int64 = 6 // Beta: "Składki ZUS"
	OrphanProjectID  int64 = 7 // no contact
	DocKSeFID        int64 = 8
	DocVATID         int64 = 9
	DocZUSID         int64 = 10
)

// NewStandardServer seeds two contacts, an orphan project and three
// documents.
func NewStandardServer(t *testing.T) *Server {
	t.Helper()
	return NewBuilder(t).
		WithProject("Faktury KSeF", ForContact("Acme"), Described("e-faktury"),
			WithFile("faktura-01.xml", "/acme/faktura-01.xml"),
			WithFile("faktura-02.pdf", "/acme/faktura-02.pdf")).
		WithProject("Umowa B2B", ForContact("Acme"),
			WithFile("umowa.pdf", "/acme/umowa.pdf")).
		WithProject("Składki ZUS", ForContact("Beta")).
		WithProject("Notatki").
		WithDocument("KSeF 2026", "ksef", WithSource("mf.gov.pl"),
			WithContent("Obowiązkowy KSeF od 2026 roku.")).
		WithDocument("VAT OSS", "vat", WithContent("Procedura VAT OSS dla sprzedaży w UE.")).
		WithDocument("Składka zdrowotna", "zus", WithContent("Składka zdrowotna na ryczałcie.")).
		WithChunks(42).
		Build()
}
