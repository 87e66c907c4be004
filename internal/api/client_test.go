package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/detax-ai/detax/internal/api"
	"github.com/detax-ai/detax/internal/domain"
	"github.com/detax-ai/detax/internal/testutil"
)

type recordedObservation struct {
	method, route string
	status        int
}

type observer struct {
	mu  sync.Mutex
	obs []recordedObservation
}

func (o *observer) ObserveRequest(method, route string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, recordedObservation{method, route, status})
}

func newClient(t *testing.T, srv *testutil.Server, opts ...api.Option) *api.Client {
	t.Helper()
	c, err := api.New(api.Config{BaseURL: srv.URL(), Prefix: testutil.Prefix}, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsInvalidBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8005", "ftp://x", "http://"} {
		_, err := api.New(api.Config{BaseURL: raw})
		require.Error(t, err, raw)
	}
}

func TestNew_JoinsPrefix(t *testing.T) {
	c, err := api.New(api.Config{BaseURL: "http://localhost:8005/", Prefix: "/api/v1/"})
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8005/api/v1", c.Endpoint())
}

func TestRoute(t *testing.T) {
	cases := map[string]string{
		"/documents":                    "/documents",
		"/documents/12":                 "/documents/{id}",
		"/projects/7/files":             "/projects/{id}/files",
		"/events/projects/3":            "/events/projects/{id}",
		"/context/channels?contact=Acme": "/context/channels",
		"/documents?category=vat":       "/documents",
	}
	for in, want := range cases {
		require.Equal(t, want, api.Route(in), in)
	}
}

func TestGet_NonSuccessIsStatusError(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	c := newClient(t, srv)

	_, err := c.Document(context.Background(), 999)
	require.Error(t, err)
	require.True(t, api.IsStatus(err, http.StatusNotFound))

	var se *api.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "Dokument nie znaleziony", se.Detail)
	require.Equal(t, http.MethodGet, se.Method)
}

func TestGet_ServerErrorIsNotRetried(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	srv.Fail(http.MethodGet, testutil.Prefix+"/documents", http.StatusInternalServerError)
	c := newClient(t, srv)

	_, err := c.Documents(context.Background(), api.DocumentFilter{})
	require.True(t, api.IsStatus(err, http.StatusInternalServerError))
	require.Equal(t, 1, srv.RequestCount(http.MethodGet, testutil.Prefix+"/documents"))
}

func TestGet_CanceledContext(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	c := newClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Hierarchy(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecodeError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(ts.Close)

	c, err := api.New(api.Config{BaseURL: ts.URL})
	require.NoError(t, err)
	_, err = c.DocumentStats(context.Background())
	require.ErrorContains(t, err, "decoding GET /documents/stats")
}

func TestHealth_OutsidePrefix(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	srv.SetHealth(domain.Health{Status: domain.HealthDegraded, Services: map[string]string{"model": "not_loaded"}})
	c := newClient(t, srv)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.HealthDegraded, h.Status)
	require.True(t, h.ModelLoading())
	require.Equal(t, 1, srv.RequestCount(http.MethodGet, "/health"))
}

func TestHierarchyAndChannels(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	contacts, err := c.Hierarchy(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 3)
	require.Equal(t, "Acme", contacts[0].Name)
	p, ok := contacts[0].ProjectByID(testutil.AcmeInvoicesID)
	require.True(t, ok)
	require.Len(t, p.Files, 2)

	channels, err := c.RecommendedChannels(ctx, api.ChannelQuery{Contact: "Acme", ProjectID: testutil.AcmeInvoicesID})
	require.NoError(t, err)
	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		ids = append(ids, ch.ID)
	}
	require.Equal(t, []string{domain.GeneralChannel, "ksef"}, ids)

	reqs := srv.Requests()
	require.Equal(t, "contact=Acme&project_id=1", reqs[len(reqs)-1].Query)
}

func TestChat(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	c := newClient(t, srv)

	resp, err := c.Chat(context.Background(), "Co to VAT OSS?", "vat")
	require.NoError(t, err)
	require.Equal(t, "Odpowiedź (vat): Co to VAT OSS?", resp.Response)
	require.Len(t, resp.Sources, 1)

	reqs := srv.Requests()
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Body), &body))
	require.Equal(t, map[string]string{"message": "Co to VAT OSS?", "module": "vat"}, body)
}

func TestDocumentCommandRoundTrip(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	created, err := c.CreateDocument(ctx, domain.Document{Title: "JPK", Category: "vat", Content: "JPK_VAT"})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	reqs := srv.Requests()
	require.JSONEq(t, `{"title":"JPK","source":null,"category":"vat","content":"JPK_VAT"}`, reqs[len(reqs)-1].Body)

	docs, err := c.Documents(ctx, api.DocumentFilter{Category: "vat"})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	created.Content = "JPK_VAT z deklaracją"
	_, err = c.UpdateDocument(ctx, created)
	require.NoError(t, err)

	events, err := c.DocumentEvents(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].IsCreate())
	require.True(t, events[1].IsUpdate())
	require.True(t, events[1].CreatedAt.After(events[0].CreatedAt.Time))

	require.NoError(t, c.DeleteDocument(ctx, created.ID))
	_, err = c.Document(ctx, created.ID)
	require.True(t, api.IsStatus(err, http.StatusNotFound))
}

func TestProjectFiles(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	added, err := c.AddProjectFile(ctx, testutil.BetaPayrollID, "dra.xml", "")
	require.NoError(t, err)
	require.NotZero(t, added.ID)
	require.Equal(t, testutil.BetaPayrollID, added.ProjectID)
	files, err := c.ProjectFiles(ctx, testutil.BetaPayrollID)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "dra.xml", files[0].Filename)
	require.Equal(t, added.ID, files[0].ID)

	require.NoError(t, c.RemoveProjectFile(ctx, files[0].ID))
	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	require.Equal(t, testutil.Prefix+"/commands/projects/files/remove", last.Path)
	require.Contains(t, last.Body, `"file_id"`)

	files, err = c.ProjectFiles(ctx, testutil.BetaPayrollID)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestSearch(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	c := newClient(t, srv)

	res, err := c.Search(context.Background(), "ksef", "", 10)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.Equal(t, testutil.DocKSeFID, res.Results[0].ID)
}

func TestObserverAndSpans(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	obs := &observer{}
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	c := newClient(t, srv, api.WithObserver(obs), api.WithTracer(tp.Tracer("test")))
	ctx := context.Background()

	_, err := c.Project(ctx, testutil.AcmeInvoicesID)
	require.NoError(t, err)
	_, err = c.Project(ctx, 404)
	require.Error(t, err)

	require.Equal(t, []recordedObservation{
		{http.MethodGet, "/projects/{id}", 200},
		{http.MethodGet, "/projects/{id}", 404},
	}, obs.obs)
	require.Len(t, recorder.Ended(), 2)
}

func TestSources(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	obs := &observer{}
	c := newClient(t, srv, api.WithObserver(obs))
	ctx := context.Background()

	all, err := c.Sources(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 5)

	commercial, err := c.Sources(ctx, domain.SourceCommercial)
	require.NoError(t, err)
	require.Len(t, commercial, 1)
	require.Equal(t, "lex", commercial[0].ID)
	require.False(t, commercial[0].Active)
	reqs := srv.Requests()
	require.Equal(t, "source_type=commercial", reqs[len(reqs)-1].Query)

	src, err := c.Source(ctx, "vies")
	require.NoError(t, err)
	require.Equal(t, domain.SourceOfficial, src.Type)
	_, err = c.Source(ctx, "nope")
	require.True(t, api.IsStatus(err, http.StatusNotFound))

	ksef, err := c.SourcesForCategory(ctx, "ksef")
	require.NoError(t, err)
	require.Equal(t, "mf_ksef", ksef[0].ID)
	other, err := c.SourcesForCategory(ctx, "zus")
	require.NoError(t, err)
	require.Len(t, other, 1)

	docs, err := c.LegalDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 4)
	require.Contains(t, docs[0].URL, docs[0].ID)

	routes := make([]string, 0, len(obs.obs))
	for _, o := range obs.obs {
		routes = append(routes, o.route)
	}
	require.Equal(t, []string{
		"/sources", "/sources",
		"/sources/{source}", "/sources/{source}",
		"/sources/category/{category}", "/sources/category/{category}",
		"/legal-documents",
	}, routes)
}

func TestVerify(t *testing.T) {
	srv := testutil.NewStandardServer(t)
	obs := &observer{}
	c := newClient(t, srv, api.WithObserver(obs))
	ctx := context.Background()

	res, err := c.Verify(ctx, testutil.KnownKRS, domain.VerifyKRS)
	require.NoError(t, err)
	require.True(t, res.Valid)
	require.Equal(t, "Beta S.A.", res.Name())
	require.Equal(t, "ul. Długa 2, Kraków", res.Address())

	res, err = c.Verify(ctx, "123", domain.VerifyNIP)
	require.NoError(t, err, "an unknown entity is not a transport error")
	require.False(t, res.Valid)
	require.NotEmpty(t, res.Error)

	_, err = c.Verify(ctx, "123", domain.VerifyKind("pesel"))
	require.True(t, api.IsStatus(err, http.StatusBadRequest))

	vat, err := c.VerifyVAT(ctx, "pl5260250274")
	require.NoError(t, err)
	require.True(t, vat.Valid)
	require.Equal(t, "PL", vat.CountryCode)
	require.Equal(t, "ACME SP. Z O.O.", vat.Name)

	vat, err = c.VerifyVAT(ctx, "DE123")
	require.NoError(t, err)
	require.False(t, vat.Valid)

	last := obs.obs[len(obs.obs)-1]
	require.Equal(t, recordedObservation{http.MethodGet, "/verify/vat/{number}", 200}, last)
}
