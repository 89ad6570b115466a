package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/hoverspeak/internal/auth"
	"github.com/sakif/hoverspeak/internal/handler"
	"github.com/sakif/hoverspeak/internal/ids"
	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/repository/memory"
	"github.com/sakif/hoverspeak/internal/service"
	"github.com/sakif/hoverspeak/internal/upload"
	"github.com/sakif/hoverspeak/internal/workspace"
)

type fixture struct {
	t      *testing.T
	router chi.Router
	ws     *workspace.Workspace
	store  *memory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := memory.New()
	idgen := ids.NewTimestamp()
	accounts := service.NewAccountService(store, auth.NewPasswordServiceWithCost(4), idgen, logger)
	ads := service.NewAdService(store, upload.New("https://example.com/uploads/"), idgen,
		service.AdConfig{PlaybackDuration: time.Minute, MaxReceivingSites: model.MaxReceivingSites}, logger)

	renderer, err := handler.NewRenderer(logger)
	require.NoError(t, err)
	pages := handler.NewPageHandler(accounts, ads, renderer, 1<<20, logger)
	api := handler.NewAPIHandler(accounts, ads, logger)

	ws := workspace.New("ws-test", time.Now())
	t.Cleanup(ws.SignOut)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(workspace.NewContext(req.Context(), ws)))
		})
	})
	r.Get("/", pages.HandleLanding)
	r.Get("/login", pages.HandleLoginPage)
	r.Post("/login", pages.HandleLogin)
	r.Get("/register", pages.HandleRegisterPage)
	r.Post("/register", pages.HandleRegister)
	r.Get("/dashboard", pages.HandleDashboard)
	r.Post("/logout", pages.HandleLogout)
	r.Get("/ads/new", pages.HandleCreateAdPage)
	r.Post("/ads/new", pages.HandleCreateAd)
	r.Post("/ads/{id}/playback", pages.HandlePlayback)
	r.Get("/api/session", api.HandleSession)
	r.Get("/api/ads", api.HandleListAds)
	r.Get("/api/metrics", api.HandleMetrics)
	r.Post("/api/ads/{id}/playback", api.HandlePlayback)
	r.Get("/healthz", handler.HandleHealth)

	return &fixture{t: t, router: r, ws: ws, store: store}
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	return f.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (f *fixture) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *fixture) postFile(path string, fields url.Values, fileField, fileName, content string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(f.t, mw.WriteField(k, v))
		}
	}
	fw, err := mw.CreateFormFile(fileField, fileName)
	require.NoError(f.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(f.t, err)
	require.NoError(f.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return f.do(req)
}

func (f *fixture) signIn() {
	rr := f.postForm("/login", url.Values{"email": {"jane@shop.example"}, "password": {"pw"}})
	require.Equal(f.t, http.StatusSeeOther, rr.Code)
}

func (f *fixture) ads() []model.Advertisement {
	ads, err := f.store.ListAds(context.Background(), f.ws.ID())
	require.NoError(f.t, err)
	return ads
}

func draftForm(action string, sites ...string) url.Values {
	if len(sites) == 0 {
		sites = []string{""}
	}
	return url.Values{
		"textMessage":      {"Hover to hear today's deal"},
		"primaryLanguage":  {"fr-FR"},
		"speechVoice":      {"neural-female"},
		"receivingSites":   sites,
		"displayUntilDate": {"2026-12-31"},
		"action":           {action},
	}
}

func assertRedirect(t *testing.T, rr *httptest.ResponseRecorder, to string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, to, rr.Header().Get("Location"))
}

func TestLanding(t *testing.T) {
	f := newFixture(t)

	rr := f.get("/")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), "Finds Its Voice")
	assert.Contains(t, rr.Body.String(), "Boosts Click-Through Rates")
}

func TestSignedOutRedirects(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/dashboard", "/ads/new"} {
		assertRedirect(t, f.get(path), "/")
	}
	assert.Equal(t, http.StatusOK, f.get("/login").Code)
	assert.Equal(t, http.StatusOK, f.get("/register").Code)
}

func TestSignedInRedirects(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	for _, path := range []string{"/", "/login", "/register"} {
		assertRedirect(t, f.get(path), "/dashboard")
	}
	assert.Equal(t, http.StatusOK, f.get("/ads/new").Code)
}

func TestLogin_ShowsDemoUser(t *testing.T) {
	f := newFixture(t)

	rr := f.postForm("/login", url.Values{"email": {"anyone@example.org"}, "password": {"whatever"}})
	assertRedirect(t, rr, "/dashboard")

	body := f.get("/dashboard").Body.String()
	assert.Contains(t, body, "Welcome back, John!")
	assert.Contains(t, body, "Pro Plan")
	assert.Contains(t, body, "Demo Company")
	assert.Contains(t, body, "No advertisements yet")
	assert.Contains(t, body, "12,543")

	u := f.ws.User()
	require.NotNil(t, u)
	assert.Equal(t, "anyone@example.org", u.Email)
}

func TestRegister_ShowsTypedUser(t *testing.T) {
	f := newFixture(t)

	rr := f.postForm("/register", url.Values{
		"firstName":        {"Ada"},
		"lastName":         {"Lovelace"},
		"email":            {"ada@engines.example"},
		"password":         {"one"},
		"confirmPassword":  {"two"},
		"companyName":      {"Engines Ltd"},
		"subscriptionPlan": {"enterprise"},
	})
	assertRedirect(t, rr, "/dashboard")

	body := f.get("/dashboard").Body.String()
	assert.Contains(t, body, "Welcome back, Ada!")
	assert.Contains(t, body, "Enterprise Plan")
	assert.Contains(t, body, "Engines Ltd")

	u := f.ws.User()
	require.NotNil(t, u)
	assert.Equal(t, "Lovelace", u.LastName)
	assert.Equal(t, "ada@engines.example", u.Email)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	assertRedirect(t, f.do(httptest.NewRequest(http.MethodPost, "/logout", nil)), "/")
	assert.False(t, f.ws.SignedIn())
	assertRedirect(t, f.get("/dashboard"), "/")
}

func TestCreateAd(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	rr := f.postForm("/ads/new", draftForm("create", "https://a.example", " ", "https://b.example"))
	assertRedirect(t, rr, "/dashboard")

	ads := f.ads()
	require.Len(t, ads, 1)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, ads[0].ReceivingSites)
	assert.Equal(t, "neural-female", ads[0].SpeechVoice)
	assert.True(t, ads[0].IsActive)
	assert.Equal(t, model.NewAdDraft(), f.ws.Draft())

	body := f.get("/dashboard").Body.String()
	assert.Contains(t, body, "Ad #"+ads[0].ID)
	assert.Contains(t, body, "Sites: 2")
	assert.Contains(t, body, "Language: fr-FR")
	assert.Contains(t, body, "Expires: 2026-12-31")
}

func TestCreateAd_SignedOut(t *testing.T) {
	f := newFixture(t)

	assertRedirect(t, f.postForm("/ads/new", draftForm("create")), "/")
	assert.Empty(t, f.ads())
}

func TestCreateAd_SiteRows(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	body := f.get("/ads/new").Body.String()
	assert.Contains(t, body, `id="add-site"`)
	assert.NotContains(t, body, "Remove website", "remove control hidden with one row")

	sites := []string{""}
	for len(sites) < model.MaxReceivingSites {
		rr := f.postForm("/ads/new", draftForm("add-site", sites...))
		assertRedirect(t, rr, "/ads/new")
		sites = append(sites, "")
	}

	body = f.get("/ads/new").Body.String()
	assert.NotContains(t, body, `id="add-site"`, "add control hidden at the cap")
	assert.Contains(t, body, "Remove website")

	f.postForm("/ads/new", draftForm("add-site", sites...))
	assert.Len(t, f.ws.Draft().ReceivingSites, model.MaxReceivingSites)
	assert.Contains(t, f.get("/ads/new").Body.String(), "at most 10 receiving sites")
}

func TestCreateAd_RowsFollowSubmission(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.postForm("/ads/new", draftForm("refresh", "https://a.example", "https://b.example", "https://c.example"))
	require.Len(t, f.ws.Draft().ReceivingSites, 3)

	assertRedirect(t, f.postForm("/ads/new", draftForm("refresh", "https://x.example")), "/ads/new")
	assert.Equal(t, []string{"https://x.example"}, f.ws.Draft().ReceivingSites)

	assertRedirect(t, f.postForm("/ads/new", draftForm("refresh", "https://x.example", "")), "/ads/new")
	assert.Equal(t, []string{"https://x.example", ""}, f.ws.Draft().ReceivingSites)
}

func TestCreateAd_RemoveSite(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	rr := f.postForm("/ads/new?index=1", draftForm("remove-site", "https://a.example", "https://b.example", "https://c.example"))
	assertRedirect(t, rr, "/ads/new")
	assert.Equal(t, []string{"https://a.example", "https://c.example"}, f.ws.Draft().ReceivingSites)

	f.postForm("/ads/new?index=0", draftForm("remove-site", "https://only.example"))
	assert.Equal(t, []string{""}, f.ws.Draft().ReceivingSites)
}

func TestCreateAd_TranslationSection(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	assert.NotContains(t, f.get("/ads/new").Body.String(), `id="translation"`)

	form := draftForm("refresh")
	form.Set("translateToLocal", "on")
	assertRedirect(t, f.postForm("/ads/new", form), "/ads/new")

	assert.Contains(t, f.get("/ads/new").Body.String(), `id="translation"`)
	assert.Equal(t, "Hover to hear today's deal", f.ws.Draft().TextMessage)
}

func TestCreateAd_UploadTemplate(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	rr := f.postFile("/ads/new", draftForm("upload-template"), "imageTemplate", "spring banner.png", "PNG")
	assertRedirect(t, rr, "/ads/new")

	assert.Equal(t, "https://example.com/uploads/spring%20banner.png", f.ws.Draft().ImageTemplateURL)
	assert.Contains(t, f.get("/ads/new").Body.String(), "Template uploaded successfully")
}

func TestCreateAd_UploadOverLimit(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	before := f.ws.Draft()

	big := strings.Repeat("x", 2<<20)
	rr := f.postFile("/ads/new", draftForm("upload-template"), "imageTemplate", "huge.png", big)
	assertRedirect(t, rr, "/ads/new")

	assert.Equal(t, before, f.ws.Draft(), "nothing is bound from a rejected upload")
	body := f.get("/ads/new").Body.String()
	assert.Contains(t, body, "Upload is larger than 1 MB.")
}

func TestCreateAd_EnterSubmitsCreate(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	body := f.get("/ads/new").Body.String()
	form := strings.Index(body, `enctype="multipart/form-data"`)
	require.NotEqual(t, -1, form, "create-ad form not rendered")

	// Implicit submission uses the first submit button inside the form.
	rest := body[form:]
	first := strings.Index(rest, `name="action"`)
	require.NotEqual(t, -1, first)
	assert.True(t, strings.HasPrefix(rest[first:], `name="action" value="create"`),
		"first action in the form is %q", rest[first:min(len(rest), first+40)])
}

func TestCreateAd_UploadWithoutFile(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	assertRedirect(t, f.postForm("/ads/new", draftForm("upload-template")), "/ads/new")
	assert.Empty(t, f.ws.Draft().ImageTemplateURL)
	assert.Contains(t, f.get("/ads/new").Body.String(), "choose a file to upload")
}

func TestCreateAd_BulkUpload(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	csv := "url\nhttps://a.example\nhttps://b.example\n"
	rr := f.postFile("/ads/new", draftForm("bulk-upload"), "receivingSitesFile", "partners.csv", csv)
	assertRedirect(t, rr, "/ads/new")

	d := f.ws.Draft()
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, d.ReceivingSites)
	assert.Equal(t, "https://example.com/uploads/partners.csv", d.ReceivingSitesFileURL)
	assert.Contains(t, f.get("/ads/new").Body.String(), "Imported 2 receiving sites from partners.csv.")
}

func TestCreateAd_Cancel(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	assertRedirect(t, f.postForm("/ads/new", draftForm("cancel")), "/dashboard")
	assert.Empty(t, f.ads())
	assert.Equal(t, workspace.ViewDashboard, f.ws.View())
}

func TestCreateAd_UnknownAction(t *testing.T) {
	f := newFixture(t)
	f.signIn()

	assertRedirect(t, f.postForm("/ads/new", draftForm("publish")), "/ads/new")
	assert.Empty(t, f.ads())
}

func TestPlayback(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.postForm("/ads/new", draftForm("create"))
	ad := f.ads()[0]

	assertRedirect(t, f.do(httptest.NewRequest(http.MethodPost, "/ads/"+ad.ID+"/playback", nil)), "/dashboard")
	assert.Equal(t, ad.ID, f.ws.Snapshot().Playing)
	assert.Contains(t, f.get("/dashboard").Body.String(), `class="icon-btn playing"`)

	f.do(httptest.NewRequest(http.MethodPost, "/ads/"+ad.ID+"/playback", nil))
	assert.Empty(t, f.ws.Snapshot().Playing)
}

func TestAPI_Session(t *testing.T) {
	f := newFixture(t)

	var got struct {
		View string      `json:"view"`
		User *model.User `json:"user"`
	}
	rr := f.get("/api/session")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "landing", got.View)
	assert.Nil(t, got.User)

	f.signIn()
	rr = f.get("/api/session")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "dashboard", got.View)
	require.NotNil(t, got.User)
	assert.Equal(t, "John", got.User.FirstName)
}

func TestAPI_SessionIncludesRegisteredAccount(t *testing.T) {
	f := newFixture(t)

	var got handler.SessionResponse
	f.signIn()
	require.NoError(t, json.NewDecoder(f.get("/api/session").Body).Decode(&got))
	assert.Nil(t, got.Account, "the demo login has no stored account")

	f.postForm("/logout", nil)
	f.postForm("/register", url.Values{
		"firstName":        {"Ada"},
		"lastName":         {"Lovelace"},
		"email":            {"ada@engines.example"},
		"password":         {"secret"},
		"city":             {"London"},
		"subscriptionPlan": {"starter"},
		"billingFrequency": {"annual"},
	})

	got = handler.SessionResponse{}
	rr := f.get("/api/session")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "passwordHash")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.NotNil(t, got.Account)
	assert.Equal(t, f.ws.User().ID, got.Account.ID)
	assert.Equal(t, "London", got.Account.City)
	assert.Equal(t, "annual", got.Account.BillingFrequency)
}

func TestAPI_SessionReportsPlayback(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.postForm("/ads/new", draftForm("create", "https://a.example"))
	ad := f.ads()[0]
	f.do(httptest.NewRequest(http.MethodPost, "/api/ads/"+ad.ID+"/playback", nil))

	var got handler.SessionResponse
	require.NoError(t, json.NewDecoder(f.get("/api/session").Body).Decode(&got))
	assert.Equal(t, ad.ID, got.Playing)
}

func TestAPI_SignedOutForbidden(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/ads", "/api/metrics"} {
		rr := f.get(path)
		assert.Equal(t, http.StatusForbidden, rr.Code, path)

		var body handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "forbidden", body.Error)
	}
}

func TestAPI_AdsAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.postForm("/ads/new", draftForm("create", "https://a.example"))

	var ads []model.Advertisement
	rr := f.get("/api/ads")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ads))
	require.Len(t, ads, 1)
	assert.Equal(t, []string{"https://a.example"}, ads[0].ReceivingSites)

	var stats []model.Stat
	rr = f.get("/api/metrics")
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stats))
	require.Len(t, stats, 4)
	assert.Equal(t, model.Stat{Title: "Active Ads", Value: "1", Color: "blue"}, stats[0])
}

func TestAPI_Playback(t *testing.T) {
	f := newFixture(t)
	f.signIn()
	f.postForm("/ads/new", draftForm("create"))
	id := f.ads()[0].ID

	var got handler.PlaybackResponse
	rr := f.do(httptest.NewRequest(http.MethodPost, "/api/ads/"+id+"/playback", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, id, got.Playing)

	rr = f.do(httptest.NewRequest(http.MethodPost, "/api/ads/missing/playback", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rr := f.get("/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
