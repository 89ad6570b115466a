package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/service"
	"github.com/sakif/hoverspeak/internal/workspace"
)

// PageHandler serves the server-rendered views.
//
// Every GET records the requested view on the workspace. When the view
// resolves to a different one (a signed-out visitor asking for the
// dashboard, a signed-in one asking for the login form) the browser is
// redirected to the resolved view's path.
type PageHandler struct {
	accounts       *service.AccountService
	ads            *service.AdService
	pages          *Renderer
	maxUploadBytes int64
	logger         *slog.Logger
}

func NewPageHandler(
	accounts *service.AccountService,
	ads *service.AdService,
	pages *Renderer,
	maxUploadBytes int64,
	logger *slog.Logger,
) *PageHandler {
	return &PageHandler{
		accounts:       accounts,
		ads:            ads,
		pages:          pages,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HandleLanding: GET /
func (h *PageHandler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, workspace.ViewLanding)
}

// HandleLoginPage: GET /login
func (h *PageHandler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, workspace.ViewLogin)
}

// HandleRegisterPage: GET /register
func (h *PageHandler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, workspace.ViewRegister)
}

// HandleDashboard: GET /dashboard
func (h *PageHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, workspace.ViewDashboard)
}

// HandleCreateAdPage: GET /ads/new
func (h *PageHandler) HandleCreateAdPage(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, workspace.ViewCreateAd)
}

// HandleLogin signs in as the demo user whatever the credentials.
//
// HTTP: POST /login
func (h *PageHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("invalid login form", slog.String("error", err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	h.accounts.Login(r.Context(), ws, r.PostForm.Get("email"), r.PostForm.Get("password"))
	redirect(w, r, workspace.ViewDashboard.Path())
}

// HandleRegister signs in as the person on the sign-up form.
//
// HTTP: POST /register
func (h *PageHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("invalid registration form", slog.String("error", err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	h.accounts.Register(r.Context(), ws, bindRegistration(r))
	redirect(w, r, workspace.ViewDashboard.Path())
}

// HandleLogout: POST /logout
func (h *PageHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	h.accounts.SignOut(ws)
	redirect(w, r, workspace.ViewLanding.Path())
}

// show navigates to the requested view and renders it, or redirects when
// the view resolves elsewhere.
func (h *PageHandler) show(w http.ResponseWriter, r *http.Request, requested workspace.View) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}

	if shown := ws.Navigate(requested); shown != requested {
		redirect(w, r, shown.Path())
		return
	}
	h.render(w, r, ws)
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace) {
	data := newPageData(ws.Snapshot(), ws.TakeFlash())

	switch data.State.View {
	case workspace.ViewDashboard:
		ads, err := h.ads.List(r.Context(), ws)
		if err != nil {
			h.logger.Error("listing advertisements", slog.String("workspaceID", ws.ID()), slog.String("error", err.Error()))
			data.Flash = flashMessage(err)
		}
		stats, err := h.ads.Metrics(r.Context(), ws)
		if err != nil {
			h.logger.Error("computing metrics", slog.String("workspaceID", ws.ID()), slog.String("error", err.Error()))
		}
		data.Ads = ads
		data.Stats = stats

	case workspace.ViewCreateAd:
		draft := data.State.Draft
		data.MaxSites = h.ads.MaxSites()
		data.CanAddSite = draft.CanAddSite(data.MaxSites)
		data.CanRemoveSite = draft.CanRemoveSite()
	}

	h.pages.Render(w, http.StatusOK, data)
}

func bindRegistration(r *http.Request) model.Registration {
	f := r.PostForm
	reg := model.Registration{
		FirstName:        f.Get("firstName"),
		LastName:         f.Get("lastName"),
		Email:            f.Get("email"),
		Password:         f.Get("password"),
		ConfirmPassword:  f.Get("confirmPassword"),
		StreetAddress1:   f.Get("streetAddress1"),
		StreetAddress2:   f.Get("streetAddress2"),
		City:             f.Get("city"),
		State:            f.Get("state"),
		ZipCode:          f.Get("zipCode"),
		Country:          f.Get("country"),
		PhoneNumber:      f.Get("phoneNumber"),
		CompanyName:      f.Get("companyName"),
		BusinessWebsite:  f.Get("businessWebsite"),
		SubscriptionPlan: f.Get("subscriptionPlan"),
		BillingFrequency: f.Get("billingFrequency"),
		AgreeTerms:       checked(f.Get("agreeTerms")),
		AgreePrivacy:     checked(f.Get("agreePrivacy")),
	}

	defaults := model.NewRegistration()
	if reg.SubscriptionPlan == "" {
		reg.SubscriptionPlan = defaults.SubscriptionPlan
	}
	if reg.BillingFrequency == "" {
		reg.BillingFrequency = defaults.BillingFrequency
	}
	return reg
}

func checked(v string) bool {
	switch v {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}
