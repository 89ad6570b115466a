package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/workspace"
	"github.com/sakif/hoverspeak/web"
)

var pageFiles = map[workspace.View]string{
	workspace.ViewLanding:   "landing.html",
	workspace.ViewLogin:     "login.html",
	workspace.ViewRegister:  "register.html",
	workspace.ViewDashboard: "dashboard.html",
	workspace.ViewCreateAd:  "create_ad.html",
}

var pageTitles = map[workspace.View]string{
	workspace.ViewLanding:   "HoverSpeak™ | Where Digital Advertising Finds Its Voice",
	workspace.ViewLogin:     "Sign In | HoverSpeak™",
	workspace.ViewRegister:  "Join HoverSpeak™",
	workspace.ViewDashboard: "Dashboard | HoverSpeak™",
	workspace.ViewCreateAd:  "Create New Advertisement | HoverSpeak™",
}

// pageData is everything a page template can reach.
type pageData struct {
	Title string
	State workspace.State
	Flash string

	Ads   []model.Advertisement
	Stats []model.Stat

	MaxSites      int
	CanAddSite    bool
	CanRemoveSite bool

	Benefits           []model.Benefit
	Plans              []model.Plan
	BillingFrequencies []model.Option
	Languages          []model.Option
	SpeechVoices       []model.Option
	LocalVoices        []model.Option
}

// Renderer holds one parsed template set per view, each made of the shared
// base layout and the view's content.
type Renderer struct {
	pages  map[workspace.View]*template.Template
	logger *slog.Logger
}

// NewRenderer parses the embedded templates.
//
// ONE TEMPLATE SET PER VIEW:
// Every page file defines a block named "content", which base.html calls.
// Parsing all pages into one set would leave a single "content" (the last
// one parsed wins), so each view gets its own set of base plus page.
//
// Parsing happens once at startup. A broken template fails New, not the
// first visitor who happens to open that page.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"planName":      model.PlanName,
		"languageLabel": model.LanguageLabel,
	}

	pages := make(map[workspace.View]*template.Template, len(pageFiles))
	for view, file := range pageFiles {
		tmpl, err := template.New("").Funcs(funcs).ParseFS(web.Templates, "templates/base.html", "templates/"+file)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", file, err)
		}
		pages[view] = tmpl
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

func newPageData(st workspace.State, flash string) pageData {
	return pageData{
		Title:              pageTitles[st.View],
		State:              st,
		Flash:              flash,
		Benefits:           model.Benefits,
		Plans:              model.Plans,
		BillingFrequencies: model.BillingFrequencies,
		Languages:          model.PrimaryLanguages,
		SpeechVoices:       model.SpeechVoices,
		LocalVoices:        model.LocalTTSVoices,
	}
}

// Render writes the page for data.State.View. The page is rendered into a
// buffer first so a template error never sends half a page.
func (rd *Renderer) Render(w http.ResponseWriter, status int, data pageData) {
	tmpl, ok := rd.pages[data.State.View]
	if !ok {
		rd.logger.Error("no template for view", slog.String("view", string(data.State.View)))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// Once WriteHeader has gone out the status can't change, so a template
	// that fails halfway would leave a 200 with a truncated page. Rendering
	// into memory first means the error path can still send a clean 500.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("view", string(data.State.View)),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
