package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sakif/hoverspeak/internal/apperror"
	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/workspace"
)

// Create-ad form actions, carried in the "action" field of the submit button.
//
// ONE FORM, MANY BUTTONS:
// The whole create-ad page is a single multipart form. Each button submits
// everything typed so far plus its own name="action" value, so an "Add
// Website" click never loses the message the visitor was writing. The
// handler binds the fields first, then switches on the action.
//
// Pressing Enter submits with the form's first submit button, which the
// template makes a hidden "create" button.
const (
	actionAddSite        = "add-site"
	actionRemoveSite     = "remove-site"
	actionUploadTemplate = "upload-template"
	actionBulkUpload     = "bulk-upload"
	actionRefresh        = "refresh"
	actionCancel         = "cancel"
	actionCreate         = "create"
)

// HandleCreateAd binds the submitted form into the draft and applies the
// requested action. Every outcome ends in a redirect: back to the form for
// edits and failures, to the dashboard on cancel or create.
//
// HTTP: POST /ads/new
func (h *PageHandler) HandleCreateAd(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if !ws.SignedIn() {
		redirect(w, r, workspace.ViewLanding.Path())
		return
	}

	// LIMITING THE REQUEST BODY:
	// http.MaxBytesReader wraps the body so that reading past the limit
	// fails with *http.MaxBytesError (and tells the server to close the
	// connection afterwards). Without it, a visitor could stream an
	// arbitrarily large "template" and ParseMultipartForm would spool all of
	// it to a temp file.
	//
	// The same limit doubles as ParseMultipartForm's in-memory threshold:
	// anything that got past MaxBytesReader fits in memory anyway.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := parseAdForm(r, h.maxUploadBytes); err != nil {
		// errors.As, not ==: the multipart reader wraps the error it got
		// from the body.
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			// The draft is untouched because nothing was bound yet. Send
			// the visitor back to the form with a message instead of a
			// bare 413 page.
			ws.SetFlash("Upload is larger than " + byteSize(tooLarge.Limit) + ".")
			ws.Navigate(workspace.ViewCreateAd)
			redirect(w, r, workspace.ViewCreateAd.Path())
			return
		}
		h.logger.Warn("invalid create-ad form", slog.String("error", err.Error()))
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	// Parts that didn't fit in memory were written to temp files. They are
	// ours to clean up.
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	if err := ws.EditDraft(func(d *model.AdDraft) error {
		return bindDraft(r, d, h.ads.MaxSites())
	}); err != nil {
		h.fail(w, r, ws, err)
		return
	}

	action := r.FormValue("action")
	var err error
	switch action {
	case actionAddSite:
		err = h.ads.AddSite(ws)

	case actionRemoveSite:
		var i int
		i, err = strconv.Atoi(r.FormValue("index"))
		if err != nil {
			err = apperror.ValidationFailed("index", "no receiving site selected")
			break
		}
		err = h.ads.RemoveSite(ws, i)

	case actionUploadTemplate:
		err = h.uploadTemplate(r, ws)

	case actionBulkUpload:
		err = h.bulkUpload(r, ws)

	case actionRefresh:

	case actionCancel:
		h.ads.CancelDraft(ws)
		redirect(w, r, workspace.ViewDashboard.Path())
		return

	case actionCreate, "":
		if _, err = h.ads.Create(r.Context(), ws); err == nil {
			redirect(w, r, workspace.ViewDashboard.Path())
			return
		}

	default:
		err = apperror.ValidationFailed("action", "unknown action "+strconv.Quote(action))
	}

	if err != nil {
		h.fail(w, r, ws, err)
		return
	}
	ws.Navigate(workspace.ViewCreateAd)
	redirect(w, r, workspace.ViewCreateAd.Path())
}

// HandlePlayback toggles the simulated playback of an ad.
//
// HTTP: POST /ads/{id}/playback
func (h *PageHandler) HandlePlayback(w http.ResponseWriter, r *http.Request) {
	ws, ok := currentWorkspace(w, r)
	if !ok {
		return
	}
	if !ws.SignedIn() {
		redirect(w, r, workspace.ViewLanding.Path())
		return
	}

	if _, err := h.ads.TogglePlayback(r.Context(), ws, chi.URLParam(r, "id")); err != nil {
		h.logger.Warn("toggling playback", slog.String("workspaceID", ws.ID()), slog.String("error", err.Error()))
		ws.SetFlash(flashMessage(err))
	}
	ws.Navigate(workspace.ViewDashboard)
	redirect(w, r, workspace.ViewDashboard.Path())
}

func (h *PageHandler) uploadTemplate(r *http.Request, ws *workspace.Workspace) error {
	name, _, err := formFile(r, "imageTemplate", false)
	if err != nil {
		return err
	}
	_, err = h.ads.UploadTemplate(ws, name)
	return err
}

func (h *PageHandler) bulkUpload(r *http.Request, ws *workspace.Workspace) error {
	name, data, err := formFile(r, "receivingSitesFile", true)
	if err != nil {
		return err
	}
	n, err := h.ads.BulkUploadSites(ws, name, data)
	if err != nil {
		return err
	}
	ws.SetFlash(fmt.Sprintf("Imported %d receiving %s from %s.", n, plural(n, "site", "sites"), name))
	return nil
}

// fail shows err on the create-ad form. Internal errors are logged.
func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		h.logger.Error("create-ad action failed", slog.String("workspaceID", ws.ID()), slog.String("error", err.Error()))
	}
	ws.SetFlash(flashMessage(err))
	ws.Navigate(workspace.ViewCreateAd)
	redirect(w, r, workspace.ViewCreateAd.Path())
}

// parseAdForm parses either encoding. The page always posts multipart (it
// carries file inputs), but plain urlencoded posts work too. Both fill
// r.PostForm, which is all bindDraft reads.
func parseAdForm(r *http.Request, maxMemory int64) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

// bindDraft copies the submitted fields onto the draft. Forms that do not
// carry the fields (the header's back button) leave the draft alone.
//
// UNCHECKED CHECKBOXES:
// Browsers leave unchecked boxes out of the submission entirely, so
// "translateToLocal" missing means off. Fields that only exist while the
// translation section is open are only overwritten when present, so
// closing the section keeps what was typed there.
func bindDraft(r *http.Request, d *model.AdDraft, maxSites int) error {
	f := r.PostForm
	if _, ok := f["textMessage"]; !ok {
		return nil
	}

	get := func(k string) string {
		if v := f[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	d.TextMessage = get("textMessage")
	d.AudioFileURL = get("audioFileUrl")
	if v := get("primaryLanguage"); v != "" {
		d.PrimaryLanguage = v
	}
	if v := get("speechVoice"); v != "" {
		d.SpeechVoice = v
	}
	d.TranslateToLocal = checked(get("translateToLocal"))
	if _, ok := f["translationText"]; ok {
		d.TranslationText = get("translationText")
	}
	if _, ok := f["localLanguageTTSVoice"]; ok {
		d.LocalLanguageTTSVoice = get("localLanguageTTSVoice")
	}
	d.DisplayUntilDate = get("displayUntilDate")

	sites, ok := f["receivingSites"]
	if !ok || len(sites) == 0 {
		return nil
	}
	if len(sites) > maxSites {
		sites = sites[:maxSites]
	}

	// Bring the row count in line with the submission through the same
	// editor operations the buttons use, then write each row in place.
	// Rows are never reordered, so index i on the page is index i here.
	for len(d.ReceivingSites) > len(sites) {
		if err := d.RemoveSite(len(d.ReceivingSites) - 1); err != nil {
			return err
		}
	}
	for len(d.ReceivingSites) < len(sites) {
		if err := d.AddSite(maxSites); err != nil {
			return err
		}
	}
	for i, v := range sites {
		if err := d.UpdateSite(i, v); err != nil {
			return err
		}
	}
	return nil
}

// byteSize formats an upload limit for people: whole megabytes or
// kilobytes when the limit is a round number of them, bytes otherwise.
func byteSize(n int64) string {
	p := message.NewPrinter(language.AmericanEnglish)
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return p.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return p.Sprintf("%d KB", n>>10)
	default:
		return p.Sprintf("%d %s", n, plural(int(n), "byte", "bytes"))
	}
}

// formFile returns the name and, when withData is set, the content of an
// uploaded file.
func formFile(r *http.Request, field string, withData bool) (string, []byte, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil, apperror.ValidationFailed(field, "choose a file to upload")
		}
		return "", nil, fmt.Errorf("reading %s: %w", field, err)
	}
	defer file.Close()

	if !withData {
		return header.Filename, nil, nil
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", field, err)
	}
	return header.Filename, data, nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
