package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/sakif/hoverspeak/internal/apperror"
)

const (
	DefaultPrimaryLanguage = "en-US"
	DefaultSpeechVoice     = "default"
	MaxReceivingSites      = 10
)

// Advertisement is a hover-triggered voice ad.
type Advertisement struct {
	ID                    string    `json:"id"`
	TextMessage           string    `json:"textMessage"`
	AudioFileURL          string    `json:"audioFileUrl,omitempty"`
	ImageTemplateURL      string    `json:"imageTemplateUrl,omitempty"`
	PrimaryLanguage       string    `json:"primaryLanguage"`
	TranslateToLocal      bool      `json:"translateToLocal"`
	TranslationText       string    `json:"translationText,omitempty"`
	LocalLanguageTTSVoice string    `json:"localLanguageTTSVoice,omitempty"`
	SpeechVoice           string    `json:"speechVoice"`
	ReceivingSites        []string  `json:"receivingSites"`
	ReceivingSitesFileURL string    `json:"receivingSitesFileUrl,omitempty"`
	DisplayUntilDate      string    `json:"displayUntilDate"`
	IsActive              bool      `json:"isActive"`
	CreatedAt             time.Time `json:"createdAt"`
}

// AdDraft is the state of the create-ad form.
type AdDraft struct {
	TextMessage           string
	AudioFileURL          string
	ImageTemplateURL      string
	PrimaryLanguage       string
	TranslateToLocal      bool
	TranslationText       string
	LocalLanguageTTSVoice string
	SpeechVoice           string
	ReceivingSites        []string
	ReceivingSitesFileURL string
	DisplayUntilDate      string
}

// NewAdDraft returns the create-ad form with its initial defaults: one
// empty receiving-site row.
func NewAdDraft() AdDraft {
	return AdDraft{
		PrimaryLanguage: DefaultPrimaryLanguage,
		SpeechVoice:     DefaultSpeechVoice,
		ReceivingSites:  []string{""},
	}
}

// Clone returns a copy that shares no backing array with d.
//
// A value receiver already copies the struct, but ReceivingSites is a slice
// header: the copy would still point at the same array, and an edit through
// one would show up in the other.
func (d AdDraft) Clone() AdDraft {
	d.ReceivingSites = append([]string(nil), d.ReceivingSites...)
	return d
}

// CanAddSite reports whether another receiving-site row may be added.
func (d *AdDraft) CanAddSite(max int) bool {
	return len(d.ReceivingSites) < max
}

// CanRemoveSite reports whether the per-row remove control is offered.
func (d *AdDraft) CanRemoveSite() bool {
	return len(d.ReceivingSites) > 1
}

// AddSite appends an empty receiving-site row.
func (d *AdDraft) AddSite(max int) error {
	if !d.CanAddSite(max) {
		return apperror.ValidationFailed("receivingSites",
			fmt.Sprintf("at most %d receiving sites can be added", max))
	}
	d.ReceivingSites = append(d.ReceivingSites, "")
	return nil
}

// UpdateSite replaces the row at index i.
func (d *AdDraft) UpdateSite(i int, value string) error {
	if i < 0 || i >= len(d.ReceivingSites) {
		return siteIndexError(i)
	}
	d.ReceivingSites[i] = value
	return nil
}

// RemoveSite drops the row at index i. The list never becomes empty:
// removing the only row leaves a single blank one.
//
// The result is a fresh slice rather than append(s[:i], s[i+1:]...), which
// would shift elements inside an array a Clone might still share.
func (d *AdDraft) RemoveSite(i int) error {
	if i < 0 || i >= len(d.ReceivingSites) {
		return siteIndexError(i)
	}
	sites := make([]string, 0, len(d.ReceivingSites))
	sites = append(sites, d.ReceivingSites[:i]...)
	sites = append(sites, d.ReceivingSites[i+1:]...)
	if len(sites) == 0 {
		sites = []string{""}
	}
	d.ReceivingSites = sites
	return nil
}

// ImportSites places urls into blank rows first and then appends new rows,
// stopping at max rows. It returns how many urls were taken.
//
// FILL, THEN GROW:
// A fresh form has one blank row, and visitors often click "Add Another
// Website" before deciding to import a file instead. Appending alone
// would leave those blanks in front of the imported list:
//
//	rows before:  ["https://mine.example", "", ""]
//	import:       a, b, c
//	rows after:   ["https://mine.example", a, b, c]
//
// Rows the visitor already typed are never overwritten, and the row cap
// still applies: urls beyond it are dropped, and the return value tells the
// caller how many made it in.
func (d *AdDraft) ImportSites(urls []string, max int) int {
	taken := 0
	for _, u := range urls {
		// First blank row wins. Whitespace-only rows count as blank, the
		// same rule CleanSites applies on submit.
		placed := false
		for i, s := range d.ReceivingSites {
			if strings.TrimSpace(s) == "" {
				d.ReceivingSites[i] = u
				placed = true
				break
			}
		}
		if !placed {
			if len(d.ReceivingSites) >= max {
				break
			}
			d.ReceivingSites = append(d.ReceivingSites, u)
		}
		taken++
	}
	return taken
}

// CleanSites returns the rows that are not blank. Blank rows are a form
// artefact and never reach a saved Advertisement.
func (d *AdDraft) CleanSites() []string {
	sites := make([]string, 0, len(d.ReceivingSites))
	for _, s := range d.ReceivingSites {
		if strings.TrimSpace(s) != "" {
			sites = append(sites, s)
		}
	}
	return sites
}

func siteIndexError(i int) error {
	return apperror.ValidationFailed("receivingSites",
		fmt.Sprintf("no receiving site at index %d", i))
}
