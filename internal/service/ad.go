package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/hoverspeak/internal/apperror"
	"github.com/sakif/hoverspeak/internal/ids"
	"github.com/sakif/hoverspeak/internal/model"
	"github.com/sakif/hoverspeak/internal/repository"
	"github.com/sakif/hoverspeak/internal/upload"
	"github.com/sakif/hoverspeak/internal/workspace"
)

// AdConfig tunes the advertisement service.
type AdConfig struct {
	PlaybackDuration  time.Duration
	MaxReceivingSites int
}

// AdService manages a workspace's advertisements and its create-ad draft.
//
// WHY DEPEND ON AN INTERFACE?
// ads is a repository.AdvertisementRepository, not a concrete store. The
// service can't tell memory from SQLite, and its tests swap in a fake that
// fails on demand.
type AdService struct {
	ads      repository.AdvertisementRepository
	uploader *upload.Uploader
	ids      *ids.Timestamp
	cfg      AdConfig
	logger   *slog.Logger
}

func NewAdService(
	ads repository.AdvertisementRepository,
	uploader *upload.Uploader,
	idgen *ids.Timestamp,
	cfg AdConfig,
	logger *slog.Logger,
) *AdService {
	// Zero values fall back to the defaults so tests can pass AdConfig{}.
	if cfg.MaxReceivingSites <= 0 {
		cfg.MaxReceivingSites = model.MaxReceivingSites
	}
	if cfg.PlaybackDuration <= 0 {
		cfg.PlaybackDuration = 3 * time.Second
	}
	return &AdService{
		ads:      ads,
		uploader: uploader,
		ids:      idgen,
		cfg:      cfg,
		logger:   logger,
	}
}

// MaxSites is the receiving-site row cap.
func (s *AdService) MaxSites() int {
	return s.cfg.MaxReceivingSites
}

// Create turns the workspace's draft into an active advertisement, resets
// the draft and returns to the dashboard.
func (s *AdService) Create(ctx context.Context, ws *workspace.Workspace) (*model.Advertisement, error) {
	if !ws.SignedIn() {
		return nil, apperror.SignInRequired()
	}

	// Work from a snapshot of the draft. The workspace lock isn't held
	// across the repository call.
	d := ws.Draft()
	id, now := s.ids.Next()
	ad := &model.Advertisement{
		ID:                    id,
		TextMessage:           d.TextMessage,
		AudioFileURL:          d.AudioFileURL,
		ImageTemplateURL:      d.ImageTemplateURL,
		PrimaryLanguage:       model.CanonicalLanguage(d.PrimaryLanguage),
		TranslateToLocal:      d.TranslateToLocal,
		TranslationText:       d.TranslationText,
		LocalLanguageTTSVoice: d.LocalLanguageTTSVoice,
		SpeechVoice:           d.SpeechVoice,
		ReceivingSites:        d.CleanSites(),
		ReceivingSitesFileURL: d.ReceivingSitesFileURL,
		DisplayUntilDate:      d.DisplayUntilDate,
		IsActive:              true,
		CreatedAt:             now,
	}
	if ad.SpeechVoice == "" {
		ad.SpeechVoice = model.DefaultSpeechVoice
	}

	// On failure the draft is left alone so nothing the visitor typed is
	// lost; the handler shows the error on the same form.
	if err := s.ads.CreateAd(ctx, ws.ID(), ad); err != nil {
		return nil, fmt.Errorf("creating advertisement: %w", err)
	}

	ws.ResetDraft()
	ws.Navigate(workspace.ViewDashboard)

	s.logger.Info("advertisement created",
		slog.String("workspaceID", ws.ID()),
		slog.String("adID", ad.ID),
		slog.Int("receivingSites", len(ad.ReceivingSites)),
	)
	return ad, nil
}

// List returns the workspace's advertisements in creation order.
func (s *AdService) List(ctx context.Context, ws *workspace.Workspace) ([]model.Advertisement, error) {
	if !ws.SignedIn() {
		return nil, apperror.SignInRequired()
	}
	ads, err := s.ads.ListAds(ctx, ws.ID())
	if err != nil {
		return nil, fmt.Errorf("listing advertisements: %w", err)
	}
	return ads, nil
}

// TogglePlayback starts or stops the simulated playback of an ad and
// returns the id playing afterwards ("" when stopped).
func (s *AdService) TogglePlayback(ctx context.Context, ws *workspace.Workspace, adID string) (string, error) {
	if !ws.SignedIn() {
		return "", apperror.SignInRequired()
	}
	// Only ads of this workspace can play. GetAd's NotFound doubles as
	// the ownership check.
	if _, err := s.ads.GetAd(ctx, ws.ID(), adID); err != nil {
		return "", err
	}

	playing := ws.TogglePlayback(adID, s.cfg.PlaybackDuration)
	s.logger.Debug("playback toggled",
		slog.String("workspaceID", ws.ID()),
		slog.String("adID", adID),
		slog.Bool("playing", playing != ""),
	)
	return playing, nil
}

// UploadTemplate pretends to store an image template and records its URL
// on the draft. The file's bytes are never kept: only the name is needed to
// build the URL the form displays.
func (s *AdService) UploadTemplate(ws *workspace.Workspace, filename string) (string, error) {
	if filename == "" {
		return "", apperror.ValidationFailed("imageTemplate", "choose a file to upload")
	}
	u := s.uploader.URL(filename)
	err := ws.EditDraft(func(d *model.AdDraft) error {
		d.ImageTemplateURL = u
		return nil
	})
	return u, err
}

// BulkUploadSites reads receiving sites from a .txt or .csv file into the
// draft and returns how many were imported.
func (s *AdService) BulkUploadSites(ws *workspace.Workspace, filename string, data []byte) (int, error) {
	sites, err := upload.ParseSites(filename, data)
	if err != nil {
		return 0, err
	}
	if len(sites) == 0 {
		return 0, apperror.ValidationFailed("receivingSitesFile", "no receiving sites found in "+filename)
	}

	var taken int
	err = ws.EditDraft(func(d *model.AdDraft) error {
		taken = d.ImportSites(sites, s.cfg.MaxReceivingSites)
		d.ReceivingSitesFileURL = s.uploader.URL(filename)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("receiving sites imported",
		slog.String("workspaceID", ws.ID()),
		slog.Int("found", len(sites)),
		slog.Int("imported", taken),
	)
	return taken, nil
}

// AddSite appends an empty receiving-site row to the draft.
func (s *AdService) AddSite(ws *workspace.Workspace) error {
	return ws.EditDraft(func(d *model.AdDraft) error {
		return d.AddSite(s.cfg.MaxReceivingSites)
	})
}

// RemoveSite drops receiving-site row i from the draft.
func (s *AdService) RemoveSite(ws *workspace.Workspace, i int) error {
	return ws.EditDraft(func(d *model.AdDraft) error {
		return d.RemoveSite(i)
	})
}

// CancelDraft leaves the create-ad form for the dashboard. The draft is
// kept as typed.
func (s *AdService) CancelDraft(ws *workspace.Workspace) {
	ws.Navigate(workspace.ViewDashboard)
}

// Forget drops everything stored for the given workspaces.
func (s *AdService) Forget(ctx context.Context, workspaceIDs []string) {
	for _, id := range workspaceIDs {
		if err := s.ads.DeleteWorkspaceAds(ctx, id); err != nil {
			s.logger.Warn("dropping workspace advertisements",
				slog.String("workspaceID", id),
				slog.String("error", err.Error()),
			)
		}
	}
}
