package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/hoverspeak/internal/apperror"
	"github.com/sakif/hoverspeak/internal/model"
)

// adColumns is shared by the INSERT and every SELECT so the column order
// and scanAd's Scan order can't drift apart. workspace_id is deliberately
// absent: callers always know it already.
const adColumns = `id, text_message, audio_file_url, image_template_url, primary_language,
	translate_to_local, translation_text, local_language_tts_voice, speech_voice,
	receiving_sites, receiving_sites_file_url, display_until_date, is_active, created_at`

// CreateAd stores ad under workspaceID.
//
// RECEIVING SITES AS A JSON COLUMN:
// An ad has between one and ten receiving-site URLs. A separate
// ad_sites table would need a join on every list and a transaction on every
// insert, for data we only ever read and write as a whole. So the list is
// stored as a JSON array in one TEXT column:
//
//	receiving_sites = '["https://a.example","https://b.example"]'
//
// The trade-off: SQL can't query individual sites without json_each. Nothing
// here needs to.
func (db *DB) CreateAd(ctx context.Context, workspaceID string, ad *model.Advertisement) error {
	// json.Marshal(nil slice) is "null", which scanAd would decode back to
	// nil. Store "[]" so an empty list round-trips as empty.
	sites := ad.ReceivingSites
	if sites == nil {
		sites = []string{}
	}
	sitesJSON, err := json.Marshal(sites)
	if err != nil {
		return fmt.Errorf("sqlite: encoding receiving sites: %w", err)
	}

	// seq is left to AUTOINCREMENT; it's what ListAds orders by.
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO advertisements (workspace_id, `+adColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		workspaceID,
		ad.ID,
		ad.TextMessage,
		ad.AudioFileURL,
		ad.ImageTemplateURL,
		ad.PrimaryLanguage,
		ad.TranslateToLocal,
		ad.TranslationText,
		ad.LocalLanguageTTSVoice,
		ad.SpeechVoice,
		string(sitesJSON),
		ad.ReceivingSitesFileURL,
		ad.DisplayUntilDate,
		ad.IsActive,
		ad.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting advertisement %s: %w", ad.ID, err)
	}
	return nil
}

// GetAd returns one ad. An id from another workspace is reported as not
// found, so one visitor can't read another's ads by guessing ids.
func (db *DB) GetAd(ctx context.Context, workspaceID, id string) (*model.Advertisement, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+adColumns+` FROM advertisements WHERE workspace_id = ? AND id = ?`,
		workspaceID, id,
	)
	ad, err := scanAd(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("advertisement", id)
		}
		return nil, fmt.Errorf("sqlite: getting advertisement %s: %w", id, err)
	}
	return ad, nil
}

// ListAds returns the workspace's ads oldest first. It never returns nil, so
// the JSON API encodes an empty list as [] rather than null.
func (db *DB) ListAds(ctx context.Context, workspaceID string) ([]model.Advertisement, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+adColumns+` FROM advertisements WHERE workspace_id = ? ORDER BY seq`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing advertisements: %w", err)
	}
	// rows holds a connection from the pool until closed; forgetting this
	// leaks connections one request at a time.
	defer rows.Close()

	ads := []model.Advertisement{}
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning advertisement: %w", err)
		}
		ads = append(ads, *ad)
	}
	// rows.Next returns false both at the end and on error. rows.Err tells
	// the two apart.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating advertisements: %w", err)
	}
	return ads, nil
}

// DeleteWorkspaceAds removes every ad of a workspace. The janitor calls it
// for workspaces it sweeps; by then the workspace's session token has
// expired too, so nothing can bring the id back.
func (db *DB) DeleteWorkspaceAds(ctx context.Context, workspaceID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM advertisements WHERE workspace_id = ?`, workspaceID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting advertisements of workspace %s: %w", workspaceID, err)
	}
	return nil
}

// scanner is the method *sql.Row and *sql.Rows have in common, so GetAd and
// ListAds can share scanAd.
type scanner interface {
	Scan(dest ...any) error
}

// scanAd reads one row in adColumns order and decodes the JSON site list.
func scanAd(s scanner) (*model.Advertisement, error) {
	var (
		ad    model.Advertisement
		sites string
	)
	err := s.Scan(
		&ad.ID,
		&ad.TextMessage,
		&ad.AudioFileURL,
		&ad.ImageTemplateURL,
		&ad.PrimaryLanguage,
		&ad.TranslateToLocal,
		&ad.TranslationText,
		&ad.LocalLanguageTTSVoice,
		&ad.SpeechVoice,
		&sites,
		&ad.ReceivingSitesFileURL,
		&ad.DisplayUntilDate,
		&ad.IsActive,
		&ad.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sites), &ad.ReceivingSites); err != nil {
		return nil, fmt.Errorf("decoding receiving sites of %s: %w", ad.ID, err)
	}
	return &ad, nil
}
