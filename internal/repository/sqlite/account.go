package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/hoverspeak/internal/apperror"
	"github.com/sakif/hoverspeak/internal/model"
)

// CreateAccount stores a registration. Only the bcrypt hash of the password
// ever reaches this table.
func (db *DB) CreateAccount(ctx context.Context, a *model.Account) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (id, first_name, last_name, email, company, subscription_plan,
			password_hash, street_address1, street_address2, city, state, zip_code, country,
			phone_number, business_website, billing_frequency, agree_terms, agree_privacy, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.FirstName, a.LastName, a.Email, a.Company, a.SubscriptionPlan,
		a.PasswordHash, a.StreetAddress1, a.StreetAddress2, a.City, a.State, a.ZipCode, a.Country,
		a.PhoneNumber, a.BusinessWebsite, a.BillingFrequency, a.AgreeTerms, a.AgreePrivacy, a.CreatedAt,
	)
	if err != nil {
		// The driver has no typed constraint error we can errors.As
		// against, so match on SQLite's message.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("account", a.ID)
		}
		return fmt.Errorf("sqlite: inserting account %s: %w", a.ID, err)
	}
	return nil
}

// GetAccountByID backs the account details in GET /api/session.
func (db *DB) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, email, company, subscription_plan,
			password_hash, street_address1, street_address2, city, state, zip_code, country,
			phone_number, business_website, billing_frequency, agree_terms, agree_privacy, created_at
		 FROM accounts WHERE id = ?`,
		id,
	).Scan(
		&a.ID, &a.FirstName, &a.LastName, &a.Email, &a.Company, &a.SubscriptionPlan,
		&a.PasswordHash, &a.StreetAddress1, &a.StreetAddress2, &a.City, &a.State, &a.ZipCode, &a.Country,
		&a.PhoneNumber, &a.BusinessWebsite, &a.BillingFrequency, &a.AgreeTerms, &a.AgreePrivacy, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("account", id)
		}
		return nil, fmt.Errorf("sqlite: getting account %s: %w", id, err)
	}

	return &a, nil
}
