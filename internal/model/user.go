package model

import "time"

// User is the signed-in identity shown on the dashboard.
type User struct {
	ID               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	Company          string `json:"company,omitempty"`
	SubscriptionPlan string `json:"subscriptionPlan"`
}

// Registration is the state of the sign-up form.
type Registration struct {
	FirstName        string
	LastName         string
	Email            string
	Password         string
	ConfirmPassword  string
	StreetAddress1   string
	StreetAddress2   string
	City             string
	State            string
	ZipCode          string
	Country          string
	PhoneNumber      string
	CompanyName      string
	BusinessWebsite  string
	SubscriptionPlan string
	BillingFrequency string
	AgreeTerms       bool
	AgreePrivacy     bool
}

// NewRegistration returns the sign-up form with its initial defaults.
func NewRegistration() Registration {
	return Registration{
		SubscriptionPlan: PlanFree,
		BillingFrequency: BillingMonthly,
	}
}

// Account is what a submitted registration leaves behind in the account
// repository. The password is only ever kept as a bcrypt hash.
type Account struct {
	User
	PasswordHash     string    `json:"-"`
	StreetAddress1   string    `json:"streetAddress1,omitempty"`
	StreetAddress2   string    `json:"streetAddress2,omitempty"`
	City             string    `json:"city,omitempty"`
	State            string    `json:"state,omitempty"`
	ZipCode          string    `json:"zipCode,omitempty"`
	Country          string    `json:"country,omitempty"`
	PhoneNumber      string    `json:"phoneNumber,omitempty"`
	BusinessWebsite  string    `json:"businessWebsite,omitempty"`
	BillingFrequency string    `json:"billingFrequency"`
	AgreeTerms       bool      `json:"agreeTerms"`
	AgreePrivacy     bool      `json:"agreePrivacy"`
	CreatedAt        time.Time `json:"createdAt"`
}
