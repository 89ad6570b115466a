package model

import (
	"strings"

	"golang.org/x/text/language"
)

// Option is a value/label pair for a select control.
type Option struct {
	Value string
	Label string
}

const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"

	BillingMonthly = "monthly"
	BillingAnnual  = "annual"
)

// Plan is a subscription tier offered on the sign-up form.
type Plan struct {
	ID       string
	Name     string
	Price    string
	Features []string
}

var Plans = []Plan{
	{ID: PlanFree, Name: "Free", Price: "$0/month", Features: []string{"5 ads", "Basic analytics"}},
	{ID: PlanPro, Name: "Pro", Price: "$29/month", Features: []string{"Unlimited ads", "Advanced analytics", "Multi-language"}},
	{ID: PlanEnterprise, Name: "Enterprise", Price: "Custom", Features: []string{"Everything", "White-label", "API access"}},
}

var BillingFrequencies = []Option{
	{Value: BillingMonthly, Label: "Monthly"},
	{Value: BillingAnnual, Label: "Annual"},
}

var PrimaryLanguages = []Option{
	{Value: "en-US", Label: "English (US)"},
	{Value: "en-GB", Label: "English (UK)"},
	{Value: "es-ES", Label: "Spanish (Spain)"},
	{Value: "es-MX", Label: "Spanish (Mexico)"},
	{Value: "fr-FR", Label: "French"},
	{Value: "de-DE", Label: "German"},
	{Value: "it-IT", Label: "Italian"},
	{Value: "pt-BR", Label: "Portuguese (Brazil)"},
	{Value: "ja-JP", Label: "Japanese"},
	{Value: "ko-KR", Label: "Korean"},
	{Value: "zh-CN", Label: "Chinese (Simplified)"},
}

var SpeechVoices = []Option{
	{Value: "default", Label: "Default Voice"},
	{Value: "neural-male", Label: "Neural Male"},
	{Value: "neural-female", Label: "Neural Female"},
	{Value: "professional-male", Label: "Professional Male"},
	{Value: "professional-female", Label: "Professional Female"},
	{Value: "casual-male", Label: "Casual Male"},
	{Value: "casual-female", Label: "Casual Female"},
}

var LocalTTSVoices = []Option{
	{Value: "", Label: "Auto-select based on language"},
	{Value: "local-male", Label: "Local Male Voice"},
	{Value: "local-female", Label: "Local Female Voice"},
	{Value: "local-professional", Label: "Local Professional Voice"},
}

// Benefit is a marketing card on the landing page.
type Benefit struct {
	Title string
	Desc  string
}

var Benefits = []Benefit{
	{Title: "Boosts Click-Through Rates", Desc: "Spoken ads outperform silent ones"},
	{Title: "Localized Instantly", Desc: "Language, dialect, even currency adapt in real time"},
	{Title: "Data-Driven", Desc: "Track audio triggers, listens, and behavior"},
}

// PlanName returns the display name for a plan id. Labels that are not
// plan ids (the demo login uses "Pro") are returned unchanged.
func PlanName(label string) string {
	for _, p := range Plans {
		if strings.EqualFold(p.ID, label) {
			return p.Name
		}
	}
	return label
}

// CanonicalLanguage normalises a BCP 47 tag ("en-us" becomes "en-US").
// Tags that do not parse are returned as typed.
func CanonicalLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return DefaultPrimaryLanguage
	}
	t, err := language.Parse(tag)
	if err != nil {
		return tag
	}
	return t.String()
}

// LanguageLabel returns the select label for a language tag.
func LanguageLabel(tag string) string {
	for _, o := range PrimaryLanguages {
		if o.Value == tag {
			return o.Label
		}
	}
	return tag
}
