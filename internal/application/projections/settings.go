package projections

import (
	"context"

	"tuition/internal/adapters/backend"
	"tuition/internal/domain/settings"
)

// TemplateField is one editable message template.
type TemplateField struct {
	Key   string
	Label string
	Value string
}

// SettingsPage is the profile, template, class day and account admin page.
type SettingsPage struct {
	Profile   settings.Profile
	Templates []TemplateField
	Grades    []backend.GradeOption
	Days      []settings.Day
	Stats     backend.Stats
	Users     []backend.UserSummary // admins only
	Mode      settings.Mode
	Admin     bool
}

// SettingsInput identifies the viewer.
type SettingsInput struct {
	Email string
	Class string
	Mode  settings.Mode
	Admin bool
}

// SettingsDeps holds dependencies for the settings projection.
type SettingsDeps struct {
	Backend SettingsReader
}

// QuerySettings loads the settings page. The account list is only fetched for admins.
// PRE: input.Email is the signed-in user
// POST: Templates lists the fixed templates first, then per-grade ones Nursery first
func QuerySettings(ctx context.Context, input SettingsInput, deps SettingsDeps) (SettingsPage, error) {
	p, err := deps.Backend.GetUser(ctx, input.Email)
	if err != nil {
		return SettingsPage{}, err
	}
	page := SettingsPage{
		Profile: p,
		Days:    settings.Days(),
		Mode:    input.Mode,
		Admin:   input.Admin,
		Templates: []TemplateField{
			{Key: "before_payment_week3", Label: "Before payment (week 3)", Value: p.BeforePaymentWeek3},
			{Key: "before_payment_week4", Label: "Before payment (week 4)", Value: p.BeforePaymentWeek4},
			{Key: "after_payment_template", Label: "After payment", Value: p.AfterPayment},
			{Key: "after_payment_spoken_template", Label: "After payment (Spoken)", Value: p.AfterSpokenPayment},
			{Key: "after_payment_group_template", Label: "After payment (Group)", Value: p.AfterGroupPayment},
		},
	}
	for _, t := range p.GradeTemplates {
		page.Templates = append(page.Templates, TemplateField{Key: t.Key, Label: "After payment (" + settings.TemplateLabel(t.Key) + ")", Value: t.Value})
	}

	if input.Class != "" {
		if page.Grades, err = deps.Backend.GradesAndDays(ctx, input.Class); err != nil {
			return SettingsPage{}, err
		}
		if page.Stats, err = deps.Backend.DashboardStats(ctx, input.Class); err != nil {
			return SettingsPage{}, err
		}
	}
	if input.Admin {
		if page.Users, err = deps.Backend.ListUsers(ctx); err != nil {
			return SettingsPage{}, err
		}
	}
	return page, nil
}

// ProfileFromForm applies submitted template values to a profile. Keys not
// on the profile are ignored.
func ProfileFromForm(p settings.Profile, name string, values map[string]string) settings.Profile {
	p.Name = name
	set := func(dst *string, key string) {
		if v, ok := values[key]; ok {
			*dst = v
		}
	}
	set(&p.BeforePaymentWeek3, "before_payment_week3")
	set(&p.BeforePaymentWeek4, "before_payment_week4")
	set(&p.AfterPayment, "after_payment_template")
	set(&p.AfterSpokenPayment, "after_payment_spoken_template")
	set(&p.AfterGroupPayment, "after_payment_group_template")
	grades := make([]settings.GradeTemplate, len(p.GradeTemplates))
	copy(grades, p.GradeTemplates)
	for i := range grades {
		set(&grades[i].Value, grades[i].Key)
	}
	p.GradeTemplates = grades
	return p
}
