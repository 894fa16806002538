package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"tuition/internal/domain/settings"
)

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token string
	Email string
	Name  string
}

// UserSummary is one row of the admin user list.
type UserSummary struct {
	Email  string
	Name   string
	Status settings.UserStatus
}

// Login exchanges credentials for a bearer token. [POST /login]
// PRE: email and password are non-empty
// POST: Returns an APIError carrying the backend's message on bad credentials
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var out struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"user"`
	}
	err := c.do(ctx, "", call{
		method: http.MethodPost,
		path:   "/login",
		body:   map[string]string{"email": email, "password": password},
		out:    &out,
	})
	if err != nil {
		return LoginResult{}, err
	}
	res := LoginResult{Token: out.Token, Email: out.User.Email, Name: out.User.Name}
	if res.Email == "" {
		res.Email = email
	}
	return res, nil
}

// GetUser loads a user's profile and templates. [GET /users/{email}]
func (s *Session) GetUser(ctx context.Context, email string) (settings.Profile, error) {
	var raw map[string]json.RawMessage
	err := s.do(ctx, call{method: http.MethodGet, path: "/users/" + url.PathEscape(email), out: &raw})
	if err != nil {
		return settings.Profile{}, err
	}

	str := func(key string) string {
		var v flexString
		if b, ok := raw[key]; ok {
			_ = json.Unmarshal(b, &v)
		}
		return string(v)
	}
	p := settings.Profile{
		Name:               str("name"),
		Email:              str("email"),
		BeforePaymentWeek3: str("before_payment_week3"),
		BeforePaymentWeek4: str("before_payment_week4"),
		AfterPayment:       str("after_payment_template"),
		AfterSpokenPayment: str("after_payment_spoken_template"),
		AfterGroupPayment:  str("after_payment_group_template"),
	}
	for key := range raw {
		if settings.IsGradeTemplateKey(key) {
			p.GradeTemplates = append(p.GradeTemplates, settings.GradeTemplate{Key: key, Value: str(key)})
		}
	}
	settings.SortGradeTemplates(p.GradeTemplates)
	return p, nil
}

// UpdateUser saves a profile. [PUT /users/{email}]
func (s *Session) UpdateUser(ctx context.Context, p settings.Profile, mode settings.Mode) error {
	body := map[string]any{
		"name":                       p.Name,
		"email":                      p.Email,
		"beforePaymentWeek3":         p.BeforePaymentWeek3,
		"beforePaymentWeek4":         p.BeforePaymentWeek4,
		"afterPaymentTemplate":       p.AfterPayment,
		"afterSpokenPaymentTemplate": p.AfterSpokenPayment,
		"afterGroupPaymentTemplate":  p.AfterGroupPayment,
		"status":                     true,
		"mode":                       string(mode),
	}
	for _, t := range p.GradeTemplates {
		body[t.Key] = t.Value
	}
	return s.do(ctx, call{method: http.MethodPut, path: "/users/" + url.PathEscape(p.Email), body: body})
}

// ListUsers returns every dashboard account. [GET /users]
func (s *Session) ListUsers(ctx context.Context) ([]UserSummary, error) {
	var out []struct {
		Email  string  `json:"email"`
		Name   string  `json:"name"`
		Status flexInt `json:"status"`
	}
	if err := s.do(ctx, call{method: http.MethodGet, path: "/users", out: &out}); err != nil {
		return nil, err
	}
	users := make([]UserSummary, len(out))
	for i, u := range out {
		users[i] = UserSummary{Email: u.Email, Name: u.Name, Status: settings.UserStatus(u.Status)}
	}
	return users, nil
}

// SetUserStatus enables or disables an account. [PUT /users/{email}/status]
func (s *Session) SetUserStatus(ctx context.Context, email string, status settings.UserStatus) error {
	return s.do(ctx, call{
		method: http.MethodPut,
		path:   "/users/" + url.PathEscape(email) + "/status",
		body:   map[string]int{"status": int(status)},
	})
}

// GetMode returns the stored theme. [GET /mode/{email}]
func (s *Session) GetMode(ctx context.Context, email string) (settings.Mode, error) {
	var out struct {
		Mode string `json:"mode"`
	}
	if err := s.do(ctx, call{method: http.MethodGet, path: "/mode/" + url.PathEscape(email), out: &out}); err != nil {
		return "", err
	}
	if out.Mode == string(settings.ModeLight) {
		return settings.ModeLight, nil
	}
	return settings.ModeDark, nil
}

// SetMode stores the theme. [PUT /mode/{email}]
func (s *Session) SetMode(ctx context.Context, email string, mode settings.Mode) error {
	return s.do(ctx, call{
		method: http.MethodPut,
		path:   "/mode/" + url.PathEscape(email),
		body:   map[string]string{"mode": string(mode)},
	})
}
