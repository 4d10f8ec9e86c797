package dto

import (
	"encoding/json"
)

type ToggleFunctionRequest struct {
	IsEnabled       *bool `json:"is_enabled"`
	CustomRateLimit *int  `json:"custom_rate_limit"`
}

type UpdateOriginsRequest struct {
	Origins []string `json:"origins"`
}

type UpdateUserRequest struct {
	Email    *string         `json:"email"`
	Role     *string         `json:"role"`
	SiteName *string         `json:"site_name"`
	Metadata json.RawMessage `json:"metadata"`
}

type UpdateSiteSettingsRequest struct {
	DisplayName       *string         `json:"display_name"`
	AllowRegistration *bool           `json:"allow_registration"`
	ConfigJSON        json.RawMessage `json:"config_json"`
}

type CreateProjectRequest struct {
	Name string `json:"name"`
}

type ToggleMaintenanceRequest struct {
	IsMaintenance *bool `json:"is_maintenance"`
}

type UpdateFeatureFlagsRequest struct {
	FeatureFlags map[string]any `json:"feature_flags"`
}

type SendEmailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type SendPushRequest struct {
	Token string `json:"token"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type SubscribeRequest struct {
	Token string `json:"token"`
}
