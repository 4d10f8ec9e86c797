package registry

var authDomain = Declaration{
	Domain: "auth",
	Functions: []Descriptor{
		{Name: "auth.login", Description: "User login with email/password", RateLimitTier: TierMedium},
		{Name: "auth.register", Description: "Register new user account", RateLimitTier: TierMedium},
		{Name: "auth.logout", Description: "Logout current user", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "auth.refresh", Description: "Refresh access token", RateLimitTier: TierMedium},
		{Name: "auth.session", Description: "Check current user session", RateLimitTier: TierLow},
		{Name: "auth.me", Description: "Get current user information (alias for session)", RateLimitTier: TierLow},
		{Name: "auth.forgot-password", Description: "Request password reset OTP", RateLimitTier: TierHigh},
		{Name: "auth.reset-password", Description: "Reset password with OTP", RateLimitTier: TierHigh},
		{Name: "auth.upload-pfp", Description: "Update profile picture", RequiresAuth: true, RateLimitTier: TierMedium},
	},
}

var otpDomain = Declaration{
	Domain: "otp",
	Functions: []Descriptor{
		{Name: "otp.send", Description: "Send OTP for email verification", RateLimitTier: TierCritical},
		{Name: "otp.verify", Description: "Verify OTP code", RateLimitTier: TierHigh},
	},
}

var userDomain = Declaration{
	Domain: "user",
	Functions: []Descriptor{
		{Name: "user.get", Description: "Get user information", RateLimitTier: TierLow},
		{Name: "user.details", Description: "Get detailed user info", RateLimitTier: TierLow},
		{Name: "user.avatar", Description: "Get user avatar", RateLimitTier: TierLow},
		{Name: "user.metadata", Description: "Get user metadata", RateLimitTier: TierLow},
	},
}

var notifyDomain = Declaration{
	Domain: "notify",
	Functions: []Descriptor{
		{Name: "notify.email", Description: "Send an email notification", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "notify.push", Description: "Send a push notification", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "notify.subscribe", Description: "Subscribe to push notifications", RequiresAuth: true, RateLimitTier: TierLow},
	},
}

var adminDomain = Declaration{
	Domain: "admin",
	Functions: []Descriptor{
		{Name: "admin.get-settings", Description: "Get site settings", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "admin.update-settings", Description: "Update site settings", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "admin.list-users", Description: "List users of the project", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "admin.update-user", Description: "Update a user", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "admin.delete-user", Description: "Delete a user", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "admin.list-functions", Description: "List the function registry", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "admin.project-functions", Description: "List functions with project overrides", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "admin.toggle-function", Description: "Enable or disable a function for a project", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "admin.update-origins", Description: "Replace a project's allowed origins", RequiresAuth: true, RateLimitTier: TierMedium},
	},
}

var integrationsDomain = Declaration{
	Domain: "integrations",
	Functions: []Descriptor{
		{Name: "integrations.list-projects", Description: "List all registered projects", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "integrations.add-project", Description: "Create a new project integration", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "integrations.toggle-maintenance", Description: "Toggle maintenance mode for a project", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "integrations.update-feature-flags", Description: "Replace a project's feature flags", RequiresAuth: true, RateLimitTier: TierMedium},
		{Name: "integrations.delete-project", Description: "Delete a project integration", RequiresAuth: true, RateLimitTier: TierMedium},
	},
}

var analyticsDomain = Declaration{
	Domain: "analytics",
	Functions: []Descriptor{
		{Name: "analytics.auth-attempts", Description: "Get authentication attempt logs", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "analytics.users-registered", Description: "Get user registration logs", RequiresAuth: true, RateLimitTier: TierLow},
	},
}

var systemDomain = Declaration{
	Domain: "system",
	Functions: []Descriptor{
		{Name: "system.stats", Description: "Get platform statistics", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "system.activity", Description: "Get recent activity feed", RequiresAuth: true, RateLimitTier: TierLow},
		{Name: "system.registry", Description: "List the capability catalog", RateLimitTier: TierLow},
	},
}

// Declarations returns every built-in domain declaration.
func Declarations() []Declaration {
	return []Declaration{
		authDomain,
		otpDomain,
		userDomain,
		notifyDomain,
		adminDomain,
		integrationsDomain,
		analyticsDomain,
		systemDomain,
	}
}

// Default builds the catalog from the built-in declarations.
func Default() (*Catalog, error) {
	return NewCatalog(Declarations()...)
}
