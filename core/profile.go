package core

// ButtonStyle is the presentation data an authenticator exposes to a UI
type ButtonStyle struct {
	Icon       string `json:"icon"`
	Text       string `json:"text"`
	TextColor  string `json:"textColor"`
	Background string `json:"background"`
}

// AdapterProfile carries everything that differs between adapter variants.
type AdapterProfile struct {
	Name                       string
	Style                      ButtonStyle
	OnboardingLink             string
	ErrorSource                string
	SupportedPlatforms         []string
	RequiresGetKeyConfirmation bool
}

const arisenLogo = "data:image/svg+xml;base64,PHN2ZyB4bWxucz0iaHR0cDovL3d3dy53My5vcmcvMjAwMC9zdmciIHZpZXdCb3g9IjAgMCAzMiAzMiI+PGNpcmNsZSBjeD0iMTYiIGN5PSIxNiIgcj0iMTQiIGZpbGw9IiNmZmYiLz48L3N2Zz4="

var (
	// DWebIDProfile is the desktop browser-extension authenticator
	DWebIDProfile = AdapterProfile{
		Name: "dWebID",
		Style: ButtonStyle{
			Icon:       arisenLogo,
			Text:       "dWebID",
			TextColor:  "white",
			Background: "#1A3270",
		},
		OnboardingLink:     "https://github.com/ARISEN/arisen-ual-dwebid",
		ErrorSource:        "UALEOSIOAuthError",
		SupportedPlatforms: []string{"linux", "darwin", "windows"},
	}

	// PeepsIDiOSProfile is the iOS authenticator app
	PeepsIDiOSProfile = AdapterProfile{
		Name: "PeepsID iOS",
		Style: ButtonStyle{
			Icon:       arisenLogo,
			Text:       "PeepsID iOS",
			TextColor:  "white",
			Background: "#1A3270",
		},
		OnboardingLink:     "https://github.com/arisenio/arisen-ual-peepsid-ios",
		ErrorSource:        "UALARISENAuthError",
		SupportedPlatforms: []string{"ios"},
	}
)

// ProfileByName looks up a predefined profile by its config name.
func ProfileByName(name string) (AdapterProfile, bool) {
	switch name {
	case "dwebid", "dWebID":
		return DWebIDProfile, true
	case "peepsid-ios", "PeepsID iOS":
		return PeepsIDiOSProfile, true
	default:
		return AdapterProfile{}, false
	}
}
