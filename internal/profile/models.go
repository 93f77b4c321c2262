package profile

// Profile is the OIDC userinfo subset the gateway consumes. Fields the
// provider omits decode to their zero values.
type Profile struct {
	Sub           string `json:"sub"`
	Name          string `json:"name,omitempty"`
	Nickname      string `json:"nickname,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	Picture       string `json:"picture,omitempty"`
}
