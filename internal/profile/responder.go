package profile

import (
	"fmt"
	"strings"
)

// ComposeAnswer turns a profile into a natural-language answer to the question
// that triggered the authorization request. Matching is keyword-based and
// case-insensitive. An unrecognized question falls through to a generic
// profile summary rather than an error.
func ComposeAnswer(question string, p *Profile) string {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "my name") || strings.Contains(q, "who am i"):
		name := p.Name
		if name == "" {
			name = "not set in your profile"
		}
		email := p.Email
		if email == "" {
			email = "not available"
		}
		return fmt.Sprintf("Your name is %s. Your email is %s.", name, email)

	case strings.Contains(q, "my email"):
		email := p.Email
		if email == "" {
			email = "not available"
		}
		return fmt.Sprintf("Your email address is %s.", email)

	case strings.Contains(q, "about me") || strings.Contains(q, "my profile"):
		var info []string
		if p.Name != "" {
			info = append(info, "Name: "+p.Name)
		}
		if p.Email != "" {
			info = append(info, "Email: "+p.Email)
		}
		if p.Nickname != "" {
			info = append(info, "Nickname: "+p.Nickname)
		}
		if p.Picture != "" {
			info = append(info, "You have a profile picture set")
		}
		if p.EmailVerified {
			info = append(info, "Your email is verified")
		}
		if len(info) == 0 {
			return "I don't have much information about your profile."
		}
		return "Here's what I know about you:\n" + strings.Join(info, "\n")

	default:
		name := p.Name
		if name == "" {
			name = "a user"
		}
		email := p.Email
		if email == "" {
			email = "no email"
		}
		return fmt.Sprintf("Based on your profile: You are %s (%s). How can I help you further?", name, email)
	}
}
