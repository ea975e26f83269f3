package mail

import "strings"

// Params is the data passed when executing the login-code email template.
type Params struct {
	Email         string
	AppName       string
	Code          string
	ExpiryMinutes int
	SenderName    string
}

const loginCodeTemplate = `Hi {{.Email}},

This is your login code for {{.AppName}}:

{{.Code}}

The code is valid for {{.ExpiryMinutes}} minutes and can be used once.

If you did not request a login code, you can ignore this email.


Regards,

{{.SenderName}}
`

// MaskEmail hides the local part of an address for logs and responses:
// "user@example.com" becomes "u***@example.com".
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at < 0 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]
	if len(local) <= 1 {
		return local + "***@" + domain
	}
	return local[:1] + "***@" + domain
}
