package email

import (
	"fmt"
	"html"
	"time"
)

func minutes(d time.Duration) int {
	return int(d.Round(time.Minute).Minutes())
}

// VerificationCode is sent after registration and on resend.
func VerificationCode(to, firstName, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Your equitygate verification code",
		HTML: fmt.Sprintf(`
		<h3>Hello %s,</h3>
		<p>Your verification code is <strong>%s</strong>.</p>
		<p>The code expires in %d minutes.</p>
		<p>If you did not create an account, you can ignore this email.</p>
	`, html.EscapeString(firstName), code, minutes(ttl)),
	}
}

// CompanyVerificationCode confirms that the company contact address is reachable.
func CompanyVerificationCode(to, companyName, code string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Confirm the contact email of " + companyName,
		HTML: fmt.Sprintf(`
		<h3>Company contact verification</h3>
		<p>Use the code <strong>%s</strong> to confirm this address for %s.</p>
		<p>The code expires in %d minutes.</p>
	`, code, html.EscapeString(companyName), minutes(ttl)),
	}
}

func PasswordReset(to, token string, ttl time.Duration) Message {
	return Message{
		To:      to,
		Subject: "Password reset request",
		HTML: fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your account.</p>
		<p>Use the following token to reset your password: <strong>%s</strong></p>
		<p>The token expires in %d minutes. If you did not request this change, you can ignore this email.</p>
	`, token, minutes(ttl)),
	}
}
