package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

type linkEmailData struct {
	URL  string
	Year int
}

var verificationHtmlTmpl = template.Must(template.New("verification_html").Parse(`<!DOCTYPE html>
<html>
  <body style="margin: 0; padding: 0; background-color: #f5f7fa; font-family: Arial, sans-serif;">
    <div style="max-width: 600px; margin: 20px auto; background-color: #ffffff; border-radius: 12px; padding: 40px 30px;">
      <h1 style="color: #042330;">Welcome to Individual Computers</h1>
      <h2 style="color: #042330;">Email Verification</h2>
      <p style="color: #97afbd;">Thank you for registering with us! Please verify your email address by clicking the button below:</p>
      <p style="text-align: center; margin: 30px 0;">
        <a href="{{.URL}}" style="display: inline-block; background-color: #042330; color: #b5c5d3; padding: 16px 40px; text-decoration: none; border-radius: 8px; font-weight: 600;">Verify Email Address</a>
      </p>
      <p style="color: #97afbd; font-size: 14px;">Or copy and paste this link into your browser:</p>
      <p style="color: #042330; font-size: 12px; word-break: break-all; font-family: monospace;">{{.URL}}</p>
      <p style="color: #97afbd; font-size: 13px; border-top: 1px solid #e9ecef; padding-top: 20px;">This link will expire in 24 hours. If you didn't create an account, you can safely ignore this email.</p>
      <p style="color: #97afbd; font-size: 12px; text-align: center;">&copy; {{.Year}} Individual Computers. All rights reserved.</p>
    </div>
  </body>
</html>
`))

const verificationTextTmpl = `Welcome to Individual Computers!

Thank you for registering with us! Please verify your email address by clicking the link below:

%s

This link will expire in 24 hours. If you didn't create an account, you can safely ignore this email.

Best regards,
Individual Computers Team`

var passwordResetHtmlTmpl = template.Must(template.New("password_reset_html").Parse(`<!DOCTYPE html>
<html>
  <body style="margin: 0; padding: 0; background-color: #f5f7fa; font-family: Arial, sans-serif;">
    <div style="max-width: 600px; margin: 20px auto; background-color: #ffffff; border-radius: 12px; padding: 40px 30px;">
      <h1 style="color: #042330;">Password Reset Request</h1>
      <h2 style="color: #042330;">Reset Your Password</h2>
      <p style="color: #97afbd;">We received a request to reset your password. Click the button below to create a new password:</p>
      <p style="text-align: center; margin: 30px 0;">
        <a href="{{.URL}}" style="display: inline-block; background-color: #042330; color: #b5c5d3; padding: 16px 40px; text-decoration: none; border-radius: 8px; font-weight: 600;">Reset Password</a>
      </p>
      <p style="color: #97afbd; font-size: 14px;">Or copy and paste this link into your browser:</p>
      <p style="color: #042330; font-size: 12px; word-break: break-all; font-family: monospace;">{{.URL}}</p>
      <p style="color: #97afbd; font-size: 13px; border-top: 1px solid #e9ecef; padding-top: 20px;">This link will expire in 1 hour. If you didn't request a password reset, you can safely ignore this email and your password will remain unchanged.</p>
      <p style="color: #97afbd; font-size: 12px; text-align: center;">&copy; {{.Year}} Individual Computers. All rights reserved.</p>
    </div>
  </body>
</html>
`))

const passwordResetTextTmpl = `Password Reset Request

We received a request to reset your password. Click the link below to create a new password:

%s

This link will expire in 1 hour. If you didn't request a password reset, you can safely ignore this email.

Best regards,
Individual Computers Team`

// VerificationEmail renders the email-verification message for a recipient
func VerificationEmail(to, verificationURL string) (NotificationData, error) {
	html, err := renderLinkEmail(verificationHtmlTmpl, verificationURL)
	if err != nil {
		return NotificationData{}, err
	}
	return NotificationData{
		To:      to,
		Subject: "Verify your email address",
		Html:    html,
		Text:    fmt.Sprintf(verificationTextTmpl, verificationURL),
	}, nil
}

// PasswordResetEmail renders the password-reset message for a recipient
func PasswordResetEmail(to, resetURL string) (NotificationData, error) {
	html, err := renderLinkEmail(passwordResetHtmlTmpl, resetURL)
	if err != nil {
		return NotificationData{}, err
	}
	return NotificationData{
		To:      to,
		Subject: "Reset your password",
		Html:    html,
		Text:    fmt.Sprintf(passwordResetTextTmpl, resetURL),
	}, nil
}

func renderLinkEmail(tmpl *template.Template, url string) (string, error) {
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, linkEmailData{URL: url, Year: time.Now().Year()})
	if err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return buf.String(), nil
}
