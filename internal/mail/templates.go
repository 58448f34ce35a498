package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// ResetPasswordSubject is the subject line of the reset email.
const ResetPasswordSubject = "Reset your password"

var resetPasswordTmpl = template.Must(template.New("reset").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Password reset - {{.AppName}}</title>
  <style>
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0; background-color: #f4f4f4; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; overflow: hidden; }
    .header { background: #40863C; color: white; padding: 30px 20px; text-align: center; }
    .content { padding: 40px 30px; }
    .reset-button { display: inline-block; background: #40863C; color: white !important; text-decoration: none; padding: 15px 30px; border-radius: 25px; font-weight: 600; }
    .warning { background-color: #fff3cd; border: 1px solid #ffeaa7; border-radius: 6px; padding: 15px; margin: 20px 0; color: #856404; }
    .footer { background-color: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 14px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header"><h1>{{.AppName}}</h1></div>
    <div class="content">
      <p>Hello {{.Name}},</p>
      <p>We received a request to reset the password of your {{.AppName}} account.
         If you did not ask for it you can safely ignore this email.</p>
      <p style="text-align:center"><a href="{{.Link}}" class="reset-button">Reset my password</a></p>
      <div class="warning">This link expires in {{.ExpiresIn}}.</div>
      <p style="font-size:14px;color:#6c757d">If the button does not work, copy this link into your browser:<br>
        <a href="{{.Link}}" style="color:#40863C;word-break:break-all">{{.Link}}</a></p>
    </div>
    <div class="footer">
      <p>This email was sent to {{.Email}}</p>
      <p>&copy; {{.Year}} {{.AppName}}</p>
    </div>
  </div>
</body>
</html>
`))

// ResetPassword holds the values rendered into the reset email.
type ResetPassword struct {
	AppName string
	Name    string
	Email   string
	Link    string
	TTL     time.Duration
	Now     time.Time
}

// Render produces the reset Message addressed to r.Email.
func (r ResetPassword) Render() (Message, error) {
	now := r.Now
	if now.IsZero() {
		now = time.Now()
	}
	data := struct {
		AppName, Name, Email, ExpiresIn string
		Link                            template.URL
		Year                            int
	}{
		AppName:   r.AppName,
		Name:      r.Name,
		Email:     r.Email,
		ExpiresIn: humanDuration(r.TTL),
		Link:      template.URL(r.Link),
		Year:      now.Year(),
	}
	var buf bytes.Buffer
	if err := resetPasswordTmpl.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render reset email: %w", err)
	}
	return Message{To: r.Email, Subject: ResetPasswordSubject, HTML: buf.String()}, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0, d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
