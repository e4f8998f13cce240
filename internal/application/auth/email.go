package auth

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/landing-auth/internal/domain"
	"github.com/landing-auth/internal/infrastructure/smtp"
)

var codeEmail = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width, initial-scale=1.0"></head>
<body style="margin:0;padding:0;background:#0f172a;user-select:text;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="background:#0f172a;">
<tr><td align="center" style="padding:32px 16px;">
  <table role="presentation" cellpadding="0" cellspacing="0" style="max-width:420px;width:100%;background:#1e293b;border:1px solid rgba(255,255,255,0.1);border-radius:16px;">
    <tr><td style="padding:24px 24px 16px;text-align:center;">
      <h1 style="margin:0;font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif;font-size:20px;font-weight:600;color:#f1f5f9;">{{.Heading}}</h1>
    </td></tr>
    <tr><td style="padding:8px 24px 24px;text-align:center;">
      <p style="margin:0 0 12px;font-size:14px;color:#94a3b8;">Gunakan kode berikut (bisa dicopy):</p>
      <div style="display:inline-block;padding:16px 28px;background:#0f172a;border:1px solid rgba(255,255,255,0.15);border-radius:12px;">
        <code style="font-family:'SF Mono',Monaco,Consolas,monospace;font-size:28px;font-weight:600;letter-spacing:0.35em;color:#fff;user-select:all;">{{.Code}}</code>
      </div>
      <p style="margin:16px 0 0;font-size:12px;color:#64748b;">Kode berlaku {{.Minutes}} menit.</p>
    </td></tr>
  </table>
</td></tr>
</table>
</body></html>`))

// codeMessage renders the email carrying a one-time code.
func codeMessage(kind domain.CodeKind, to, code string, ttl time.Duration) (smtp.Message, error) {
	minutes := int(ttl.Minutes())
	msg := smtp.Message{To: to}
	var heading string
	if kind == domain.CodeSignup {
		heading = "Kode verifikasi pendaftaran"
		msg.Subject = "Kode verifikasi pendaftaran akun"
		msg.Text = fmt.Sprintf("Kode verifikasi pendaftaran Anda adalah: %s. Kode berlaku selama %d menit.", code, minutes)
	} else {
		heading = "Kode verifikasi login"
		msg.Subject = "SMM Panel Landing Login Code"
		msg.Text = fmt.Sprintf("SMM Panel Landing Login Code: %s. It expires in %d minutes.", code, minutes)
	}

	var buf bytes.Buffer
	err := codeEmail.Execute(&buf, struct {
		Heading string
		Code    string
		Minutes int
	}{heading, code, minutes})
	if err != nil {
		return msg, fmt.Errorf("render %s email: %w", kind, err)
	}
	msg.HTML = buf.String()
	return msg, nil
}
