package service

import (
	"bytes"
	"html/template"
)

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <h2 style="color: #c62828;">{{.Title}}</h2>
  <p>{{.Body}}</p>
  <p style="color: #777; font-size: 12px;">Blood Donation Network</p>
</body>
</html>`))

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #222;">
  <p>{{.Intro}}</p>
  <p style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">{{.Code}}</p>
  <p>The code expires in {{.Minutes}} minutes.</p>
</body>
</html>`))

func renderEmail(title, body string) string {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, struct{ Title, Body string }{title, body}); err != nil {
		return body
	}
	return buf.String()
}

func renderOTPEmail(intro, code string, minutes int) string {
	var buf bytes.Buffer
	data := struct {
		Intro   string
		Code    string
		Minutes int
	}{intro, code, minutes}
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return intro + ": " + code
	}
	return buf.String()
}
