package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
	"github.com/fairyhunter13/authentyc-landing/pkg/textx"
)

var interestLabels = map[string]string{
	domain.InterestHiringRecruiter: "hiring/recruiting",
	domain.InterestHiringJobseeker: "job seeking",
	domain.InterestDating:          "dating",
	domain.InterestCofounder:       "co-founder matching",
	domain.InterestMastermind:      "mastermind groups",
	domain.InterestOther:           "exploring Authentyc",
}

// InterestText renders interests as an English list of labels.
func InterestText(interests []string) string {
	labels := make([]string, 0, len(interests))
	for _, i := range interests {
		if l, ok := interestLabels[i]; ok {
			labels = append(labels, l)
		}
	}
	if len(labels) == 0 {
		return "our platform"
	}
	return textx.JoinEnglish(labels)
}

// WelcomeSubject is the subject line of the welcome email.
func WelcomeSubject(position int) string {
	return fmt.Sprintf("Welcome to Authentyc [#%d on the waitlist]", position)
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Subject}}</title></head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; color: #1f2937; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 16px;">{{.Subject}}</h2>
  <p>Thanks for joining! You're officially on the Authentyc waitlist (#{{.Position}}).</p>
  <p>You'll get first access to {{.InterestText}} when we launch. We'll reach out as soon as your spot opens up.</p>
  <p>In the meantime, try our free analysis on the landing page to see what your AI conversations reveal about you.</p>
  <p>The Authentyc team</p>
  <hr style="border: none; border-top: 1px solid #e5e7eb; margin: 24px 0;">
  <p style="font-size: 12px; color: #6b7280;">
    <a href="https://authentyc.ai/privacy">Privacy</a> · <a href="https://authentyc.ai/terms">Terms</a>
  </p>
</body>
</html>
`))

// Welcome is a rendered welcome email.
type Welcome struct {
	Subject string
	HTML    string
}

// RenderWelcome renders the welcome email for a lead at position.
func RenderWelcome(position int, interests []string) (Welcome, error) {
	subject := WelcomeSubject(position)
	var buf bytes.Buffer
	err := welcomeTmpl.Execute(&buf, struct {
		Subject      string
		Position     int
		InterestText string
	}{subject, position, InterestText(interests)})
	if err != nil {
		return Welcome{}, fmt.Errorf("op=email.RenderWelcome: %w", err)
	}
	return Welcome{Subject: subject, HTML: buf.String()}, nil
}
