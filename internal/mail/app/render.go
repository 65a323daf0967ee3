package app

import (
	"bytes"
	"fmt"
	"text/template"

	"smart_cycle_market/internal/mail/domain"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

type mailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[domain.Kind]mailTemplate{
	domain.KindVerification: {
		subject: "Verify your account",
		body: template.Must(template.New("verification").Parse(`# Welcome to Smart Cycle Market, {{.Name}}!

Thanks for signing up. Please confirm your email address to start buying and selling.

[Verify my email]({{.Link}})

If you did not create an account you can ignore this message.
`)),
	},
	domain.KindResetPassword: {
		subject: "Reset your password",
		body: template.Must(template.New("reset").Parse(`# Password reset

Hi {{.Name}}, we received a request to reset your password.

[Choose a new password]({{.Link}})

The link expires in one hour. If you did not ask for it, nothing changes.
`)),
	},
	domain.KindPasswordUpdated: {
		subject: "Your password was updated",
		body: template.Must(template.New("updated").Parse(`# Password updated

Hi {{.Name}}, your password was just changed and every device was signed out.

If this was not you, reset your password right away.
`)),
	},
}

// Renderer turns jobs into html mails; templates are markdown
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer create Renderer
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render build the message for job
func (r *Renderer) Render(job domain.Job) (domain.Message, error) {
	if err := job.Validate(); err != nil {
		return domain.Message{}, err
	}
	tpl, ok := templates[job.Kind]
	if !ok {
		return domain.Message{}, fmt.Errorf("%w: no template for %q", domain.ErrInvalidJob, job.Kind)
	}

	var markdown bytes.Buffer
	if err := tpl.body.Execute(&markdown, job); err != nil {
		return domain.Message{}, fmt.Errorf("execute template: %w", err)
	}

	var out bytes.Buffer
	if err := r.md.Convert(markdown.Bytes(), &out); err != nil {
		return domain.Message{}, fmt.Errorf("render markdown: %w", err)
	}

	return domain.Message{
		To:      job.To,
		ToName:  job.Name,
		Subject: tpl.subject,
		HTML:    out.String(),
	}, nil
}
