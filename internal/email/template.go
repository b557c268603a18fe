package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
)

// TemplateDefinition holds the raw (un-rendered) template strings.
type TemplateDefinition struct {
	Subject string
	Body    string
	HTML    string
}

// RenderedTemplate holds the rendered output ready to send.
type RenderedTemplate struct {
	Subject string
	Body    string
	HTML    string
}

// DefaultTemplates holds the built-in template for every Kind.
var DefaultTemplates = map[Kind]TemplateDefinition{
	KindContactWelcome: {
		Subject: "Thank you for contacting {{.SiteName}}!",
		Body:    "Hello {{.Name}},\n\nThanks for reaching out. We received your message and will reply soon.\n\nSubject: {{.Subject}}\nMessage: {{.Message}}\n\nExplore the blog: {{.BlogURL}}\n\nThe {{.SiteName}} Team",
		HTML:    `<h1>Thank you for reaching out!</h1><h2>Hello {{.Name}},</h2><p>We received your message and will reply soon.</p><h3>Your Message Details:</h3><ul><li><strong>Subject:</strong> {{.Subject}}</li><li><strong>Message:</strong> {{.Message}}</li></ul><p><a href="{{.BlogURL}}">Explore Our Blog</a></p>`,
	},
	KindAdminNotification: {
		Subject: "New Contact Form Submission: {{.Subject}}",
		Body:    "New contact form submission\n\nName: {{.Name}}\nEmail: {{.Email}}\nSubject: {{.Subject}}\nMessage: {{.Message}}\n\nSubmission: {{.SubmissionID}}\nReceived: {{.CreatedAt}}\nIP: {{.IPAddress}}\nUser agent: {{.UserAgent}}",
		HTML:    `<h1>New Contact Form Submission</h1><p><strong>Name:</strong> {{.Name}}</p><p><strong>Email:</strong> {{.Email}}</p><p><strong>Subject:</strong> {{.Subject}}</p><p><strong>Message:</strong> {{.Message}}</p><p>Submission {{.SubmissionID}} received {{.CreatedAt}} from {{.IPAddress}} ({{.UserAgent}})</p>`,
	},
	KindNewsletterVerification: {
		Subject: "Confirm your subscription to {{.SiteName}}",
		Body:    "Hi {{.FirstName}},\n\nPlease confirm your newsletter subscription by opening the link below:\n{{.VerifyURL}}\n\nThis link expires in 24 hours. If you did not sign up, ignore this email.",
		HTML:    `<p>Hi {{.FirstName}},</p><p>Please confirm your newsletter subscription:</p><p><a href="{{.VerifyURL}}">Confirm subscription</a></p><p>This link expires in 24 hours. If you did not sign up, ignore this email.</p>`,
	},
	KindNewsletterWelcome: {
		Subject: "Welcome to the {{.SiteName}} newsletter",
		Body:    "Hi {{.FirstName}},\n\nYour subscription is confirmed. New posts will arrive in your inbox.\n\nUnsubscribe any time: {{.UnsubscribeURL}}",
		HTML:    `<p>Hi {{.FirstName}},</p><p>Your subscription is confirmed. New posts will arrive in your inbox.</p><p><a href="{{.UnsubscribeURL}}">Unsubscribe</a></p>`,
	},
}

// LinkConfig supplies the site-level values templates link to.
type LinkConfig struct {
	SiteName    string
	FrontendURL string
}

// Vars flattens req into template variables and adds the links the
// templates reference.
func Vars(req Request, links LinkConfig) map[string]any {
	base := strings.TrimRight(links.FrontendURL, "/")
	site := links.SiteName
	if site == "" {
		site = "The Code Muse"
	}
	vars := map[string]any{
		"SiteName":       site,
		"BlogURL":        base + "/blog",
		"UnsubscribeURL": base + "/unsubscribe?email=" + url.QueryEscape(req.Recipient()),
		"Email":          req.Recipient(),
	}

	switch r := req.(type) {
	case ContactWelcome:
		vars["Name"] = r.Name
		vars["Subject"] = r.Subject
		vars["Message"] = r.Message
	case AdminNotification:
		vars["Name"] = r.Name
		vars["Subject"] = r.Subject
		vars["Message"] = r.Message
		vars["SubmissionID"] = r.SubmissionID
		vars["CreatedAt"] = r.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST")
		vars["IPAddress"] = r.IPAddress
		vars["UserAgent"] = r.UserAgent
	case NewsletterVerification:
		vars["FirstName"] = greetingName(r.FirstName)
		vars["LastName"] = r.LastName
		vars["VerifyURL"] = base + "/verify-email?token=" + url.QueryEscape(r.VerificationToken)
	case NewsletterWelcome:
		vars["FirstName"] = greetingName(r.FirstName)
		vars["LastName"] = r.LastName
	}
	return vars
}

func greetingName(first string) string {
	if first == "" {
		return "there"
	}
	return first
}

// ValidateTemplate parses all fields of def to catch template syntax errors
// before they are used.
func ValidateTemplate(def TemplateDefinition) error {
	if _, err := texttemplate.New("subject").Parse(def.Subject); err != nil {
		return fmt.Errorf("invalid subject template: %w", err)
	}
	if _, err := texttemplate.New("body").Parse(def.Body); err != nil {
		return fmt.Errorf("invalid body template: %w", err)
	}
	if def.HTML != "" {
		if _, err := htmltemplate.New("html").Parse(def.HTML); err != nil {
			return fmt.Errorf("invalid html template: %w", err)
		}
	}
	return nil
}

// RenderTemplate executes a TemplateDefinition against vars and returns the
// rendered subject, plain-text body, and HTML body.
func RenderTemplate(def TemplateDefinition, vars map[string]any) (RenderedTemplate, error) {
	subject, err := renderText(def.Subject, vars)
	if err != nil {
		return RenderedTemplate{}, fmt.Errorf("render subject: %w", err)
	}

	body, err := renderText(def.Body, vars)
	if err != nil {
		return RenderedTemplate{}, fmt.Errorf("render body: %w", err)
	}

	var htmlOut string
	if def.HTML != "" {
		htmlOut, err = renderHTML(def.HTML, vars)
		if err != nil {
			return RenderedTemplate{}, fmt.Errorf("render html: %w", err)
		}
	}

	return RenderedTemplate{Subject: subject, Body: body, HTML: htmlOut}, nil
}

func renderText(tmplStr string, vars map[string]any) (string, error) {
	t, err := texttemplate.New("").Parse(tmplStr)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func renderHTML(tmplStr string, vars map[string]any) (string, error) {
	t, err := htmltemplate.New("").Parse(tmplStr)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
