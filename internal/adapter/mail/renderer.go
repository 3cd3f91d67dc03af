package mail

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/osteele/liquid"

	"github.com/neomorfeo/dancepair/internal/domain"
)

//go:embed templates/*.liquid
var templateFS embed.FS

// templateCancelled is used instead of workshop_changed when the change
// announces a cancellation.
const templateCancelled = "workshop_cancelled"

// subjectSeparator splits a template file into its subject and body.
const subjectSeparator = "\n---\n"

type template struct {
	subject *liquid.Template
	body    *liquid.Template
}

// Renderer turns notifications into email messages using Liquid templates,
// one per notification kind.
type Renderer struct {
	templates map[string]template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()

	files, err := fs.Glob(templateFS, "templates/*.liquid")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	r := &Renderer{templates: make(map[string]template, len(files))}
	for _, file := range files {
		src, err := templateFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", file, err)
		}
		subject, body, ok := strings.Cut(string(src), subjectSeparator)
		if !ok {
			return nil, fmt.Errorf("template %s: missing subject separator", file)
		}

		var t template
		if t.subject, err = parse(engine, subject); err != nil {
			return nil, fmt.Errorf("parsing subject of %s: %w", file, err)
		}
		if t.body, err = parse(engine, body); err != nil {
			return nil, fmt.Errorf("parsing body of %s: %w", file, err)
		}
		r.templates[strings.TrimSuffix(path.Base(file), ".liquid")] = t
	}

	return r, nil
}

// Render builds the message for n.
func (r *Renderer) Render(n domain.Notification) (Message, error) {
	name := string(n.Kind)
	if n.Kind == domain.NotificationWorkshopChanged && n.Cancelled() {
		name = templateCancelled
	}
	t, ok := r.templates[name]
	if !ok {
		return Message{}, fmt.Errorf("no template for notification kind %q", n.Kind)
	}

	bindings := bind(n)
	subject, err := render(t.subject, bindings)
	if err != nil {
		return Message{}, fmt.Errorf("rendering subject for %s: %w", name, err)
	}
	body, err := render(t.body, bindings)
	if err != nil {
		return Message{}, fmt.Errorf("rendering body for %s: %w", name, err)
	}

	return Message{
		To:      n.Recipient.Email,
		ToName:  n.Recipient.FullName(),
		Subject: strings.TrimSpace(subject),
		Text:    tidy(body),
		Tags: map[string]string{
			"kind":        string(n.Kind),
			"workshop_id": n.Workshop.ID,
		},
	}, nil
}

func parse(engine *liquid.Engine, src string) (*liquid.Template, error) {
	tpl, err := engine.ParseString(src)
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

func render(tpl *liquid.Template, bindings map[string]any) (string, error) {
	out, err := tpl.RenderString(bindings)
	if err != nil {
		return "", err
	}
	return out, nil
}

func bind(n domain.Notification) map[string]any {
	changes := make([]string, 0, len(n.Changes))
	for _, c := range n.Changes {
		changes = append(changes, c.String())
	}

	return map[string]any{
		"recipient":      person(&n.Recipient),
		"partner":        person(n.Partner),
		"former_partner": person(n.FormerPartner),
		"workshop": map[string]any{
			"name":        n.Workshop.Name,
			"modality":    n.Workshop.Modality,
			"instructors": strings.Join(n.Workshop.Instructors, ", "),
			"date":        n.Workshop.Date.Format(domain.DateLayout),
			"time":        n.Workshop.StartTime,
			"location":    n.Workshop.Location,
		},
		"changes":   changes,
		"cancelled": n.Cancelled(),
	}
}

func person(u *domain.UserProfile) map[string]any {
	if u == nil {
		return map[string]any{"name": "", "full_name": "", "email": "", "phone": ""}
	}
	return map[string]any{
		"name":      u.Name,
		"full_name": u.FullName(),
		"email":     u.Email,
		"phone":     u.Phone,
	}
}

// tidy drops the blank lines left behind by Liquid tags.
func tidy(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, l)
	}
	return strings.Join(out, "\n") + "\n"
}
