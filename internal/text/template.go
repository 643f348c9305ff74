package text

import (
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/DaanHessen/pointboard/internal/engine"
)

// announceData is what user templates can reference.
type announceData struct {
	Name   string
	Passed []string
	List   string
	Gain   int
	Points int
}

// templateAnnouncer renders user-supplied text/template messages.
type templateAnnouncer struct {
	overtake  *template.Template
	rapidGain *template.Template
}

// NewTemplateAnnouncer parses the given templates. An empty template leaves that
// event to the fallback.
func NewTemplateAnnouncer(overtake, rapidGain string) (Announcer, error) {
	a := &templateAnnouncer{}
	var err error
	if overtake != "" {
		if a.overtake, err = template.New("overtake").Option("missingkey=error").Parse(overtake); err != nil {
			return nil, errors.Wrap(err, "parse overtake template")
		}
	}
	if rapidGain != "" {
		if a.rapidGain, err = template.New("rapid_gain").Option("missingkey=error").Parse(rapidGain); err != nil {
			return nil, errors.Wrap(err, "parse rapid_gain template")
		}
	}
	return a, nil
}

func (a *templateAnnouncer) Overtake(ev engine.Event) (string, error) {
	return execute(a.overtake, ev)
}

func (a *templateAnnouncer) RapidGain(ev engine.Event) (string, error) {
	return execute(a.rapidGain, ev)
}

func execute(t *template.Template, ev engine.Event) (string, error) {
	if t == nil {
		return "", errors.New("no template")
	}
	names := make([]string, len(ev.Passed))
	for i, c := range ev.Passed {
		names[i] = c.Name
	}
	var sb strings.Builder
	err := t.Execute(&sb, announceData{
		Name:   ev.Counter.Name,
		Passed: names,
		List:   strings.Join(names, ", "),
		Gain:   ev.Gain,
		Points: ev.Counter.Points,
	})
	if err != nil {
		return "", errors.Wrapf(err, "execute %s", t.Name())
	}
	return sb.String(), nil
}

// WithFallback returns an announcer that prefers primary and falls back to backup on error.
func WithFallback(primary, fallback Announcer) Announcer {
	return &fallbackAnnouncer{p: primary, f: fallback}
}

type fallbackAnnouncer struct{ p, f Announcer }

func (n *fallbackAnnouncer) Overtake(ev engine.Event) (string, error) {
	if n.p == nil {
		return n.f.Overtake(ev)
	}
	if s, err := n.p.Overtake(ev); err == nil {
		return s, nil
	}
	return n.f.Overtake(ev)
}

func (n *fallbackAnnouncer) RapidGain(ev engine.Event) (string, error) {
	if n.p == nil {
		return n.f.RapidGain(ev)
	}
	if s, err := n.p.RapidGain(ev); err == nil {
		return s, nil
	}
	return n.f.RapidGain(ev)
}
