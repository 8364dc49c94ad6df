// Package adapter generates a self-contained JavaScript shim that exposes a
// foreign host-API convention (a window.openai style global) on top of the
// bridge wire protocol, plus the packaging step that injects the shim into
// widget markup before delivery.
package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/embedkit/widgetbridge/internal/errors"
)

// Intent handling modes for navigation intents delivered into the shim.
const (
	// IntentPrompt asks the user before acting on an intent.
	IntentPrompt = "prompt"

	// IntentIgnore drops intents silently.
	IntentIgnore = "ignore"
)

// DefaultTimeoutMs is the correlated-call deadline baked into the shim when
// the config leaves it unset.
const DefaultTimeoutMs = 30000

// Config parameterizes the generated shim. The resolved values are serialized
// literally into the emitted script, so validation happens at generation time.
type Config struct {
	// Enabled gates the whole adapter. The zero config is disabled and
	// WrapMarkup passes markup through untouched.
	Enabled bool

	// TimeoutMs is the per-call deadline in milliseconds. 0 means
	// DefaultTimeoutMs.
	TimeoutMs int

	// IntentHandling is IntentPrompt or IntentIgnore. "" means IntentPrompt.
	IntentHandling string

	// HostOrigin restricts postMessage traffic to one host origin. ""
	// trusts the embedding context.
	HostOrigin string
}

// withDefaults resolves unset fields to their documented defaults.
func (c Config) withDefaults() Config {
	if c.TimeoutMs == 0 {
		c.TimeoutMs = DefaultTimeoutMs
	}

	if c.IntentHandling == "" {
		c.IntentHandling = IntentPrompt
	}

	return c
}

// Validate reports invalid field values. Unset fields are valid, they resolve
// to defaults at generation time.
func (c Config) Validate() error {
	if c.TimeoutMs < 0 {
		return &errors.ConfigError{Field: "TimeoutMs", Reason: "must not be negative"}
	}

	switch c.IntentHandling {
	case "", IntentPrompt, IntentIgnore:
	default:
		return &errors.ConfigError{
			Field:  "IntentHandling",
			Reason: fmt.Sprintf("must be %q or %q, got %q", IntentPrompt, IntentIgnore, c.IntentHandling),
		}
	}

	return nil
}

// GenerateScript renders the shim with the resolved config embedded as a
// literal JSON object.
func GenerateScript(cfg Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	cfg = cfg.withDefaults()

	configJSON, err := json.Marshal(map[string]any{
		"timeoutMs":      cfg.TimeoutMs,
		"intentHandling": cfg.IntentHandling,
		"hostOrigin":     cfg.HostOrigin,
	})
	if err != nil {
		return "", fmt.Errorf("marshal shim config: %w", err)
	}

	var buf bytes.Buffer
	if err := shimTemplate.Execute(&buf, map[string]any{
		"ConfigJSON": string(configJSON),
	}); err != nil {
		return "", fmt.Errorf("render shim: %w", err)
	}

	return buf.String(), nil
}

// WrapMarkup injects the generated shim into widget markup so it runs before
// widget code. Full documents get the shim as the first child of head, with a
// head synthesized when the document lacks one. Fragments without document
// structure get the script prepended as-is. Disabled configs return the
// markup unchanged.
func WrapMarkup(markup string, cfg Config) (string, error) {
	if !cfg.Enabled {
		return markup, nil
	}

	script, err := GenerateScript(cfg)
	if err != nil {
		return "", err
	}

	if !hasDocumentStructure(markup) {
		return "<script>" + script + "</script>\n" + markup, nil
	}

	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	head := findElement(doc, atom.Head)
	if head == nil {
		return "", fmt.Errorf("parse markup: no head element")
	}

	node := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	node.AppendChild(&html.Node{Type: html.TextNode, Data: script})
	head.InsertBefore(node, head.FirstChild)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render markup: %w", err)
	}

	return buf.String(), nil
}

// docStructure matches document-level open tags on a tag boundary, so
// fragment tags sharing a prefix (<header>, <headline>) do not count as
// <head>.
var docStructure = regexp.MustCompile(`(?i)<(?:!doctype|html|head|body)[\s/>]`)

// hasDocumentStructure reports whether the markup carries document-level
// tags. Parsing a bare fragment would wrap it in html/head/body scaffolding
// the author never wrote, so fragments take the prepend path instead.
func hasDocumentStructure(markup string) bool {
	return docStructure.MatchString(markup)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}

	return nil
}
