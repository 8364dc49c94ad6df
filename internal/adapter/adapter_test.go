package adapter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/embedkit/widgetbridge/internal/errors"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, Config{}.Validate())
	require.NoError(t, Config{TimeoutMs: 5000, IntentHandling: IntentIgnore}.Validate())

	var cfgErr *errors.ConfigError

	err := Config{TimeoutMs: -1}.Validate()
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "TimeoutMs", cfgErr.Field)

	err = Config{IntentHandling: "ask-twice"}.Validate()
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "IntentHandling", cfgErr.Field)
}

func TestGenerateScript_EmbedsLiteralConfig(t *testing.T) {
	script, err := GenerateScript(Config{Enabled: true, TimeoutMs: 5000})
	require.NoError(t, err)

	require.Contains(t, script, `"timeoutMs":5000`)
	require.Contains(t, script, `"intentHandling":"prompt"`)
	require.NotContains(t, script, "{{")
}

func TestGenerateScript_Defaults(t *testing.T) {
	script, err := GenerateScript(Config{Enabled: true})
	require.NoError(t, err)

	require.Contains(t, script, `"timeoutMs":30000`)
	require.Contains(t, script, `"intentHandling":"prompt"`)
	require.Contains(t, script, `"hostOrigin":""`)
}

func TestGenerateScript_ForeignConvention(t *testing.T) {
	script, err := GenerateScript(Config{Enabled: true})
	require.NoError(t, err)

	for _, method := range []string{
		"callTool", "sendFollowupTurn", "openExternal",
		"requestDisplayMode", "setWidgetState",
	} {
		require.Contains(t, script, method)
	}

	require.Contains(t, script, "window.__widgetBridgeShim")
	require.Contains(t, script, "window.openai = api")
	require.Contains(t, script, "uninstall")
}

func TestGenerateScript_IntentTranslatesToToolCall(t *testing.T) {
	script, err := GenerateScript(Config{Enabled: true})
	require.NoError(t, err)

	// A confirmed host-initiated intent becomes a tool call; the shim never
	// navigates on its own.
	require.Contains(t, script, "window.confirm")
	require.Contains(t, script, `toolName: "open-link"`)
	require.NotContains(t, script, "window.open(")
}

func TestGenerateScript_InvalidConfig(t *testing.T) {
	_, err := GenerateScript(Config{Enabled: true, IntentHandling: "maybe"})
	require.Error(t, err)
}

func TestWrapMarkup_DisabledIsIdentity(t *testing.T) {
	markup := "<html><head><title>t</title></head><body>hi</body></html>"

	out, err := WrapMarkup(markup, Config{})
	require.NoError(t, err)
	require.Equal(t, markup, out)
}

func TestWrapMarkup_ShimFirstInHead(t *testing.T) {
	markup := "<html><head><title>t</title></head><body>hi</body></html>"

	out, err := WrapMarkup(markup, Config{Enabled: true})
	require.NoError(t, err)

	scriptAt := strings.Index(out, "<script>")
	titleAt := strings.Index(out, "<title>")
	require.GreaterOrEqual(t, scriptAt, 0)
	require.GreaterOrEqual(t, titleAt, 0)
	require.Less(t, scriptAt, titleAt)
}

func TestWrapMarkup_SynthesizesHead(t *testing.T) {
	out, err := WrapMarkup("<html><body>hi</body></html>", Config{Enabled: true})
	require.NoError(t, err)

	headAt := strings.Index(out, "<head>")
	scriptAt := strings.Index(out, "<script>")
	bodyAt := strings.Index(out, "<body>")
	require.GreaterOrEqual(t, headAt, 0)
	require.Greater(t, scriptAt, headAt)
	require.Greater(t, bodyAt, scriptAt)
}

func TestWrapMarkup_FragmentGetsPrepended(t *testing.T) {
	out, err := WrapMarkup("<div>hi</div>", Config{Enabled: true})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "<script>"))
	require.True(t, strings.HasSuffix(out, "<div>hi</div>"))
	// No document scaffolding invented around the fragment.
	require.NotContains(t, out, "<html>")
}

func TestWrapMarkup_HeaderTagIsStillAFragment(t *testing.T) {
	out, err := WrapMarkup("<header>hi</header>", Config{Enabled: true})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "<script>"))
	require.True(t, strings.HasSuffix(out, "<header>hi</header>"))
	require.NotContains(t, out, "<html>")
	require.NotContains(t, out, "<head>")
}

func TestHasDocumentStructure_TagBoundaries(t *testing.T) {
	for markup, want := range map[string]bool{
		"<html lang=\"en\"><body>x</body></html>": true,
		"<!DOCTYPE html><p>x</p>":                 true,
		"<head><title>t</title></head>":           true,
		"<body>x</body>":                          true,
		"<header>x</header>":                      false,
		"<headline>x</headline>":                  false,
		"<div>x</div>":                            false,
	} {
		require.Equal(t, want, hasDocumentStructure(markup), markup)
	}
}

func TestWrapMarkup_InvalidConfig(t *testing.T) {
	_, err := WrapMarkup("<div></div>", Config{Enabled: true, TimeoutMs: -5})
	require.Error(t, err)
}
