package browser

import (
	"testing"

	"github.com/chromedp/cdproto/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"
)

func TestPageOnEvent_RecordsConsoleAndErrors(t *testing.T) {
	p := &Page{logger: arbor.NewLogger()}

	p.onEvent(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeLog,
		Args: []*runtime.RemoteObject{
			{Type: runtime.TypeString, Value: []byte(`"Loaded rounds:"`)},
			{Type: runtime.TypeNumber, Value: []byte(`24`)},
		},
	})
	p.onEvent(&runtime.EventExceptionThrown{
		ExceptionDetails: &runtime.ExceptionDetails{
			Text:      "Uncaught",
			Exception: &runtime.RemoteObject{Type: runtime.TypeObject, Description: "TypeError: x is undefined"},
		},
	})
	p.onEvent("ignored")

	assert.Equal(t, []string{
		"[log] Loaded rounds: 24",
		"[pageerror] TypeError: x is undefined",
	}, p.ConsoleMessages())
}

func TestRemoteObjectText(t *testing.T) {
	assert.Equal(t, "", remoteObjectText(nil))
	assert.Equal(t, "HTMLDivElement", remoteObjectText(&runtime.RemoteObject{Type: runtime.TypeObject, Description: "HTMLDivElement"}))
	assert.Equal(t, "undefined", remoteObjectText(&runtime.RemoteObject{Type: runtime.TypeUndefined}))
}

func TestPageListeners_ReceiveEvents(t *testing.T) {
	p := &Page{logger: arbor.NewLogger()}

	var consoleKinds, consoleTexts, pageErrors []string
	p.OnConsole(func(kind, text string) {
		consoleKinds = append(consoleKinds, kind)
		consoleTexts = append(consoleTexts, text)
	})
	p.OnPageError(func(text string) {
		pageErrors = append(pageErrors, text)
	})

	p.onEvent(&runtime.EventConsoleAPICalled{
		Type: runtime.APITypeWarning,
		Args: []*runtime.RemoteObject{{Type: runtime.TypeString, Value: []byte(`"radar stale"`)}},
	})
	p.onEvent(&runtime.EventExceptionThrown{
		ExceptionDetails: &runtime.ExceptionDetails{Text: "Uncaught ReferenceError"},
	})

	assert.Equal(t, []string{"warning"}, consoleKinds)
	assert.Equal(t, []string{"radar stale"}, consoleTexts)
	assert.Equal(t, []string{"Uncaught ReferenceError"}, pageErrors)
}
