//go:build integration

package scripts_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/pwrecorder/pwrecorder/pkg/core/scripts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body>
<form>
  <label for="email">Email</label><input id="email">
  <button id="save" data-testid="save-button">Save</button>
  <a id="docs" href="#docs">Read the docs</a>
  <div><p>one</p><p><span id="deep-leaf-with-no-text"></span></p></div>
</form>
</body></html>`

func TestPicker_InRealBrowser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	bin, has := launcher.LookPath()
	if !has {
		t.Skip("no chromium found")
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()

	l := launcher.New().Bin(bin).Headless(true)
	defer l.Kill()
	u, err := l.Launch()
	require.NoError(t, err)
	browser := rod.New().ControlURL(u)
	require.NoError(t, browser.Connect())
	defer browser.MustClose()

	p := browser.MustPage(ts.URL).MustWaitLoad()
	p.MustEval(`() => { window.pw_recorder_pick = (l) => { window.__picked = l; }; }`)
	p.MustEval(scripts.Picker())

	locatorOf := func(selector string) string {
		return p.MustEval(`(s) => window.__pwRecorderBuildLocator(document.querySelector(s))`, selector).Str()
	}
	assert.Equal(t, "data-testid=save-button", locatorOf("#save"))
	assert.Equal(t, `role=textbox[name="Email"]`, locatorOf("#email"))
	assert.Equal(t, `role=link[name="Read the docs"]`, locatorOf("#docs"))
	assert.Equal(t, "css=#deep-leaf-with-no-text", locatorOf("span"))

	p.MustElement("#docs").MustHover()
	assert.Equal(t, scripts.OutlineOffset, p.MustEval(`() => document.querySelector('#docs').style.outlineOffset`).Str())

	p.MustElement("#docs").MustClick()
	assert.Equal(t, `role=link[name="Read the docs"]`, p.MustEval(`() => window.__picked`).Str())
	assert.Equal(t, "", p.MustEval(`() => document.querySelector('#docs').style.outline`).Str())
	assert.False(t, p.MustEval(`() => window.__pwRecorderPickActive`).Bool())
	assert.NotContains(t, p.MustInfo().URL, "#docs")
}
