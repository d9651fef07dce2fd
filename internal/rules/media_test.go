package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proximodev/releasepass/internal/qa"
)

func TestCheckEmptyAlt(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><body>
		<img src="/hero.png" alt="">
		<img src="/spacer.gif" alt="   ">
		<img src="/logo.png" alt="Company logo">
		<img src="/untagged.png">
	</body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	items := e.checkEmptyAlt(pc)
	require.Len(t, items, 1)
	require.Equal(t, qa.ItemFail, items[0].Status)
	// Images with no alt attribute at all are out of scope here.
	require.Equal(t, 2, items[0].Metadata["count"])
	require.Equal(t, []string{"/hero.png", "/spacer.gif"}, items[0].Metadata["examples"])
}

func TestCheckEmptyAlt_CleanPage(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><body><img src="/logo.png" alt="Company logo"></body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	items := e.checkEmptyAlt(pc)
	require.Equal(t, qa.ItemPass, items[0].Status)
}
