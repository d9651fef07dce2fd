package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proximodev/releasepass/internal/qa"
)

func TestCheckHeadings_MissingShortCircuits(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	pc := newContext(t, `<html><body><p>no headings</p></body></html>`, "https://a.test/", nil)

	items := e.checkHeadings(pc)
	require.Len(t, items, 1)
	require.Equal(t, CodeH1Missing, items[0].Code)
	require.Equal(t, qa.ItemFail, items[0].Status)
	require.Equal(t, qa.SeverityBlocker, items[0].Severity)
	require.False(t, hasItem(items, CodeH1Multiple))
	require.False(t, hasItem(items, CodeH1Empty))
}

func TestCheckHeadings_Multiple(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	pc := newContext(t, `<html><body><h1>Welcome</h1><h1>Also welcome</h1></body></html>`, "https://a.test/", nil)

	items := e.checkHeadings(pc)
	require.Len(t, items, 3)

	multiple := findItem(t, items, CodeH1Multiple)
	require.Equal(t, qa.ItemFail, multiple.Status)
	require.Equal(t, qa.SeverityCritical, multiple.Severity)
	require.Equal(t, []string{"Welcome", "Also welcome"}, multiple.Metadata["headings"])

	require.Equal(t, qa.ItemPass, findItem(t, items, CodeH1Missing).Status)
	require.Equal(t, qa.ItemPass, findItem(t, items, CodeH1Empty).Status)
}

func TestCheckHeadings_Empty(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	pc := newContext(t, `<html><body><h1>   </h1></body></html>`, "https://a.test/", nil)

	items := e.checkHeadings(pc)
	empty := findItem(t, items, CodeH1Empty)
	require.Equal(t, qa.ItemFail, empty.Status)
	require.Equal(t, qa.SeverityBlocker, empty.Severity)
	require.Equal(t, 1, empty.Metadata["emptyCount"])
	require.Equal(t, qa.ItemPass, findItem(t, items, CodeH1Multiple).Status)
}

func TestCheckHeadings_SingleGoodHeading(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	pc := newContext(t, `<html><body><h1>Product launch</h1></body></html>`, "https://a.test/", nil)

	items := e.checkHeadings(pc)
	require.Len(t, items, 3)
	for _, item := range items {
		require.Equal(t, qa.ItemPass, item.Status, item.Code)
		require.Empty(t, item.Severity)
	}
}
