package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proximodev/releasepass/internal/qa"
)

func TestCheckPlaceholderLinks_DeadLink(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><body>
		<a href="#">Read more</a>
		<a href="/about">About</a>
	</body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	items := e.checkPlaceholderLinks(pc)
	require.Len(t, items, 1)
	require.Equal(t, qa.ItemFail, items[0].Status)
	require.Equal(t, 1, items[0].Metadata["count"])
	require.Equal(t, []string{"Read more"}, items[0].Metadata["examples"])
	require.Equal(t, 0, items[0].Metadata["excludedNavDropdowns"])
}

func TestCheckPlaceholderLinks_NavDropdownExcluded(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><body>
		<nav>
			<ul>
				<li>
					<a href="#" aria-haspopup="true">Products</a>
					<ul><li><a href="/widgets">Widgets</a></li></ul>
				</li>
			</ul>
		</nav>
		<a href="#">Broken</a>
	</body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	items := e.checkPlaceholderLinks(pc)
	require.Equal(t, qa.ItemFail, items[0].Status)
	require.Equal(t, 1, items[0].Metadata["count"])
	require.Equal(t, 1, items[0].Metadata["excludedNavDropdowns"])
	require.Equal(t, []string{"Broken"}, items[0].Metadata["examples"])
}

func TestCheckPlaceholderLinks_AllExcludedPasses(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><body>
		<div role="navigation">
			<li>
				<a href="#">Menu</a>
				<ul><li><a href="/one">One</a></li></ul>
			</li>
		</div>
	</body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	items := e.checkPlaceholderLinks(pc)
	require.Equal(t, qa.ItemPass, items[0].Status)
	require.Equal(t, 1, items[0].Metadata["excludedNavDropdowns"])
}

func TestIsNavDropdownTrigger_NoNavAncestor(t *testing.T) {
	t.Parallel()
	// A dropdown-looking anchor outside any nav context is still a dead link.
	html := `<html><body>
		<div>
			<a href="#" aria-expanded="false">Toggle</a>
			<ul><li>item</li></ul>
		</div>
	</body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	trigger := pc.doc.Find("a").First()
	require.False(t, isNavDropdownTrigger(trigger))
}

func TestIsNavDropdownTrigger_SiblingMenu(t *testing.T) {
	t.Parallel()
	html := `<html><body><nav>
		<div>
			<a href="#">Open</a>
			<menu><li>item</li></menu>
		</div>
	</nav></body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	trigger := pc.doc.Find("a").First()
	require.True(t, isNavDropdownTrigger(trigger))
}

func TestRootDomain(t *testing.T) {
	t.Parallel()
	require.Equal(t, "example.com", rootDomain("www.example.com"))
	require.Equal(t, "example.co.uk", rootDomain("shop.example.co.uk"))
	require.Equal(t, "localhost", rootDomain("localhost"))
}

func TestCheckExternalLinkTargets(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><body>
		<a href="https://other.test/page">opens here</a>
		<a href="https://other.test/ok" target="_blank">opens new tab</a>
		<a href="https://www.a.test/internal">same site</a>
		<a href="/relative">relative</a>
		<a href="mailto:hi@other.test">mail</a>
		<a href="https://other.test/file.pdf" download>download</a>
	</body></html>`
	pc := newContext(t, html, "https://a.test/", nil)

	items := e.checkExternalLinkTargets(pc)
	require.Len(t, items, 1)
	require.Equal(t, qa.ItemFail, items[0].Status)
	require.Equal(t, 2, items[0].Metadata["externalCount"])
	require.Equal(t, []string{"https://other.test/page"}, items[0].Metadata["links"])
}

func TestCheckExternalLinkTargets_SubdomainIsInternal(t *testing.T) {
	t.Parallel()
	e := newTestEngine(nil)
	html := `<html><body>
		<a href="https://blog.example.co.uk/post">blog</a>
	</body></html>`
	pc := newContext(t, html, "https://www.example.co.uk/", nil)

	items := e.checkExternalLinkTargets(pc)
	require.Equal(t, qa.ItemPass, items[0].Status)
	require.Equal(t, 0, items[0].Metadata["externalCount"])
}
