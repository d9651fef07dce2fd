package rules

import "github.com/proximodev/releasepass/internal/qa"

// Rule codes evaluated by the engine. The catalog may override severity and
// display text per code; the defaults below apply when it has no entry.
const (
	CodeH1Missing  = "H1_MISSING"
	CodeH1Multiple = "H1_MULTIPLE"
	CodeH1Empty    = "H1_EMPTY"

	CodeViewportMissing = "VIEWPORT_MISSING"

	CodeRobotsNoindex  = "ROBOTS_NOINDEX"
	CodeRobotsNofollow = "ROBOTS_NOFOLLOW"
	CodeRobotsConflict = "ROBOTS_CONFLICT"

	CodeCanonicalMissing          = "CANONICAL_MISSING"
	CodeCanonicalMultiple         = "CANONICAL_MULTIPLE"
	CodeCanonicalProtocolMismatch = "CANONICAL_PROTOCOL_MISMATCH"
	CodeCanonicalHostMismatch     = "CANONICAL_HOST_MISMATCH"
	CodeCanonicalURLMismatch      = "CANONICAL_URL_MISMATCH"
	CodeCanonicalTrackingParams   = "CANONICAL_TRACKING_PARAMS"

	CodeSecurityHTTP         = "SECURITY_HTTP"
	CodeSecurityHTTPMetadata = "SECURITY_HTTP_METADATA"
	CodeSecurityMixedContent = "SECURITY_MIXED_CONTENT"
	CodeSecurityHTTPIframe   = "SECURITY_HTTP_IFRAME"

	CodePlaceholderLinks = "PLACEHOLDER_LINKS"
	CodeImgAltEmpty      = "IMG_ALT_EMPTY"
	CodeFaviconMissing   = "FAVICON_MISSING"

	CodeTitleTooShort    = "TITLE_TOO_SHORT"
	CodeTitleTooLong     = "TITLE_TOO_LONG"
	CodeMetaDescTooShort = "META_DESCRIPTION_TOO_SHORT"
	CodeMetaDescTooLong  = "META_DESCRIPTION_TOO_LONG"

	CodeExternalLinkTarget = "EXTERNAL_LINK_TARGET"
)

var defaultSeverities = map[string]qa.Severity{
	CodeH1Missing:  qa.SeverityBlocker,
	CodeH1Multiple: qa.SeverityCritical,
	CodeH1Empty:    qa.SeverityBlocker,

	CodeViewportMissing: qa.SeverityHigh,

	CodeRobotsNoindex:  qa.SeverityBlocker,
	CodeRobotsNofollow: qa.SeverityHigh,
	CodeRobotsConflict: qa.SeverityMedium,

	CodeCanonicalMissing:          qa.SeverityCritical,
	CodeCanonicalMultiple:         qa.SeverityCritical,
	CodeCanonicalProtocolMismatch: qa.SeverityHigh,
	CodeCanonicalHostMismatch:     qa.SeverityHigh,
	CodeCanonicalURLMismatch:      qa.SeverityMedium,
	CodeCanonicalTrackingParams:   qa.SeverityMedium,

	CodeSecurityHTTP:         qa.SeverityBlocker,
	CodeSecurityHTTPMetadata: qa.SeverityHigh,
	CodeSecurityMixedContent: qa.SeverityHigh,
	CodeSecurityHTTPIframe:   qa.SeverityMedium,

	CodePlaceholderLinks: qa.SeverityMedium,
	CodeImgAltEmpty:      qa.SeverityLow,
	CodeFaviconMissing:   qa.SeverityLow,

	CodeTitleTooShort:    qa.SeverityLow,
	CodeTitleTooLong:     qa.SeverityLow,
	CodeMetaDescTooShort: qa.SeverityLow,
	CodeMetaDescTooLong:  qa.SeverityLow,

	CodeExternalLinkTarget: qa.SeverityLow,
}

var defaultNames = map[string]string{
	CodeH1Missing:  "Page has no H1 heading",
	CodeH1Multiple: "Page has multiple H1 headings",
	CodeH1Empty:    "Page has an empty H1 heading",

	CodeViewportMissing: "Viewport meta tag missing",

	CodeRobotsNoindex:  "Page is blocked from indexing",
	CodeRobotsNofollow: "Page links are marked nofollow",
	CodeRobotsConflict: "Robots directives conflict between header and meta tag",

	CodeCanonicalMissing:          "Canonical tag missing",
	CodeCanonicalMultiple:         "Multiple canonical tags",
	CodeCanonicalProtocolMismatch: "Canonical URL protocol differs from page",
	CodeCanonicalHostMismatch:     "Canonical URL host differs from page",
	CodeCanonicalURLMismatch:      "Canonical URL does not match page URL",
	CodeCanonicalTrackingParams:   "Canonical URL carries tracking parameters",

	CodeSecurityHTTP:         "Page served over insecure HTTP",
	CodeSecurityHTTPMetadata: "Canonical or Open Graph URLs use insecure HTTP",
	CodeSecurityMixedContent: "Page loads mixed (HTTP) content",
	CodeSecurityHTTPIframe:   "Page embeds insecure HTTP iframes",

	CodePlaceholderLinks: "Placeholder links found",
	CodeImgAltEmpty:      "Images with empty alt attributes",
	CodeFaviconMissing:   "Favicon missing or unreachable",

	CodeTitleTooShort:    "Page title too short",
	CodeTitleTooLong:     "Page title too long",
	CodeMetaDescTooShort: "Meta description too short",
	CodeMetaDescTooLong:  "Meta description too long",

	CodeExternalLinkTarget: "External links missing a new-tab target",
}
