// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify maps discovered listing-page links to guideline
// descriptors. Classification is pure string work: it never touches the
// network and never fails, so any input can be thrown at it.
package classify

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/pdiddy/gpc-harvester/pkg/types"
)

// Naming-convention tokens used by the source site. GER is the
// comprehensive guideline, GRR the quick-reference companion.
const (
	gerToken = "GER"
	grrToken = "GRR"
	pdfExt   = ".pdf"
)

// guideIDPattern matches IMSS catalog numbers such as "IMSS-050-18".
var guideIDPattern = regexp.MustCompile(`(?i)IMSS-\d+-\d+`)

// unsafeChars matches filename characters replaced with "_" on disk.
var unsafeChars = regexp.MustCompile(`[^\w\-.]`)

// Classify inspects one anchor (absolute href plus its anchor text) and
// returns a descriptor when it points at a downloadable GER guideline.
// The second return value is false for everything else: non-PDF links,
// quick-reference (GRR) documents, and unparsable hrefs.
func Classify(href, anchorText string) (*types.Guideline, bool) {
	u, err := url.Parse(href)
	if err != nil {
		return nil, false
	}

	base := path.Base(u.Path)
	if !strings.EqualFold(path.Ext(base), pdfExt) {
		return nil, false
	}

	family := familyOf(base)
	if family != types.FamilyGER {
		return nil, false
	}

	id := ExtractGuideID(base, anchorText)

	return &types.Guideline{
		SourceURL: href,
		FileName:  base,
		Title:     strings.TrimSpace(anchorText),
		GuideID:   id,
		Family:    family,
		LocalName: LocalName(base, id),
	}, true
}

// familyOf determines the document family from the PDF filename. A name
// carrying the GRR token is quick-reference even if it also mentions GER.
func familyOf(fileName string) types.Family {
	upper := strings.ToUpper(fileName)
	switch {
	case strings.Contains(upper, grrToken):
		return types.FamilyGRR
	case strings.Contains(upper, gerToken):
		return types.FamilyGER
	default:
		return types.FamilyOther
	}
}

// ExtractGuideID looks for an IMSS catalog number in the filename first,
// then in the anchor text. It returns "" when neither matches; a missing
// id never excludes a document.
func ExtractGuideID(fileName, anchorText string) string {
	if m := guideIDPattern.FindString(fileName); m != "" {
		return strings.ToUpper(m)
	}
	if m := guideIDPattern.FindString(anchorText); m != "" {
		return strings.ToUpper(m)
	}
	return ""
}

// LocalName returns the deterministic on-disk filename for a remote PDF:
// the sanitized base name, prefixed with the guide id when one exists.
func LocalName(fileName, guideID string) string {
	safe := unsafeChars.ReplaceAllString(fileName, "_")
	if guideID == "" || strings.HasPrefix(strings.ToUpper(safe), guideID) {
		return safe
	}
	return guideID + "_" + safe
}
