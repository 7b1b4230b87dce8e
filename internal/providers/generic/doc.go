// Package generic implements a providers.SiteAdapter for plain HTML manga
// reading sites. Chapter links and page images are found with DOM analysis
// and a few URL heuristics, so it is registered last as the catch-all.
package generic
