// Package filterstate models the candidate table's filter criteria as an
// immutable value: a fixed catalog of facets, default derivation from live
// aggregate bounds, and a symmetric diff/merge pair used both for session
// persistence and for compact shareable URLs.
package filterstate

// FacetKind tags one entry of the facet catalog.
type FacetKind int

const (
	KindRange FacetKind = iota // (gte, lte) pair over one statistic column
	KindBool
	KindString
	KindInt
	KindCoord // (ra_str, dec_str, radius_arcmin) triple
)

func (k FacetKind) String() string {
	switch k {
	case KindRange:
		return "range"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindCoord:
		return "coord"
	default:
		return "unknown"
	}
}

// Facet is one named, independently togglable filter criterion. The catalog
// is fixed at compile time; raw query parameters never create facets.
type Facet struct {
	Name string
	Kind FacetKind
}

// StatFacets lists the numeric range facets in catalog order. Names double
// as candidate store column names.
var StatFacets = []string{
	"chi_square",
	"chi_square_sigma",
	"chi_square_log_sigma",
	"peak_map",
	"peak_map_sigma",
	"peak_map_log_sigma",
	"gaussian_map",
	"gaussian_map_sigma",
	"std_map",
	"md_deep",
	"deep_sep_arcsec",
	"bright_sep_arcmin",
	"beam_sep_deg",
	"deep_peak_flux",
	"deep_int_flux",
}

// CoordFacets names the three coordinate-radius facets. Each applies a
// radius test to a different position column pair of the candidate.
var CoordFacets = []string{"cand", "beam", "deep"}

// Catalog enumerates every recognized facet.
var Catalog = buildCatalog()

func buildCatalog() []Facet {
	catalog := make([]Facet, 0, len(StatFacets)+6+len(CoordFacets))
	for _, name := range StatFacets {
		catalog = append(catalog, Facet{Name: name, Kind: KindRange})
	}
	catalog = append(catalog,
		Facet{Name: "rated", Kind: KindBool},
		Facet{Name: "tag", Kind: KindString},
		Facet{Name: "confidence", Kind: KindString},
		Facet{Name: "observation", Kind: KindString},
		Facet{Name: "beam_index", Kind: KindInt},
		Facet{Name: "deep_num", Kind: KindInt},
	)
	for _, name := range CoordFacets {
		catalog = append(catalog, Facet{Name: name + "_coord", Kind: KindCoord})
	}
	return catalog
}
