package criteria

import "sort"

// Fixed geographic lookup tables. These mirror the curated coverage area of
// the marketplace (New England MLS footprint); towns and neighborhoods
// outside the tables still work through the fail-open pass-through path.

var stateCodes = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT",
	"delaware": "DE", "district of columbia": "DC", "florida": "FL",
	"georgia": "GA", "hawaii": "HI", "idaho": "ID", "illinois": "IL",
	"indiana": "IN", "iowa": "IA", "kansas": "KS", "kentucky": "KY",
	"louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT",
	"nebraska": "NE", "nevada": "NV", "new hampshire": "NH",
	"new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA",
	"rhode island": "RI", "south carolina": "SC", "south dakota": "SD",
	"tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// countyTowns maps state code -> county name -> towns.
var countyTowns = map[string]map[string][]string{
	"MA": {
		"Barnstable": {"Barnstable", "Falmouth", "Sandwich", "Yarmouth", "Dennis", "Harwich", "Chatham", "Provincetown"},
		"Berkshire":  {"Pittsfield", "North Adams", "Great Barrington", "Lenox", "Williamstown"},
		"Bristol":    {"Fall River", "New Bedford", "Taunton", "Attleboro", "Dartmouth", "Westport"},
		"Dukes":      {"Edgartown", "Oak Bluffs", "Tisbury", "West Tisbury", "Chilmark"},
		"Essex":      {"Salem", "Lynn", "Lawrence", "Haverhill", "Gloucester", "Newburyport", "Andover", "Beverly"},
		"Franklin":   {"Greenfield", "Deerfield", "Orange", "Montague", "Shelburne"},
		"Hampden":    {"Springfield", "Chicopee", "Holyoke", "Westfield", "Agawam", "Longmeadow"},
		"Hampshire":  {"Northampton", "Amherst", "Easthampton", "South Hadley", "Belchertown"},
		"Middlesex":  {"Cambridge", "Lowell", "Newton", "Somerville", "Framingham", "Waltham", "Medford", "Arlington", "Lexington"},
		"Nantucket":  {"Nantucket"},
		"Norfolk":    {"Quincy", "Brookline", "Weymouth", "Braintree", "Milton", "Needham", "Dedham", "Wellesley"},
		"Plymouth":   {"Brockton", "Plymouth", "Marshfield", "Scituate", "Hingham", "Duxbury"},
		"Suffolk":    {"Boston", "Chelsea", "Revere", "Winthrop"},
		"Worcester":  {"Worcester", "Fitchburg", "Leominster", "Shrewsbury", "Westborough", "Milford"},
	},
	"CT": {
		"Fairfield":  {"Bridgeport", "Stamford", "Norwalk", "Danbury", "Greenwich", "Fairfield", "Westport"},
		"Hartford":   {"Hartford", "New Britain", "Bristol", "Manchester", "West Hartford", "Glastonbury"},
		"Litchfield": {"Torrington", "New Milford", "Litchfield", "Watertown"},
		"Middlesex":  {"Middletown", "Old Saybrook", "Clinton", "East Haddam"},
		"New Haven":  {"New Haven", "Waterbury", "Meriden", "Milford", "Hamden", "Guilford"},
		"New London": {"New London", "Norwich", "Groton", "Stonington", "East Lyme"},
		"Tolland":    {"Vernon", "Tolland", "Coventry", "Stafford"},
		"Windham":    {"Willimantic", "Putnam", "Killingly", "Woodstock"},
	},
	"RI": {
		"Bristol":    {"Bristol", "Barrington", "Warren"},
		"Kent":       {"Warwick", "West Warwick", "Coventry", "East Greenwich"},
		"Newport":    {"Newport", "Middletown", "Portsmouth", "Jamestown", "Tiverton"},
		"Providence": {"Providence", "Cranston", "Pawtucket", "Woonsocket", "East Providence", "Johnston", "Smithfield"},
		"Washington": {"Westerly", "South Kingstown", "North Kingstown", "Narragansett", "Charlestown"},
	},
	"NH": {
		"Hillsborough": {"Manchester", "Nashua", "Merrimack", "Bedford", "Milford"},
		"Rockingham":   {"Portsmouth", "Derry", "Salem", "Exeter", "Hampton"},
		"Merrimack":    {"Concord", "Franklin", "Hooksett", "Bow"},
		"Strafford":    {"Dover", "Rochester", "Somersworth", "Durham"},
	},
}

// townNeighborhoods maps state code -> town -> curated neighborhoods.
var townNeighborhoods = map[string]map[string][]string{
	"MA": {
		"Boston": {
			"Allston", "Back Bay", "Beacon Hill", "Brighton", "Charlestown",
			"Dorchester", "East Boston", "Fenway", "Hyde Park",
			"Jamaica Plain", "Mattapan", "Mission Hill", "North End",
			"Roslindale", "Roxbury", "South Boston", "South End",
			"West Roxbury",
		},
		"Cambridge": {
			"Cambridgeport", "Central Square", "East Cambridge",
			"Harvard Square", "Kendall Square", "North Cambridge",
			"Porter Square",
		},
		"Worcester": {"Main South", "Tatnuck", "Greendale", "Quinsigamond Village"},
		"Springfield": {"Forest Park", "Indian Orchard", "Sixteen Acres"},
	},
	"RI": {
		"Providence": {
			"College Hill", "Federal Hill", "Fox Point", "Mount Hope",
			"Olneyville", "Smith Hill", "Wayland Square", "West End",
		},
	},
	"CT": {
		"Hartford":  {"Asylum Hill", "Frog Hollow", "West End", "South End"},
		"New Haven": {"East Rock", "Westville", "Wooster Square", "Fair Haven"},
	},
}

// propertyTypeLabels translates UI property-type codes into the display
// strings stored on listings.
var propertyTypeLabels = map[string]string{
	"single_family": "Single Family",
	"multi_family":  "Multi Family",
	"condo":         "Condominium",
	"townhouse":     "Townhouse",
	"apartment":     "Apartment",
	"land":          "Land",
	"commercial":    "Commercial",
	"mobile_home":   "Mobile Home",
	"rental":        "Rental",
}

// TownsForState returns the de-duplicated union of every town across all
// counties of the state, in county-then-table order.
func TownsForState(stateCode string) []string {
	counties, ok := countyTowns[stateCode]
	if !ok {
		return nil
	}

	// Counties iterate in sorted-name order so expansion is deterministic.
	names := make([]string, 0, len(counties))
	for name := range counties {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := make(map[string]bool)
	var towns []string
	for _, name := range names {
		for _, town := range counties[name] {
			if !seen[town] {
				seen[town] = true
				towns = append(towns, town)
			}
		}
	}
	return towns
}

// CountyNames lists the counties known for a state.
func CountyNames(stateCode string) []string {
	counties, ok := countyTowns[stateCode]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(counties))
	for name := range counties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
