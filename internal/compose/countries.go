package compose

// englishSpeakingCountries decides the language screening from the country
// where the participant spent their formative years.
var englishSpeakingCountries = map[string]struct{}{
	"Australia":                            {},
	"New Zealand":                          {},
	"United Kingdom":                       {},
	"United States":                        {},
	"United States Minor Outlying Islands": {},
	"Antigua and Barbuda":                  {},
	"Bahamas":                              {},
	"Ghana":                                {},
	"Nigeria":                              {},
	"Fiji":                                 {},
	"Singapore":                            {},
	"Ireland":                              {},
	"Isle of Man":                          {},
	"Kenya":                                {},
	"Canada":                               {},
	"Grenada":                              {},
	"Philippines":                          {},
	"South Africa":                         {},
	"Belize":                               {},
	"Cook Islands":                         {},
	"Dominica":                             {},
	"Guyana":                               {},
	"Jamaica":                              {},
	"Liberia":                              {},
	"Papua New Guinea":                     {},
	"Saint Kitts and Nevis":                {},
	"Saint Lucia":                          {},
	"Saint Vincent and The Grenadines":     {},
	"Sierra Leone":                         {},
	"American Samoa":                       {},
	"Anguilla":                             {},
	"Bermuda":                              {},
	"British Virgin Islands":               {},
	"Cayman Islands":                       {},
	"Falkland Islands":                     {},
	"Gibraltar":                            {},
	"Guam":                                 {},
	"Jersey":                               {},
	"Norfolk Island":                       {},
	"Pitcairn Islands":                     {},
	"Sint Maarten":                         {},
	"Turks and Caicos Islands":             {},
	"Virgin Islands, British":              {},
	"Virgin Islands, U.S.":                 {},
}

// IsEnglishSpeakingCountry reports whether country is primarily English
// speaking. Matching is exact.
func IsEnglishSpeakingCountry(country string) bool {
	_, ok := englishSpeakingCountries[country]
	return ok
}

// EnglishSpeakingCountries returns the number of listed countries.
func EnglishSpeakingCountries() int {
	return len(englishSpeakingCountries)
}
