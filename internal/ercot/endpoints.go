package ercot

import "sort"

// EndpointSpec describes one ERCOT public-reports endpoint: where it lives,
// which query parameter carries its date filter, and which parameters it
// accepts. Specs are immutable and defined at process start.
type EndpointSpec struct {
	Name            string   `json:"name"`
	DateKey         string   `json:"date_key"`
	URL             string   `json:"url"`
	Summary         string   `json:"summary"`
	Category        string   `json:"category"`
	ValidParameters []string `json:"valid_parameters"`
	DefaultSize     int      `json:"default_size"`
}

// HasParameter reports whether name is accepted by this endpoint.
// Paging parameters are always valid.
func (s EndpointSpec) HasParameter(name string) bool {
	switch name {
	case "size", "offset", "page":
		return true
	}
	for _, p := range s.ValidParameters {
		if p == name {
			return true
		}
	}
	return false
}

const publicReports = "https://api.ercot.com/api/public-reports"

// Parameters accepted by each date-key family. settlementPoint and the posted
// datetime filters only exist on deliveryDate endpoints; SCED endpoints take
// a resourceType filter instead.
var parametersByDateKey = map[string][]string{
	"deliveryDate":   {"deliveryDateFrom", "deliveryDateTo", "settlementPoint", "size", "postedDatetimeFrom", "postedDatetimeTo"},
	"operatingDay":   {"operatingDayFrom", "operatingDayTo", "size"},
	"operatingDate":  {"operatingDateFrom", "operatingDateTo", "size"},
	"SCEDTimestamp":  {"SCEDTimestampFrom", "SCEDTimestampTo", "resourceType", "size"},
	"intervalEnding": {"intervalEndingFrom", "intervalEndingTo", "size"},
}

type endpointDef struct {
	dateKey     string
	path        string
	summary     string
	category    string
	defaultSize int
}

var endpointDefs = map[string]endpointDef{
	// Prices.
	"da_prices":        {"deliveryDate", "/np4-190-cd/dam_stlmnt_pnt_prices", "Day-ahead market settlement point prices (hourly)", "prices", 100000},
	"rt_prices":        {"deliveryDate", "/np6-905-cd/spp_node_zone_hub", "Real-time settlement point prices (5-minute)", "prices", 50000},
	"ancillary_prices": {"deliveryDate", "/np4-188-cd/dam_clear_price_for_cap", "Day-ahead ancillary service clearing prices", "prices", 100000},
	"da_system_lambda": {"deliveryDate", "/np4-523-cd/dam_system_lambda", "Day-ahead system-wide lambda (energy price)", "prices", 100000},
	"rt_system_lambda": {"SCEDTimestamp", "/np6-322-cd/sced_system_lambda", "Real-time SCED system lambda (5-minute)", "prices", 50000},

	// Forecasts.
	"ercot_load_forecast":      {"deliveryDate", "/np3-566-cd/lf_by_model_study_area", "System-wide load forecast by model", "forecasts", 100000},
	"ercot_zone_load_forecast": {"deliveryDate", "/np3-565-cd/lf_by_model_weather_zone", "Weather zone load forecast by model", "forecasts", 100000},
	"solar_system_forecast":    {"deliveryDate", "/np4-737-cd/spp_hrly_avrg_actl_fcast", "System-wide solar generation forecast and actuals", "forecasts", 100000},
	"wind_system_forecast":     {"deliveryDate", "/np4-732-cd/wpp_hrly_avrg_actl_fcast", "System-wide wind generation forecast and actuals", "forecasts", 100000},

	// Actuals.
	"ercot_actual_load": {"operatingDay", "/np6-345-cd/act_sys_load_by_wzn", "Actual system load by weather zone", "actuals", 100000},
	"wind_prod_5min":    {"intervalEnding", "/np4-733-cd/wpp_actual_5min_avg_values", "Actual wind production (5-minute averages)", "actuals", 50000},
	"solar_prod_5min":   {"intervalEnding", "/np4-738-cd/spp_actual_5min_avg_values", "Actual solar production (5-minute averages)", "actuals", 50000},

	// 60-day offers / market data.
	"sixty_dam_energy_only_offers": {"deliveryDate", "/np3-966-er/60_dam_energy_only_offers", "60-day DAM energy-only offers", "market_data", 100000},
	"sixty_dam_awards":             {"deliveryDate", "/np3-966-er/60_dam_energy_only_offer_awards", "60-day DAM energy-only offer awards", "market_data", 100000},
	"energybids":                   {"deliveryDate", "/np3-966-er/60_dam_energy_bids", "60-day DAM energy bids", "market_data", 100000},
	"gen_data":                     {"deliveryDate", "/np3-966-er/60_dam_gen_res_data", "60-day DAM generation resource data (includes virtual awards)", "market_data", 100000},
	"twodayAS":                     {"deliveryDate", "/np3-911-er/2d_agg_as_offers_ecrsm", "2-day aggregated ancillary service offers", "market_data", 100000},
	"sced_gen_data":                {"SCEDTimestamp", "/np3-965-er/60_sced_gen_res_data", "60-day SCED generation resource data", "market_data", 50000},
	"sced_energy_only_offers":      {"deliveryDate", "/np3-966-er/60_dam_energy_only_offers", "60-day SCED energy-only offers", "market_data", 100000},
	"sced_gen_as_data":             {"deliveryDate", "/np3-966-er/60_dam_gen_res_as_offers", "60-day DAM generation resource AS offers", "market_data", 100000},
	"sced_load_data":               {"deliveryDate", "/np3-966-er/60_dam_load_res_data", "60-day DAM load resource data", "market_data", 100000},

	// Other.
	"ercot_outages":       {"operatingDate", "/np3-233-cd/hourly_res_outage_cap", "Hourly resource outage capacity", "other", 100000},
	"binding_constraints": {"deliveryDate", "/np6-86-cd/shdw_prices_bnd_trns_const", "Shadow prices for binding transmission constraints", "other", 100000},
}

// GetEndpoint resolves an endpoint name to its full spec.
func GetEndpoint(name string) (EndpointSpec, bool) {
	def, ok := endpointDefs[name]
	if !ok {
		return EndpointSpec{}, false
	}
	return EndpointSpec{
		Name:            name,
		DateKey:         def.dateKey,
		URL:             publicReports + def.path,
		Summary:         def.summary,
		Category:        def.category,
		ValidParameters: parametersByDateKey[def.dateKey],
		DefaultSize:     def.defaultSize,
	}, true
}

// ValidEndpoint reports whether name is a known endpoint.
func ValidEndpoint(name string) bool {
	_, ok := endpointDefs[name]
	return ok
}

// ListEndpoints returns specs filtered by category ("all" for everything),
// sorted by name for stable output.
func ListEndpoints(category string) []EndpointSpec {
	out := make([]EndpointSpec, 0, len(endpointDefs))
	for name, def := range endpointDefs {
		if category != "all" && category != "" && def.category != category {
			continue
		}
		spec, _ := GetEndpoint(name)
		out = append(out, spec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Categories returns the known endpoint categories, sorted.
func Categories() []string {
	seen := map[string]struct{}{}
	for _, def := range endpointDefs {
		seen[def.category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
