package epidata

import "reflect"

// Validation messages. The text is part of the API: callers match on it.
const (
	msgIssuesLag        = "`issues` and `lag` are mutually exclusive"
	msgDatesEpiweeks    = "exactly one of `dates` and `epiweeks` is required"
	msgRegionsEpiweeks  = "`regions` and `epiweeks` are both required"
	msgLocationEpiweeks = "`locations` and `epiweeks` are both required"
	msgAuthRequired     = "`auth` is required"
	msgNilItem          = "list parameters must not contain nil items"
	msgNoCompletion     = "a completion handler is required"
)

// Data source tags.
const (
	SourceFluview         = "fluview"
	SourceFluviewMeta     = "fluview_meta"
	SourceFluviewClinical = "fluview_clinical"
	SourceFlusurv         = "flusurv"
	SourceGFT             = "gft"
	SourceGHT             = "ght"
	SourceTwitter         = "twitter"
	SourceWiki            = "wiki"
	SourceCDC             = "cdc"
	SourceQuidel          = "quidel"
	SourceNorostat        = "norostat"
	SourceMetaNorostat    = "meta_norostat"
	SourceAFHSB           = "afhsb"
	SourceMetaAFHSB       = "meta_afhsb"
	SourceNIDSSFlu        = "nidss_flu"
	SourceNIDSSDengue     = "nidss_dengue"
	SourceDelphi          = "delphi"
	SourceSensors         = "sensors"
	SourceNowcast         = "nowcast"
	SourceMeta            = "meta"
	SourceCovidcast       = "covidcast"
	SourceCovidcastMeta   = "covidcast_meta"
)

// query is implemented by every endpoint's parameter struct.
type query interface {
	source() string
	validate() error
	params() Params
}

func invalid(source, msg string) error {
	return &ValidationError{Source: source, Msg: msg}
}

// listOf is the reflected type of List fields in query structs.
var listOf = reflect.TypeOf(List(nil))

// nilItems rejects a query whose List fields hold a nil Item.
func nilItems(q query) error {
	v := reflect.ValueOf(q)
	if v.Kind() != reflect.Struct {
		return nil
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Type() != listOf {
			continue
		}
		for j := 0; j < f.Len(); j++ {
			if f.Index(j).IsNil() {
				return invalid(q.source(), msgNilItem)
			}
		}
	}
	return nil
}

// requireAll fails with msg unless every flag is true.
func requireAll(source, msg string, present ...bool) error {
	for _, ok := range present {
		if !ok {
			return invalid(source, msg)
		}
	}
	return nil
}

func exclusiveIssuesLag(source string, issues List, lag *int) error {
	if len(issues) > 0 && lag != nil {
		return invalid(source, msgIssuesLag)
	}
	return nil
}

func exactlyOneDatesEpiweeks(source string, dates, epiweeks List) error {
	if (len(dates) > 0) == (len(epiweeks) > 0) {
		return invalid(source, msgDatesEpiweeks)
	}
	return nil
}

// Int returns a pointer to n, for optional integer fields such as Lag.
func Int(n int) *int { return &n }

// FluviewQuery selects ILINet (FluView) rows.
type FluviewQuery struct {
	Regions  List
	Epiweeks List
	Issues   List
	Lag      *int
	Auth     string
}

func (FluviewQuery) source() string { return SourceFluview }

func (q FluviewQuery) validate() error {
	if err := requireAll(SourceFluview, msgRegionsEpiweeks, len(q.Regions) > 0, len(q.Epiweeks) > 0); err != nil {
		return err
	}
	return exclusiveIssuesLag(SourceFluview, q.Issues, q.Lag)
}

func (q FluviewQuery) params() Params {
	return NewParams(SourceFluview).
		SetList("regions", q.Regions).
		SetList("epiweeks", q.Epiweeks).
		SetList("issues", q.Issues).
		SetOptionalInt("lag", q.Lag).
		SetOptional("auth", q.Auth)
}

// FluviewClinicalQuery selects FluView clinical lab rows.
type FluviewClinicalQuery struct {
	Regions  List
	Epiweeks List
	Issues   List
	Lag      *int
}

func (FluviewClinicalQuery) source() string { return SourceFluviewClinical }

func (q FluviewClinicalQuery) validate() error {
	if err := requireAll(SourceFluviewClinical, msgRegionsEpiweeks, len(q.Regions) > 0, len(q.Epiweeks) > 0); err != nil {
		return err
	}
	return exclusiveIssuesLag(SourceFluviewClinical, q.Issues, q.Lag)
}

func (q FluviewClinicalQuery) params() Params {
	return NewParams(SourceFluviewClinical).
		SetList("regions", q.Regions).
		SetList("epiweeks", q.Epiweeks).
		SetList("issues", q.Issues).
		SetOptionalInt("lag", q.Lag)
}

// FlusurvQuery selects FluSurv hospitalization rows.
type FlusurvQuery struct {
	Locations List
	Epiweeks  List
	Issues    List
	Lag       *int
}

func (FlusurvQuery) source() string { return SourceFlusurv }

func (q FlusurvQuery) validate() error {
	if err := requireAll(SourceFlusurv, msgLocationEpiweeks, len(q.Locations) > 0, len(q.Epiweeks) > 0); err != nil {
		return err
	}
	return exclusiveIssuesLag(SourceFlusurv, q.Issues, q.Lag)
}

func (q FlusurvQuery) params() Params {
	return NewParams(SourceFlusurv).
		SetList("locations", q.Locations).
		SetList("epiweeks", q.Epiweeks).
		SetList("issues", q.Issues).
		SetOptionalInt("lag", q.Lag)
}

// GFTQuery selects Google Flu Trends rows.
type GFTQuery struct {
	Locations List
	Epiweeks  List
}

func (GFTQuery) source() string { return SourceGFT }

func (q GFTQuery) validate() error {
	return requireAll(SourceGFT, msgLocationEpiweeks, len(q.Locations) > 0, len(q.Epiweeks) > 0)
}

func (q GFTQuery) params() Params {
	return NewParams(SourceGFT).
		SetList("locations", q.Locations).
		SetList("epiweeks", q.Epiweeks)
}

// GHTQuery selects Google Health Trends rows.
type GHTQuery struct {
	Auth      string
	Locations List
	Epiweeks  List
	Query     string
}

func (GHTQuery) source() string { return SourceGHT }

func (q GHTQuery) validate() error {
	return requireAll(SourceGHT, "`auth`, `locations`, `epiweeks`, and `query` are all required",
		q.Auth != "", len(q.Locations) > 0, len(q.Epiweeks) > 0, q.Query != "")
}

func (q GHTQuery) params() Params {
	return NewParams(SourceGHT).
		Set("auth", q.Auth).
		SetList("locations", q.Locations).
		SetList("epiweeks", q.Epiweeks).
		Set("query", q.Query)
}

// TwitterQuery selects HealthTweets rows by dates or epiweeks.
type TwitterQuery struct {
	Auth      string
	Locations List
	Dates     List
	Epiweeks  List
}

func (TwitterQuery) source() string { return SourceTwitter }

func (q TwitterQuery) validate() error {
	if err := requireAll(SourceTwitter, "`auth` and `locations` are both required", q.Auth != "", len(q.Locations) > 0); err != nil {
		return err
	}
	return exactlyOneDatesEpiweeks(SourceTwitter, q.Dates, q.Epiweeks)
}

func (q TwitterQuery) params() Params {
	return NewParams(SourceTwitter).
		Set("auth", q.Auth).
		SetList("locations", q.Locations).
		SetList("dates", q.Dates).
		SetList("epiweeks", q.Epiweeks)
}

// WikiQuery selects Wikipedia access counts by dates or epiweeks.
type WikiQuery struct {
	Articles List
	Dates    List
	Epiweeks List
	Hours    List
}

func (WikiQuery) source() string { return SourceWiki }

func (q WikiQuery) validate() error {
	if err := requireAll(SourceWiki, "`articles` is required", len(q.Articles) > 0); err != nil {
		return err
	}
	return exactlyOneDatesEpiweeks(SourceWiki, q.Dates, q.Epiweeks)
}

func (q WikiQuery) params() Params {
	return NewParams(SourceWiki).
		SetList("articles", q.Articles).
		SetList("dates", q.Dates).
		SetList("epiweeks", q.Epiweeks).
		SetList("hours", q.Hours)
}

// CDCQuery selects CDC page hit rows.
type CDCQuery struct {
	Auth      string
	Epiweeks  List
	Locations List
}

func (CDCQuery) source() string { return SourceCDC }

func (q CDCQuery) validate() error {
	return requireAll(SourceCDC, "`auth`, `epiweeks`, and `locations` are all required",
		q.Auth != "", len(q.Epiweeks) > 0, len(q.Locations) > 0)
}

func (q CDCQuery) params() Params {
	return NewParams(SourceCDC).
		Set("auth", q.Auth).
		SetList("epiweeks", q.Epiweeks).
		SetList("locations", q.Locations)
}

// QuidelQuery selects Quidel test rows.
type QuidelQuery struct {
	Auth      string
	Epiweeks  List
	Locations List
}

func (QuidelQuery) source() string { return SourceQuidel }

func (q QuidelQuery) validate() error {
	return requireAll(SourceQuidel, "`auth`, `epiweeks`, and `locations` are all required",
		q.Auth != "", len(q.Epiweeks) > 0, len(q.Locations) > 0)
}

func (q QuidelQuery) params() Params {
	return NewParams(SourceQuidel).
		Set("auth", q.Auth).
		SetList("epiweeks", q.Epiweeks).
		SetList("locations", q.Locations)
}

// NorostatQuery selects NoroSTAT point data for one location.
type NorostatQuery struct {
	Auth     string
	Location string
	Epiweeks List
}

func (NorostatQuery) source() string { return SourceNorostat }

func (q NorostatQuery) validate() error {
	return requireAll(SourceNorostat, "`auth`, `location`, and `epiweeks` are all required",
		q.Auth != "", q.Location != "", len(q.Epiweeks) > 0)
}

func (q NorostatQuery) params() Params {
	return NewParams(SourceNorostat).
		Set("auth", q.Auth).
		Set("location", q.Location).
		SetList("epiweeks", q.Epiweeks)
}

// authOnlyQuery backs the metadata sources that need nothing but a token.
type authOnlyQuery struct {
	src  string
	auth string
}

func (q authOnlyQuery) source() string { return q.src }

func (q authOnlyQuery) validate() error {
	return requireAll(q.src, msgAuthRequired, q.auth != "")
}

func (q authOnlyQuery) params() Params {
	return NewParams(q.src).Set("auth", q.auth)
}

// AFHSBQuery selects AFHSB point data.
type AFHSBQuery struct {
	Auth      string
	Locations List
	Epiweeks  List
	FluTypes  List
}

func (AFHSBQuery) source() string { return SourceAFHSB }

func (q AFHSBQuery) validate() error {
	return requireAll(SourceAFHSB, "`auth`, `locations`, `epiweeks` and `flu_types` are all required",
		q.Auth != "", len(q.Locations) > 0, len(q.Epiweeks) > 0, len(q.FluTypes) > 0)
}

func (q AFHSBQuery) params() Params {
	return NewParams(SourceAFHSB).
		Set("auth", q.Auth).
		SetList("locations", q.Locations).
		SetList("epiweeks", q.Epiweeks).
		SetList("flu_types", q.FluTypes)
}

// NIDSSFluQuery selects Taiwan NIDSS influenza rows.
type NIDSSFluQuery struct {
	Regions  List
	Epiweeks List
	Issues   List
	Lag      *int
}

func (NIDSSFluQuery) source() string { return SourceNIDSSFlu }

func (q NIDSSFluQuery) validate() error {
	if err := requireAll(SourceNIDSSFlu, msgRegionsEpiweeks, len(q.Regions) > 0, len(q.Epiweeks) > 0); err != nil {
		return err
	}
	return exclusiveIssuesLag(SourceNIDSSFlu, q.Issues, q.Lag)
}

func (q NIDSSFluQuery) params() Params {
	return NewParams(SourceNIDSSFlu).
		SetList("regions", q.Regions).
		SetList("epiweeks", q.Epiweeks).
		SetList("issues", q.Issues).
		SetOptionalInt("lag", q.Lag)
}

// NIDSSDengueQuery selects Taiwan NIDSS dengue rows.
type NIDSSDengueQuery struct {
	Locations List
	Epiweeks  List
}

func (NIDSSDengueQuery) source() string { return SourceNIDSSDengue }

func (q NIDSSDengueQuery) validate() error {
	return requireAll(SourceNIDSSDengue, msgLocationEpiweeks, len(q.Locations) > 0, len(q.Epiweeks) > 0)
}

func (q NIDSSDengueQuery) params() Params {
	return NewParams(SourceNIDSSDengue).
		SetList("locations", q.Locations).
		SetList("epiweeks", q.Epiweeks)
}

// DelphiQuery selects one forecast of a Delphi system. Epiweek 0 is absent.
type DelphiQuery struct {
	System  string
	Epiweek int
}

func (DelphiQuery) source() string { return SourceDelphi }

func (q DelphiQuery) validate() error {
	return requireAll(SourceDelphi, "`system` and `epiweek` are both required", q.System != "", q.Epiweek != 0)
}

func (q DelphiQuery) params() Params {
	return NewParams(SourceDelphi).
		Set("system", q.System).
		SetInt("epiweek", q.Epiweek)
}

// SensorsQuery selects digital surveillance sensor readings.
type SensorsQuery struct {
	Auth      string
	Names     List
	Locations List
	Epiweeks  List
}

func (SensorsQuery) source() string { return SourceSensors }

func (q SensorsQuery) validate() error {
	return requireAll(SourceSensors, "`auth`, `names`, `locations`, and `epiweeks` are all required",
		q.Auth != "", len(q.Names) > 0, len(q.Locations) > 0, len(q.Epiweeks) > 0)
}

func (q SensorsQuery) params() Params {
	return NewParams(SourceSensors).
		Set("auth", q.Auth).
		SetList("names", q.Names).
		SetList("locations", q.Locations).
		SetList("epiweeks", q.Epiweeks)
}

// NowcastQuery selects wILI nowcasts.
type NowcastQuery struct {
	Locations List
	Epiweeks  List
}

func (NowcastQuery) source() string { return SourceNowcast }

func (q NowcastQuery) validate() error {
	return requireAll(SourceNowcast, msgLocationEpiweeks, len(q.Locations) > 0, len(q.Epiweeks) > 0)
}

func (q NowcastQuery) params() Params {
	return NewParams(SourceNowcast).
		SetList("locations", q.Locations).
		SetList("epiweeks", q.Epiweeks)
}

// CovidcastQuery selects COVID-19 surveillance stream rows. GeoValue may
// be "*" for every location of GeoType.
type CovidcastQuery struct {
	DataSource string
	Signal     string
	TimeType   string
	GeoType    string
	TimeValues List
	GeoValue   string
	AsOf       *int
	Issues     List
	Lag        *int
}

func (CovidcastQuery) source() string { return SourceCovidcast }

func (q CovidcastQuery) validate() error {
	if err := requireAll(SourceCovidcast,
		"`data_source`, `signal`, `time_type`, `geo_type`, `time_values`, and `geo_value` are all required",
		q.DataSource != "", q.Signal != "", q.TimeType != "", q.GeoType != "",
		len(q.TimeValues) > 0, q.GeoValue != ""); err != nil {
		return err
	}
	return exclusiveIssuesLag(SourceCovidcast, q.Issues, q.Lag)
}

func (q CovidcastQuery) params() Params {
	return NewParams(SourceCovidcast).
		Set("data_source", q.DataSource).
		Set("signal", q.Signal).
		Set("time_type", q.TimeType).
		Set("geo_type", q.GeoType).
		SetList("time_values", q.TimeValues).
		Set("geo_value", q.GeoValue).
		SetOptionalInt("as_of", q.AsOf).
		SetList("issues", q.Issues).
		SetOptionalInt("lag", q.Lag)
}

// sourceOnlyQuery backs the parameterless metadata sources.
type sourceOnlyQuery string

func (q sourceOnlyQuery) source() string { return string(q) }
func (sourceOnlyQuery) validate() error  { return nil }
func (q sourceOnlyQuery) params() Params { return NewParams(string(q)) }
