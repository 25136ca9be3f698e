package cli

import (
	"context"

	"github.com/okian/epidata/pkg/epidata"
)

// args holds the parsed flags of one source subcommand.
type args struct {
	auth  string
	lists map[string]epidata.List
	strs  map[string]string
	ints  map[string]*int
}

func (a args) list(name string) epidata.List { return a.lists[name] }
func (a args) str(name string) string         { return a.strs[name] }
func (a args) intp(name string) *int          { return a.ints[name] }

func (a args) num(name string) int {
	if p := a.ints[name]; p != nil {
		return *p
	}
	return 0
}

// callFunc issues one endpoint call.
type callFunc func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error

// source describes one subcommand: its flags and the endpoint it drives.
type source struct {
	name  string
	short string
	lists []string
	strs  []string
	ints  []string
	call  callFunc
}

// Flag names shared by several sources.
const (
	flagRegions    = "regions"
	flagEpiweeks   = "epiweeks"
	flagIssues     = "issues"
	flagLag        = "lag"
	flagLocations  = "locations"
	flagDates      = "dates"
	flagArticles   = "articles"
	flagHours      = "hours"
	flagQuery      = "query"
	flagLocation   = "location"
	flagFluTypes   = "flu-types"
	flagSystem     = "system"
	flagEpiweek    = "epiweek"
	flagNames      = "names"
	flagDataSource = "data-source"
	flagSignal     = "signal"
	flagTimeType   = "time-type"
	flagGeoType    = "geo-type"
	flagTimeValues = "time-values"
	flagGeoValue   = "geo-value"
	flagAsOf       = "as-of"
)

var sources = []source{
	{
		name: epidata.SourceFluview, short: "FluView ILINet data",
		lists: []string{flagRegions, flagEpiweeks, flagIssues}, ints: []string{flagLag},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Fluview(ctx, epidata.FluviewQuery{
				Regions: a.list(flagRegions), Epiweeks: a.list(flagEpiweeks),
				Issues: a.list(flagIssues), Lag: a.intp(flagLag), Auth: a.auth,
			}, done)
		},
	},
	{
		name: epidata.SourceFluviewMeta, short: "FluView metadata",
		call: func(ctx context.Context, c *epidata.Client, _ args, done epidata.Completion) error {
			return c.FluviewMeta(ctx, done)
		},
	},
	{
		name: epidata.SourceFluviewClinical, short: "FluView clinical lab data",
		lists: []string{flagRegions, flagEpiweeks, flagIssues}, ints: []string{flagLag},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.FluviewClinical(ctx, epidata.FluviewClinicalQuery{
				Regions: a.list(flagRegions), Epiweeks: a.list(flagEpiweeks),
				Issues: a.list(flagIssues), Lag: a.intp(flagLag),
			}, done)
		},
	},
	{
		name: epidata.SourceFlusurv, short: "FluSurv hospitalization data",
		lists: []string{flagLocations, flagEpiweeks, flagIssues}, ints: []string{flagLag},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Flusurv(ctx, epidata.FlusurvQuery{
				Locations: a.list(flagLocations), Epiweeks: a.list(flagEpiweeks),
				Issues: a.list(flagIssues), Lag: a.intp(flagLag),
			}, done)
		},
	},
	{
		name: epidata.SourceGFT, short: "Google Flu Trends data",
		lists: []string{flagLocations, flagEpiweeks},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.GFT(ctx, epidata.GFTQuery{Locations: a.list(flagLocations), Epiweeks: a.list(flagEpiweeks)}, done)
		},
	},
	{
		name: epidata.SourceGHT, short: "Google Health Trends data (restricted)",
		lists: []string{flagLocations, flagEpiweeks}, strs: []string{flagQuery},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.GHT(ctx, epidata.GHTQuery{
				Auth: a.auth, Locations: a.list(flagLocations), Epiweeks: a.list(flagEpiweeks), Query: a.str(flagQuery),
			}, done)
		},
	},
	{
		name: epidata.SourceTwitter, short: "HealthTweets data (restricted)",
		lists: []string{flagLocations, flagDates, flagEpiweeks},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Twitter(ctx, epidata.TwitterQuery{
				Auth: a.auth, Locations: a.list(flagLocations), Dates: a.list(flagDates), Epiweeks: a.list(flagEpiweeks),
			}, done)
		},
	},
	{
		name: epidata.SourceWiki, short: "Wikipedia access data",
		lists: []string{flagArticles, flagDates, flagEpiweeks, flagHours},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Wiki(ctx, epidata.WikiQuery{
				Articles: a.list(flagArticles), Dates: a.list(flagDates), Epiweeks: a.list(flagEpiweeks), Hours: a.list(flagHours),
			}, done)
		},
	},
	{
		name: epidata.SourceCDC, short: "CDC page hits (restricted)",
		lists: []string{flagEpiweeks, flagLocations},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.CDC(ctx, epidata.CDCQuery{Auth: a.auth, Epiweeks: a.list(flagEpiweeks), Locations: a.list(flagLocations)}, done)
		},
	},
	{
		name: epidata.SourceQuidel, short: "Quidel data (restricted)",
		lists: []string{flagEpiweeks, flagLocations},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Quidel(ctx, epidata.QuidelQuery{Auth: a.auth, Epiweeks: a.list(flagEpiweeks), Locations: a.list(flagLocations)}, done)
		},
	},
	{
		name: epidata.SourceNorostat, short: "NoroSTAT point data (restricted)",
		strs: []string{flagLocation}, lists: []string{flagEpiweeks},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Norostat(ctx, epidata.NorostatQuery{Auth: a.auth, Location: a.str(flagLocation), Epiweeks: a.list(flagEpiweeks)}, done)
		},
	},
	{
		name: epidata.SourceMetaNorostat, short: "NoroSTAT metadata (restricted)",
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.MetaNorostat(ctx, a.auth, done)
		},
	},
	{
		name: epidata.SourceAFHSB, short: "AFHSB point data (restricted)",
		lists: []string{flagLocations, flagEpiweeks, flagFluTypes},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.AFHSB(ctx, epidata.AFHSBQuery{
				Auth: a.auth, Locations: a.list(flagLocations), Epiweeks: a.list(flagEpiweeks), FluTypes: a.list(flagFluTypes),
			}, done)
		},
	},
	{
		name: epidata.SourceMetaAFHSB, short: "AFHSB metadata (restricted)",
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.MetaAFHSB(ctx, a.auth, done)
		},
	},
	{
		name: epidata.SourceNIDSSFlu, short: "NIDSS influenza data",
		lists: []string{flagRegions, flagEpiweeks, flagIssues}, ints: []string{flagLag},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.NIDSSFlu(ctx, epidata.NIDSSFluQuery{
				Regions: a.list(flagRegions), Epiweeks: a.list(flagEpiweeks), Issues: a.list(flagIssues), Lag: a.intp(flagLag),
			}, done)
		},
	},
	{
		name: epidata.SourceNIDSSDengue, short: "NIDSS dengue data",
		lists: []string{flagLocations, flagEpiweeks},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.NIDSSDengue(ctx, epidata.NIDSSDengueQuery{Locations: a.list(flagLocations), Epiweeks: a.list(flagEpiweeks)}, done)
		},
	},
	{
		name: epidata.SourceDelphi, short: "Delphi forecast",
		strs: []string{flagSystem}, ints: []string{flagEpiweek},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Delphi(ctx, epidata.DelphiQuery{System: a.str(flagSystem), Epiweek: a.num(flagEpiweek)}, done)
		},
	},
	{
		name: epidata.SourceSensors, short: "Digital surveillance sensors (restricted)",
		lists: []string{flagNames, flagLocations, flagEpiweeks},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Sensors(ctx, epidata.SensorsQuery{
				Auth: a.auth, Names: a.list(flagNames), Locations: a.list(flagLocations), Epiweeks: a.list(flagEpiweeks),
			}, done)
		},
	},
	{
		name: epidata.SourceNowcast, short: "wILI nowcasts",
		lists: []string{flagLocations, flagEpiweeks},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Nowcast(ctx, epidata.NowcastQuery{Locations: a.list(flagLocations), Epiweeks: a.list(flagEpiweeks)}, done)
		},
	},
	{
		name: epidata.SourceMeta, short: "API metadata",
		call: func(ctx context.Context, c *epidata.Client, _ args, done epidata.Completion) error {
			return c.Meta(ctx, done)
		},
	},
	{
		name: epidata.SourceCovidcast, short: "COVID-19 surveillance streams",
		strs:  []string{flagDataSource, flagSignal, flagTimeType, flagGeoType, flagGeoValue},
		lists: []string{flagTimeValues, flagIssues}, ints: []string{flagAsOf, flagLag},
		call: func(ctx context.Context, c *epidata.Client, a args, done epidata.Completion) error {
			return c.Covidcast(ctx, epidata.CovidcastQuery{
				DataSource: a.str(flagDataSource), Signal: a.str(flagSignal),
				TimeType: a.str(flagTimeType), GeoType: a.str(flagGeoType),
				TimeValues: a.list(flagTimeValues), GeoValue: a.str(flagGeoValue),
				AsOf: a.intp(flagAsOf), Issues: a.list(flagIssues), Lag: a.intp(flagLag),
			}, done)
		},
	},
	{
		name: epidata.SourceCovidcastMeta, short: "COVID-19 surveillance stream metadata",
		call: func(ctx context.Context, c *epidata.Client, _ args, done epidata.Completion) error {
			return c.CovidcastMeta(ctx, done)
		},
	},
}
