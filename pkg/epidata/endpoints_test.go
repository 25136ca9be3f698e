package epidata

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// endpointCase drives one endpoint with a rejected and an accepted query.
type endpointCase struct {
	source  string
	invalid func(c *Client, done Completion) error
	message string
	valid   func(c *Client, done Completion) error
	want    map[string]string
}

func endpointCases(ctx context.Context) []endpointCase {
	weeks := Of(NewRange(201440, 201501))
	return []endpointCase{
		{
			source:  SourceFluview,
			invalid: func(c *Client, d Completion) error { return c.Fluview(ctx, FluviewQuery{Regions: Values("nat")}, d) },
			message: "`regions` and `epiweeks` are both required",
			valid: func(c *Client, d Completion) error {
				return c.Fluview(ctx, FluviewQuery{Regions: Values("nat", "hhs1"), Epiweeks: weeks, Lag: Int(2), Auth: "tok"}, d)
			},
			want: map[string]string{"source": "fluview", "regions": "nat,hhs1", "epiweeks": "201440-201501", "lag": "2", "auth": "tok"},
		},
		{
			source: SourceFluviewClinical,
			invalid: func(c *Client, d Completion) error {
				return c.FluviewClinical(ctx, FluviewClinicalQuery{Epiweeks: weeks}, d)
			},
			message: "`regions` and `epiweeks` are both required",
			valid: func(c *Client, d Completion) error {
				return c.FluviewClinical(ctx, FluviewClinicalQuery{Regions: Values("nat"), Epiweeks: weeks, Issues: Values(201501)}, d)
			},
			want: map[string]string{"source": "fluview_clinical", "regions": "nat", "epiweeks": "201440-201501", "issues": "201501"},
		},
		{
			source:  SourceFlusurv,
			invalid: func(c *Client, d Completion) error { return c.Flusurv(ctx, FlusurvQuery{}, d) },
			message: "`locations` and `epiweeks` are both required",
			valid: func(c *Client, d Completion) error {
				return c.Flusurv(ctx, FlusurvQuery{Locations: Values("ca"), Epiweeks: Values(201501)}, d)
			},
			want: map[string]string{"source": "flusurv", "locations": "ca", "epiweeks": "201501"},
		},
		{
			source:  SourceGFT,
			invalid: func(c *Client, d Completion) error { return c.GFT(ctx, GFTQuery{Locations: Values("nat")}, d) },
			message: "`locations` and `epiweeks` are both required",
			valid: func(c *Client, d Completion) error {
				return c.GFT(ctx, GFTQuery{Locations: Values("nat"), Epiweeks: weeks}, d)
			},
			want: map[string]string{"source": "gft", "locations": "nat", "epiweeks": "201440-201501"},
		},
		{
			source: SourceGHT,
			invalid: func(c *Client, d Completion) error {
				return c.GHT(ctx, GHTQuery{Auth: "tok", Locations: Values("US"), Epiweeks: weeks}, d)
			},
			message: "`auth`, `locations`, `epiweeks`, and `query` are all required",
			valid: func(c *Client, d Completion) error {
				return c.GHT(ctx, GHTQuery{Auth: "tok", Locations: Values("US"), Epiweeks: weeks, Query: "/m/0cycc"}, d)
			},
			want: map[string]string{"source": "ght", "auth": "tok", "locations": "US", "epiweeks": "201440-201501", "query": "/m/0cycc"},
		},
		{
			source:  SourceTwitter,
			invalid: func(c *Client, d Completion) error { return c.Twitter(ctx, TwitterQuery{Auth: "tok"}, d) },
			message: "`auth` and `locations` are both required",
			valid: func(c *Client, d Completion) error {
				return c.Twitter(ctx, TwitterQuery{Auth: "tok", Locations: Values("nat"), Dates: Of(NewRange(20150105, 20150101))}, d)
			},
			want: map[string]string{"source": "twitter", "auth": "tok", "locations": "nat", "dates": "20150101-20150105"},
		},
		{
			source:  SourceWiki,
			invalid: func(c *Client, d Completion) error { return c.Wiki(ctx, WikiQuery{Epiweeks: weeks}, d) },
			message: "`articles` is required",
			valid: func(c *Client, d Completion) error {
				return c.Wiki(ctx, WikiQuery{Articles: Values("influenza"), Epiweeks: weeks, Hours: Values(0, 12)}, d)
			},
			want: map[string]string{"source": "wiki", "articles": "influenza", "epiweeks": "201440-201501", "hours": "0,12"},
		},
		{
			source:  SourceCDC,
			invalid: func(c *Client, d Completion) error { return c.CDC(ctx, CDCQuery{Epiweeks: weeks, Locations: Values("nat")}, d) },
			message: "`auth`, `epiweeks`, and `locations` are all required",
			valid: func(c *Client, d Completion) error {
				return c.CDC(ctx, CDCQuery{Auth: "tok", Epiweeks: weeks, Locations: Values("nat")}, d)
			},
			want: map[string]string{"source": "cdc", "auth": "tok", "epiweeks": "201440-201501", "locations": "nat"},
		},
		{
			source:  SourceQuidel,
			invalid: func(c *Client, d Completion) error { return c.Quidel(ctx, QuidelQuery{Auth: "tok"}, d) },
			message: "`auth`, `epiweeks`, and `locations` are all required",
			valid: func(c *Client, d Completion) error {
				return c.Quidel(ctx, QuidelQuery{Auth: "tok", Epiweeks: weeks, Locations: Values("hhs1")}, d)
			},
			want: map[string]string{"source": "quidel", "auth": "tok", "epiweeks": "201440-201501", "locations": "hhs1"},
		},
		{
			source:  SourceNorostat,
			invalid: func(c *Client, d Completion) error { return c.Norostat(ctx, NorostatQuery{Auth: "tok", Epiweeks: weeks}, d) },
			message: "`auth`, `location`, and `epiweeks` are all required",
			valid: func(c *Client, d Completion) error {
				return c.Norostat(ctx, NorostatQuery{Auth: "tok", Location: "Minnesota, Ohio", Epiweeks: weeks}, d)
			},
			want: map[string]string{"source": "norostat", "auth": "tok", "location": "Minnesota, Ohio", "epiweeks": "201440-201501"},
		},
		{
			source:  SourceMetaNorostat,
			invalid: func(c *Client, d Completion) error { return c.MetaNorostat(ctx, "", d) },
			message: "`auth` is required",
			valid:   func(c *Client, d Completion) error { return c.MetaNorostat(ctx, "tok", d) },
			want:    map[string]string{"source": "meta_norostat", "auth": "tok"},
		},
		{
			source: SourceAFHSB,
			invalid: func(c *Client, d Completion) error {
				return c.AFHSB(ctx, AFHSBQuery{Auth: "tok", Locations: Values("hhs1"), Epiweeks: weeks}, d)
			},
			message: "`auth`, `locations`, `epiweeks` and `flu_types` are all required",
			valid: func(c *Client, d Completion) error {
				return c.AFHSB(ctx, AFHSBQuery{Auth: "tok", Locations: Values("hhs1"), Epiweeks: weeks, FluTypes: Values("flu1", "flu2-flu1")}, d)
			},
			want: map[string]string{"source": "afhsb", "auth": "tok", "locations": "hhs1", "epiweeks": "201440-201501", "flu_types": "flu1,flu2-flu1"},
		},
		{
			source:  SourceMetaAFHSB,
			invalid: func(c *Client, d Completion) error { return c.MetaAFHSB(ctx, "", d) },
			message: "`auth` is required",
			valid:   func(c *Client, d Completion) error { return c.MetaAFHSB(ctx, "tok", d) },
			want:    map[string]string{"source": "meta_afhsb", "auth": "tok"},
		},
		{
			source:  SourceNIDSSFlu,
			invalid: func(c *Client, d Completion) error { return c.NIDSSFlu(ctx, NIDSSFluQuery{Regions: Values("taipei")}, d) },
			message: "`regions` and `epiweeks` are both required",
			valid: func(c *Client, d Completion) error {
				return c.NIDSSFlu(ctx, NIDSSFluQuery{Regions: Values("taipei"), Epiweeks: weeks}, d)
			},
			want: map[string]string{"source": "nidss_flu", "regions": "taipei", "epiweeks": "201440-201501"},
		},
		{
			source:  SourceNIDSSDengue,
			invalid: func(c *Client, d Completion) error { return c.NIDSSDengue(ctx, NIDSSDengueQuery{Epiweeks: weeks}, d) },
			message: "`locations` and `epiweeks` are both required",
			valid: func(c *Client, d Completion) error {
				return c.NIDSSDengue(ctx, NIDSSDengueQuery{Locations: Values("taipei"), Epiweeks: weeks}, d)
			},
			want: map[string]string{"source": "nidss_dengue", "locations": "taipei", "epiweeks": "201440-201501"},
		},
		{
			source:  SourceDelphi,
			invalid: func(c *Client, d Completion) error { return c.Delphi(ctx, DelphiQuery{System: "ec"}, d) },
			message: "`system` and `epiweek` are both required",
			valid: func(c *Client, d Completion) error {
				return c.Delphi(ctx, DelphiQuery{System: "ec", Epiweek: 201501}, d)
			},
			want: map[string]string{"source": "delphi", "system": "ec", "epiweek": "201501"},
		},
		{
			source: SourceSensors,
			invalid: func(c *Client, d Completion) error {
				return c.Sensors(ctx, SensorsQuery{Names: Values("sar3"), Locations: Values("nat"), Epiweeks: weeks}, d)
			},
			message: "`auth`, `names`, `locations`, and `epiweeks` are all required",
			valid: func(c *Client, d Completion) error {
				return c.Sensors(ctx, SensorsQuery{Auth: "tok", Names: Values("sar3", "arch"), Locations: Values("nat"), Epiweeks: weeks}, d)
			},
			want: map[string]string{"source": "sensors", "auth": "tok", "names": "sar3,arch", "locations": "nat", "epiweeks": "201440-201501"},
		},
		{
			source:  SourceNowcast,
			invalid: func(c *Client, d Completion) error { return c.Nowcast(ctx, NowcastQuery{Locations: Values("nat")}, d) },
			message: "`locations` and `epiweeks` are both required",
			valid: func(c *Client, d Completion) error {
				return c.Nowcast(ctx, NowcastQuery{Locations: Values("nat"), Epiweeks: Values(201501)}, d)
			},
			want: map[string]string{"source": "nowcast", "locations": "nat", "epiweeks": "201501"},
		},
		{
			source: SourceCovidcast,
			invalid: func(c *Client, d Completion) error {
				return c.Covidcast(ctx, CovidcastQuery{DataSource: "fb-survey", Signal: "smoothed_cli", TimeType: "day", GeoType: "county", GeoValue: "06001"}, d)
			},
			message: "`data_source`, `signal`, `time_type`, `geo_type`, `time_values`, and `geo_value` are all required",
			valid: func(c *Client, d Completion) error {
				return c.Covidcast(ctx, CovidcastQuery{
					DataSource: "fb-survey", Signal: "smoothed_cli", TimeType: "day", GeoType: "county",
					TimeValues: Of(NewRange(20200415, 20200401)), GeoValue: "*", AsOf: Int(20200501),
				}, d)
			},
			want: map[string]string{
				"source": "covidcast", "data_source": "fb-survey", "signal": "smoothed_cli", "time_type": "day",
				"geo_type": "county", "time_values": "20200401-20200415", "geo_value": "*", "as_of": "20200501",
			},
		},
	}
}

func TestEndpointValidation(t *testing.T) {
	Convey("Given a client on a recording transport", t, func() {
		ctx := context.Background()
		rt := &recordingTransport{env: successEnvelope()}
		c := New(WithTransport(rt))

		for _, tc := range endpointCases(ctx) {
			Convey("When "+tc.source+" is missing a required parameter", func() {
				called := false
				err := tc.invalid(c, func(int, string, json.RawMessage) { called = true })

				Convey("Then it should fail synchronously with the literal message", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldEqual, tc.message)
					So(errors.Is(err, ErrValidation), ShouldBeTrue)

					var ve *ValidationError
					So(errors.As(err, &ve), ShouldBeTrue)
					So(ve.Source, ShouldEqual, tc.source)
				})

				Convey("Then nothing should reach the transport", func() {
					So(rt.calls(), ShouldEqual, 0)
					So(called, ShouldBeFalse)
				})
			})

			Convey("When "+tc.source+" is given a complete query", func() {
				done, out := Collect()
				err := tc.valid(c, done)
				resp, ok := await(out)

				Convey("Then exactly the expected parameters should be sent", func() {
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
					So(resp.Result, ShouldEqual, ResultSuccess)
					So(rt.calls(), ShouldEqual, 1)

					sent := rt.last()
					So(len(sent), ShouldEqual, len(tc.want))
					for k, v := range tc.want {
						So(sent.Get(k), ShouldEqual, v)
					}
				})
			})
		}
	})
}

func TestExclusiveParameters(t *testing.T) {
	Convey("Given a client on a recording transport", t, func() {
		ctx := context.Background()
		rt := &recordingTransport{env: successEnvelope()}
		c := New(WithTransport(rt))
		noop := func(int, string, json.RawMessage) {}
		weeks := Values(201501)

		Convey("When issues and lag are both given", func() {
			errs := []error{
				c.Fluview(ctx, FluviewQuery{Regions: Values("nat"), Epiweeks: weeks, Issues: Values(201505), Lag: Int(1)}, noop),
				c.FluviewClinical(ctx, FluviewClinicalQuery{Regions: Values("nat"), Epiweeks: weeks, Issues: Values(201505), Lag: Int(1)}, noop),
				c.Flusurv(ctx, FlusurvQuery{Locations: Values("ca"), Epiweeks: weeks, Issues: Values(201505), Lag: Int(1)}, noop),
				c.NIDSSFlu(ctx, NIDSSFluQuery{Regions: Values("taipei"), Epiweeks: weeks, Issues: Values(201505), Lag: Int(0)}, noop),
				c.Covidcast(ctx, CovidcastQuery{
					DataSource: "jhu-csse", Signal: "confirmed_incidence_num", TimeType: "day", GeoType: "state",
					TimeValues: Values(20200401), GeoValue: "pa", Issues: Values(20200402), Lag: Int(1),
				}, noop),
			}

			Convey("Then every endpoint should reject them as exclusive", func() {
				for _, err := range errs {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldEqual, "`issues` and `lag` are mutually exclusive")
				}
				So(rt.calls(), ShouldEqual, 0)
			})
		})

		Convey("When neither dates nor epiweeks are given", func() {
			errs := []error{
				c.Twitter(ctx, TwitterQuery{Auth: "tok", Locations: Values("nat")}, noop),
				c.Wiki(ctx, WikiQuery{Articles: Values("fever")}, noop),
			}

			Convey("Then exactly one should be demanded", func() {
				for _, err := range errs {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldEqual, "exactly one of `dates` and `epiweeks` is required")
				}
			})
		})

		Convey("When both dates and epiweeks are given", func() {
			errs := []error{
				c.Twitter(ctx, TwitterQuery{Auth: "tok", Locations: Values("nat"), Dates: Values(20150101), Epiweeks: weeks}, noop),
				c.Wiki(ctx, WikiQuery{Articles: Values("fever"), Dates: Values(20150101), Epiweeks: weeks}, noop),
			}

			Convey("Then the query should be rejected", func() {
				for _, err := range errs {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldEqual, "exactly one of `dates` and `epiweeks` is required")
				}
				So(rt.calls(), ShouldEqual, 0)
			})
		})

		Convey("When only lag is given", func() {
			done, out := Collect()
			err := c.Fluview(ctx, FluviewQuery{Regions: Values("nat"), Epiweeks: weeks, Lag: Int(0)}, done)
			_, ok := await(out)

			Convey("Then lag zero should still be sent", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(rt.last().Get("lag"), ShouldEqual, "0")
				So(rt.last().Has("issues"), ShouldBeFalse)
			})
		})
	})
}

func TestParameterlessEndpoints(t *testing.T) {
	Convey("Given the metadata endpoints without parameters", t, func() {
		ctx := context.Background()
		rt := &recordingTransport{env: successEnvelope()}
		c := New(WithTransport(rt))

		calls := map[string]func(Completion) error{
			SourceFluviewMeta:   func(d Completion) error { return c.FluviewMeta(ctx, d) },
			SourceMeta:          func(d Completion) error { return c.Meta(ctx, d) },
			SourceCovidcastMeta: func(d Completion) error { return c.CovidcastMeta(ctx, d) },
		}

		for source, call := range calls {
			Convey("When calling "+source, func() {
				done, out := Collect()
				err := call(done)
				_, ok := await(out)

				Convey("Then only the source should be sent", func() {
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
					sent := rt.last()
					So(len(sent), ShouldEqual, 1)
					So(sent.Get("source"), ShouldEqual, source)
				})
			})
		}
	})
}

func TestParams(t *testing.T) {
	Convey("Given a parameter set", t, func() {
		p := NewParams("wiki")

		Convey("When optional values are absent", func() {
			p.SetList("hours", nil).SetOptional("auth", "").SetOptionalInt("lag", nil)

			Convey("Then only the source should be present", func() {
				So(len(p), ShouldEqual, 1)
				So(p.Source(), ShouldEqual, "wiki")
			})
		})

		Convey("When values are set", func() {
			p.Set("auth", "tok").SetInt("epiweek", 201501).SetList("hours", Values(1, 2))

			Convey("Then they should convert to url values", func() {
				v := p.Values()
				So(v.Get("auth"), ShouldEqual, "tok")
				So(v.Get("epiweek"), ShouldEqual, "201501")
				So(v.Get("hours"), ShouldEqual, "1,2")
				So(v.Encode(), ShouldContainSubstring, "hours=1%2C2")
			})
		})
	})
}

// requiredCase is a complete query with exactly one required field blanked.
type requiredCase struct {
	source  string
	field   string
	message string
	q       query
}

// blanking returns one case per entry of clear, each applied to a fresh copy
// of base.
func blanking[Q query](base Q, message string, clear map[string]func(*Q)) []requiredCase {
	cases := make([]requiredCase, 0, len(clear))
	for field, fn := range clear {
		q := base
		fn(&q)
		cases = append(cases, requiredCase{source: base.source(), field: field, message: message, q: q})
	}
	return cases
}

func requiredCases() (bases []query, cases []requiredCase) {
	weeks := Values(201501)
	locs := Values("nat")

	fluview := FluviewQuery{Regions: locs, Epiweeks: weeks}
	clinical := FluviewClinicalQuery{Regions: locs, Epiweeks: weeks}
	flusurv := FlusurvQuery{Locations: locs, Epiweeks: weeks}
	gft := GFTQuery{Locations: locs, Epiweeks: weeks}
	ght := GHTQuery{Auth: "tok", Locations: locs, Epiweeks: weeks, Query: "/m/0cycc"}
	twitter := TwitterQuery{Auth: "tok", Locations: locs, Epiweeks: weeks}
	wiki := WikiQuery{Articles: Values("fever"), Epiweeks: weeks}
	cdc := CDCQuery{Auth: "tok", Epiweeks: weeks, Locations: locs}
	quidel := QuidelQuery{Auth: "tok", Epiweeks: weeks, Locations: locs}
	norostat := NorostatQuery{Auth: "tok", Location: "Minnesota, Ohio", Epiweeks: weeks}
	metaNorostat := authOnlyQuery{src: SourceMetaNorostat, auth: "tok"}
	afhsb := AFHSBQuery{Auth: "tok", Locations: locs, Epiweeks: weeks, FluTypes: Values("flu1")}
	metaAFHSB := authOnlyQuery{src: SourceMetaAFHSB, auth: "tok"}
	nidssFlu := NIDSSFluQuery{Regions: locs, Epiweeks: weeks}
	nidssDengue := NIDSSDengueQuery{Locations: locs, Epiweeks: weeks}
	delphi := DelphiQuery{System: "ec", Epiweek: 201501}
	sensors := SensorsQuery{Auth: "tok", Names: Values("sar3"), Locations: locs, Epiweeks: weeks}
	nowcast := NowcastQuery{Locations: locs, Epiweeks: weeks}
	covidcast := CovidcastQuery{
		DataSource: "fb-survey", Signal: "smoothed_cli", TimeType: "day", GeoType: "county",
		TimeValues: Values(20200401), GeoValue: "06001",
	}

	bases = []query{
		fluview, clinical, flusurv, gft, ght, twitter, wiki, cdc, quidel, norostat, metaNorostat,
		afhsb, metaAFHSB, nidssFlu, nidssDengue, delphi, sensors, nowcast, covidcast,
	}

	for _, group := range [][]requiredCase{
		blanking(fluview, msgRegionsEpiweeks, map[string]func(*FluviewQuery){
			"regions":  func(q *FluviewQuery) { q.Regions = nil },
			"epiweeks": func(q *FluviewQuery) { q.Epiweeks = nil },
		}),
		blanking(clinical, msgRegionsEpiweeks, map[string]func(*FluviewClinicalQuery){
			"regions":  func(q *FluviewClinicalQuery) { q.Regions = nil },
			"epiweeks": func(q *FluviewClinicalQuery) { q.Epiweeks = nil },
		}),
		blanking(flusurv, msgLocationEpiweeks, map[string]func(*FlusurvQuery){
			"locations": func(q *FlusurvQuery) { q.Locations = nil },
			"epiweeks":  func(q *FlusurvQuery) { q.Epiweeks = nil },
		}),
		blanking(gft, msgLocationEpiweeks, map[string]func(*GFTQuery){
			"locations": func(q *GFTQuery) { q.Locations = nil },
			"epiweeks":  func(q *GFTQuery) { q.Epiweeks = nil },
		}),
		blanking(ght, "`auth`, `locations`, `epiweeks`, and `query` are all required", map[string]func(*GHTQuery){
			"auth":      func(q *GHTQuery) { q.Auth = "" },
			"locations": func(q *GHTQuery) { q.Locations = nil },
			"epiweeks":  func(q *GHTQuery) { q.Epiweeks = nil },
			"query":     func(q *GHTQuery) { q.Query = "" },
		}),
		blanking(twitter, "`auth` and `locations` are both required", map[string]func(*TwitterQuery){
			"auth":      func(q *TwitterQuery) { q.Auth = "" },
			"locations": func(q *TwitterQuery) { q.Locations = nil },
		}),
		blanking(wiki, "`articles` is required", map[string]func(*WikiQuery){
			"articles": func(q *WikiQuery) { q.Articles = nil },
		}),
		blanking(cdc, "`auth`, `epiweeks`, and `locations` are all required", map[string]func(*CDCQuery){
			"auth":      func(q *CDCQuery) { q.Auth = "" },
			"epiweeks":  func(q *CDCQuery) { q.Epiweeks = nil },
			"locations": func(q *CDCQuery) { q.Locations = nil },
		}),
		blanking(quidel, "`auth`, `epiweeks`, and `locations` are all required", map[string]func(*QuidelQuery){
			"auth":      func(q *QuidelQuery) { q.Auth = "" },
			"epiweeks":  func(q *QuidelQuery) { q.Epiweeks = nil },
			"locations": func(q *QuidelQuery) { q.Locations = nil },
		}),
		blanking(norostat, "`auth`, `location`, and `epiweeks` are all required", map[string]func(*NorostatQuery){
			"auth":     func(q *NorostatQuery) { q.Auth = "" },
			"location": func(q *NorostatQuery) { q.Location = "" },
			"epiweeks": func(q *NorostatQuery) { q.Epiweeks = nil },
		}),
		blanking(metaNorostat, msgAuthRequired, map[string]func(*authOnlyQuery){
			"auth": func(q *authOnlyQuery) { q.auth = "" },
		}),
		blanking(afhsb, "`auth`, `locations`, `epiweeks` and `flu_types` are all required", map[string]func(*AFHSBQuery){
			"auth":      func(q *AFHSBQuery) { q.Auth = "" },
			"locations": func(q *AFHSBQuery) { q.Locations = nil },
			"epiweeks":  func(q *AFHSBQuery) { q.Epiweeks = nil },
			"flu_types": func(q *AFHSBQuery) { q.FluTypes = nil },
		}),
		blanking(metaAFHSB, msgAuthRequired, map[string]func(*authOnlyQuery){
			"auth": func(q *authOnlyQuery) { q.auth = "" },
		}),
		blanking(nidssFlu, msgRegionsEpiweeks, map[string]func(*NIDSSFluQuery){
			"regions":  func(q *NIDSSFluQuery) { q.Regions = nil },
			"epiweeks": func(q *NIDSSFluQuery) { q.Epiweeks = nil },
		}),
		blanking(nidssDengue, msgLocationEpiweeks, map[string]func(*NIDSSDengueQuery){
			"locations": func(q *NIDSSDengueQuery) { q.Locations = nil },
			"epiweeks":  func(q *NIDSSDengueQuery) { q.Epiweeks = nil },
		}),
		blanking(delphi, "`system` and `epiweek` are both required", map[string]func(*DelphiQuery){
			"system":  func(q *DelphiQuery) { q.System = "" },
			"epiweek": func(q *DelphiQuery) { q.Epiweek = 0 },
		}),
		blanking(sensors, "`auth`, `names`, `locations`, and `epiweeks` are all required", map[string]func(*SensorsQuery){
			"auth":      func(q *SensorsQuery) { q.Auth = "" },
			"names":     func(q *SensorsQuery) { q.Names = nil },
			"locations": func(q *SensorsQuery) { q.Locations = nil },
			"epiweeks":  func(q *SensorsQuery) { q.Epiweeks = nil },
		}),
		blanking(nowcast, msgLocationEpiweeks, map[string]func(*NowcastQuery){
			"locations": func(q *NowcastQuery) { q.Locations = nil },
			"epiweeks":  func(q *NowcastQuery) { q.Epiweeks = nil },
		}),
		blanking(covidcast, "`data_source`, `signal`, `time_type`, `geo_type`, `time_values`, and `geo_value` are all required",
			map[string]func(*CovidcastQuery){
				"data_source": func(q *CovidcastQuery) { q.DataSource = "" },
				"signal":      func(q *CovidcastQuery) { q.Signal = "" },
				"time_type":   func(q *CovidcastQuery) { q.TimeType = "" },
				"geo_type":    func(q *CovidcastQuery) { q.GeoType = "" },
				"time_values": func(q *CovidcastQuery) { q.TimeValues = nil },
				"geo_value":   func(q *CovidcastQuery) { q.GeoValue = "" },
			}),
	} {
		cases = append(cases, group...)
	}
	return bases, cases
}

func TestEveryRequiredField(t *testing.T) {
	Convey("Given complete queries for every parameterized endpoint", t, func() {
		ctx := context.Background()
		rt := &recordingTransport{env: successEnvelope()}
		c := New(WithTransport(rt))
		noop := func(int, string, json.RawMessage) {}
		bases, cases := requiredCases()

		Convey("Then each complete query should pass validation", func() {
			for _, q := range bases {
				So(q.validate(), ShouldBeNil)
			}
		})

		Convey("When each required field is blanked in turn", func() {
			Convey("Then every omission should be rejected before sending", func() {
				So(len(cases), ShouldEqual, 48)
				for _, tc := range cases {
					err := c.call(ctx, tc.q, noop)
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldEqual, tc.message)

					var ve *ValidationError
					So(errors.As(err, &ve), ShouldBeTrue)
					So(ve.Source, ShouldEqual, tc.source)
				}
				So(rt.calls(), ShouldEqual, 0)
			})
		})
	})
}

func TestRejectedInputs(t *testing.T) {
	Convey("Given a client on a recording transport", t, func() {
		ctx := context.Background()
		rt := &recordingTransport{env: successEnvelope()}
		c := New(WithTransport(rt))
		noop := func(int, string, json.RawMessage) {}

		Convey("When no completion handler is given", func() {
			errs := []error{
				c.Meta(ctx, nil),
				c.MetaNorostat(ctx, "tok", nil),
				c.Fluview(ctx, FluviewQuery{Regions: Values("nat"), Epiweeks: Values(201501)}, nil),
			}

			Convey("Then the call should fail synchronously and send nothing", func() {
				for _, err := range errs {
					So(errors.Is(err, ErrValidation), ShouldBeTrue)
					So(err.Error(), ShouldEqual, "a completion handler is required")
				}
				So(rt.calls(), ShouldEqual, 0)
			})
		})

		Convey("When a required list holds only a nil item", func() {
			err := c.Fluview(ctx, FluviewQuery{Regions: Of(nil), Epiweeks: Values(201501)}, noop)

			Convey("Then the query should be rejected", func() {
				So(errors.Is(err, ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "list parameters must not contain nil items")
				So(rt.calls(), ShouldEqual, 0)
			})
		})

		Convey("When an optional list mixes nil with real items", func() {
			err := c.Wiki(ctx, WikiQuery{Articles: Values("fever"), Epiweeks: Values(201501), Hours: Of(Scalar(1), nil)}, noop)

			Convey("Then the query should be rejected", func() {
				So(errors.Is(err, ErrValidation), ShouldBeTrue)
				So(err.Error(), ShouldEqual, "list parameters must not contain nil items")
				So(rt.calls(), ShouldEqual, 0)
			})
		})

		Convey("When Dispatch is given no completion handler", func() {
			c.Dispatch(ctx, nil, NewParams(SourceMeta))

			Convey("Then the request should still run without panicking", func() {
				deadline := time.Now().Add(5 * time.Second)
				for rt.calls() == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				So(rt.calls(), ShouldEqual, 1)
			})
		})
	})
}
