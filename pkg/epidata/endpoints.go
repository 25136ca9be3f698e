package epidata

import (
	"context"

	"github.com/okian/epidata/pkg/logger"
	"github.com/okian/epidata/pkg/metrics"
)

// call validates q and, on success, dispatches it. Nothing reaches the
// network when validation fails.
func (c *Client) call(ctx context.Context, q query, done Completion) error {
	if err := check(q, done); err != nil {
		metrics.RecordValidationError(q.source())
		c.logger.Debug(ctx, "epidata query rejected",
			logger.Source(q.source()),
			logger.Error(err))
		return err
	}
	c.Dispatch(ctx, done, q.params())
	return nil
}

func check(q query, done Completion) error {
	if done == nil {
		return invalid(q.source(), msgNoCompletion)
	}
	if err := nilItems(q); err != nil {
		return err
	}
	return q.validate()
}

// Fluview fetches FluView (ILINet) data.
func (c *Client) Fluview(ctx context.Context, q FluviewQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// FluviewMeta fetches FluView metadata.
func (c *Client) FluviewMeta(ctx context.Context, done Completion) error {
	return c.call(ctx, sourceOnlyQuery(SourceFluviewMeta), done)
}

// FluviewClinical fetches FluView clinical data.
func (c *Client) FluviewClinical(ctx context.Context, q FluviewClinicalQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Flusurv fetches FluSurv data.
func (c *Client) Flusurv(ctx context.Context, q FlusurvQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// GFT fetches Google Flu Trends data.
func (c *Client) GFT(ctx context.Context, q GFTQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// GHT fetches Google Health Trends data.
func (c *Client) GHT(ctx context.Context, q GHTQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Twitter fetches HealthTweets data.
func (c *Client) Twitter(ctx context.Context, q TwitterQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Wiki fetches Wikipedia access data.
func (c *Client) Wiki(ctx context.Context, q WikiQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// CDC fetches CDC page hits.
func (c *Client) CDC(ctx context.Context, q CDCQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Quidel fetches Quidel data.
func (c *Client) Quidel(ctx context.Context, q QuidelQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Norostat fetches NoroSTAT point data.
func (c *Client) Norostat(ctx context.Context, q NorostatQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// MetaNorostat fetches NoroSTAT metadata.
func (c *Client) MetaNorostat(ctx context.Context, auth string, done Completion) error {
	return c.call(ctx, authOnlyQuery{src: SourceMetaNorostat, auth: auth}, done)
}

// AFHSB fetches AFHSB point data.
func (c *Client) AFHSB(ctx context.Context, q AFHSBQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// MetaAFHSB fetches AFHSB metadata.
func (c *Client) MetaAFHSB(ctx context.Context, auth string, done Completion) error {
	return c.call(ctx, authOnlyQuery{src: SourceMetaAFHSB, auth: auth}, done)
}

// NIDSSFlu fetches NIDSS influenza data.
func (c *Client) NIDSSFlu(ctx context.Context, q NIDSSFluQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// NIDSSDengue fetches NIDSS dengue data.
func (c *Client) NIDSSDengue(ctx context.Context, q NIDSSDengueQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Delphi fetches a Delphi forecast.
func (c *Client) Delphi(ctx context.Context, q DelphiQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Sensors fetches digital surveillance sensor readings.
func (c *Client) Sensors(ctx context.Context, q SensorsQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Nowcast fetches wILI nowcasts.
func (c *Client) Nowcast(ctx context.Context, q NowcastQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// Meta fetches API metadata.
func (c *Client) Meta(ctx context.Context, done Completion) error {
	return c.call(ctx, sourceOnlyQuery(SourceMeta), done)
}

// Covidcast fetches COVID-19 surveillance stream data.
func (c *Client) Covidcast(ctx context.Context, q CovidcastQuery, done Completion) error {
	return c.call(ctx, q, done)
}

// CovidcastMeta fetches COVID-19 surveillance stream metadata.
func (c *Client) CovidcastMeta(ctx context.Context, done Completion) error {
	return c.call(ctx, sourceOnlyQuery(SourceCovidcastMeta), done)
}
