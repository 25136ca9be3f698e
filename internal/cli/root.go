// Package cli implements the epidata command: one subcommand per data
// source, each printing the API envelope as JSON.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	service "github.com/okian/epidata/internal/app"
	"github.com/okian/epidata/internal/config"
	"github.com/okian/epidata/pkg/epidata"
	"github.com/okian/epidata/pkg/logger"
	"github.com/spf13/cobra"
)

// ErrRequestFailed is returned when the API answers with a non-positive
// result code. The envelope is still printed.
var ErrRequestFailed = errors.New("epidata request failed")

// Option configures the command tree.
type Option func(*options)

type options struct {
	transport epidata.Transport
}

// WithTransport replaces the HTTP transport used by every subcommand.
func WithTransport(t epidata.Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// flags are the persistent flags shared by every subcommand. Set flags
// override the loaded configuration.
type flags struct {
	baseURL        string
	auth           string
	timeout        time.Duration
	rateLimit      float64
	rateBurst      int64
	logLevel       string
	logFormat      string
	metricsAddr    string
	jaegerEndpoint string
	every          time.Duration
	pretty         bool
}

type runner struct {
	opts  options
	flags flags
	cfg   *config.Config
}

// NewRootCommand builds the epidata command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	r := &runner{}
	for _, opt := range opts {
		opt(&r.opts)
	}

	root := &cobra.Command{
		Use:   "epidata",
		Short: "Query the Delphi Epidata API",
		Long: `Query the Delphi Epidata API.

List flags take comma separated values; a token like 201440-201501 is a
range. Configuration is read from EPIDATA_CONFIG (YAML), a .env file and
EPIDATA_* environment variables; flags take precedence.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&r.flags.baseURL, "base-url", "", "API endpoint (default "+epidata.DefaultBaseURL+")")
	pf.StringVar(&r.flags.auth, "auth", "", "authorization token for restricted sources")
	pf.DurationVar(&r.flags.timeout, "timeout", 0, "per-request timeout, 0 for none")
	pf.Float64Var(&r.flags.rateLimit, "rate-limit", 0, "maximum requests per second, 0 for unlimited")
	pf.Int64Var(&r.flags.rateBurst, "rate-burst", 1, "burst size for --rate-limit")
	pf.StringVar(&r.flags.logLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&r.flags.logFormat, "log-format", "", "text or json")
	pf.StringVar(&r.flags.metricsAddr, "metrics-addr", "", "serve /metrics, /healthz and /stats on this address")
	pf.StringVar(&r.flags.jaegerEndpoint, "jaeger-endpoint", "", "export traces to this Jaeger collector URL")
	pf.DurationVar(&r.flags.every, "every", 0, "repeat the query at this interval until interrupted")
	pf.BoolVar(&r.flags.pretty, "pretty", false, "indent JSON output")

	for _, src := range sources {
		root.AddCommand(r.sourceCommand(src))
	}
	root.AddCommand(r.benchCommand())
	return root
}

// Execute runs the command tree with the given arguments.
func Execute(ctx context.Context, argv []string, stdout, stderr io.Writer, opts ...Option) error {
	root := NewRootCommand(opts...)
	root.SetArgs(argv)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// setup loads configuration, applies flag overrides and initializes logging.
func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}

	f := cmd.Flags()
	if f.Changed("base-url") {
		cfg.BaseURL = r.flags.baseURL
	}
	if f.Changed("auth") {
		cfg.Auth = r.flags.auth
	}
	if f.Changed("timeout") {
		cfg.TimeoutMS = int(r.flags.timeout.Milliseconds())
	}
	if f.Changed("rate-limit") {
		cfg.RateLimit = r.flags.rateLimit
	}
	if f.Changed("rate-burst") {
		cfg.RateBurst = r.flags.rateBurst
	}
	if f.Changed("log-level") {
		cfg.LogLevel = r.flags.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = r.flags.logFormat
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = r.flags.metricsAddr
	}
	if f.Changed("jaeger-endpoint") {
		cfg.JaegerEndpoint = r.flags.jaegerEndpoint
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if r.flags.every < 0 {
		return fmt.Errorf("%w: --every must not be negative", config.ErrInvalidConfig)
	}

	if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	r.cfg = cfg
	return nil
}

func (r *runner) sourceCommand(src source) *cobra.Command {
	lists := make(map[string]*string, len(src.lists))
	strs := make(map[string]*string, len(src.strs))
	ints := make(map[string]*int, len(src.ints))

	cmd := &cobra.Command{
		Use:   src.name,
		Short: src.short,
		Args:  cobra.NoArgs,
	}

	fl := cmd.Flags()
	for _, name := range src.lists {
		lists[name] = fl.String(name, "", "comma separated values or from-to ranges")
	}
	for _, name := range src.strs {
		strs[name] = fl.String(name, "", "")
	}
	for _, name := range src.ints {
		ints[name] = fl.Int(name, 0, "")
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		a := args{
			auth:  r.cfg.Auth,
			lists: make(map[string]epidata.List, len(lists)),
			strs:  make(map[string]string, len(strs)),
			ints:  make(map[string]*int, len(ints)),
		}
		for name, v := range lists {
			a.lists[name] = parseList(*v)
		}
		for name, v := range strs {
			a.strs[name] = *v
		}
		for name, v := range ints {
			if cmd.Flags().Changed(name) {
				a.ints[name] = epidata.Int(*v)
			}
		}
		return r.run(cmd, src, a)
	}
	return cmd
}

// newService builds the application service from the loaded configuration.
func (r *runner) newService() *service.Service {
	svcOpts := []service.Option{
		service.WithConfig(r.cfg),
		service.WithLogger(logger.Named("epidata")),
	}
	if r.opts.transport != nil {
		svcOpts = append(svcOpts, service.WithTransport(r.opts.transport))
	}
	return service.New(svcOpts...)
}

// run starts the service, performs the query once and, with --every,
// keeps repeating it until the context is cancelled.
func (r *runner) run(cmd *cobra.Command, src source, a args) error {
	ctx := cmd.Context()

	svc := r.newService()
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	job := func(ctx context.Context, c *epidata.Client) error {
		resp, err := fetch(ctx, c, src.call, a)
		if err != nil {
			return err
		}
		if err := r.print(cmd.OutOrStdout(), resp); err != nil {
			return err
		}
		if resp.Result <= epidata.ResultUnknown {
			return fmt.Errorf("%w: %d %s", ErrRequestFailed, resp.Result, resp.Message)
		}
		return nil
	}

	err := svc.Run(ctx, src.name, job)
	if r.flags.every == 0 || errors.Is(err, epidata.ErrValidation) {
		return err
	}

	if err := svc.Schedule(ctx, src.name, r.flags.every, job); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// fetch issues one call and blocks until its completion runs.
func fetch(ctx context.Context, c *epidata.Client, call callFunc, a args) (epidata.Response, error) {
	done, out := epidata.Collect()
	if err := call(ctx, c, a, done); err != nil {
		return epidata.Response{}, err
	}
	return <-out, nil
}

func (r *runner) print(w io.Writer, v any) error {
	var (
		b   []byte
		err error
	)
	if r.flags.pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
