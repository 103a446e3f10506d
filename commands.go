package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tournevent/skynet/pkg/skynet"
	"go.uber.org/zap"
)

type globalOptions struct {
	envFile string
}

// paramOptions collects a kebab-case parameter mapping from flags.
// Pairs given with --param override keys read from --params-file.
type paramOptions struct {
	pairs []string
	file  string
}

func (o *paramOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.pairs, "param", "p", nil, "parameter as key=value (repeatable)")
	cmd.Flags().StringVar(&o.file, "params-file", "", "JSON object file with parameters")
}

func (o *paramOptions) params() (skynet.Params, error) {
	p := skynet.Params{}

	if o.file != "" {
		data, err := os.ReadFile(o.file)
		if err != nil {
			return nil, fmt.Errorf("reading params file: %w", err)
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&p); err != nil {
			return nil, fmt.Errorf("parsing params file %s: %w", o.file, err)
		}
		if p == nil {
			p = skynet.Params{}
		}
	}

	for _, pair := range o.pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", pair)
		}
		p[key] = value
	}
	return p, nil
}

// operationFunc runs one Skynet call with a ready client.
type operationFunc func(ctx context.Context, client *skynet.Client) (*skynet.Response, error)

// runOperation runs fn with a client built from config and prints the response body.
func runOperation(cmd *cobra.Command, opts *globalOptions, fn operationFunc) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	resp, err := fn(ctx, newClient(cfg, logger))
	if err != nil {
		return err
	}
	return writeResponse(cmd.OutOrStdout(), resp)
}

// writeResponse prints the raw body. A non-2xx status is reported as an error.
func writeResponse(w io.Writer, resp *skynet.Response) error {
	body := resp.Body()
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	if _, err := io.WriteString(w, body); err != nil {
		return err
	}
	if !resp.Successful() {
		return fmt.Errorf("skynet answered %s", resp)
	}
	return nil
}

func newTokenCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Request a security token with the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, func(ctx context.Context, client *skynet.Client) (*skynet.Response, error) {
				return client.SecurityToken(ctx)
			})
		},
	}
}

// newParamsCmd builds a command that passes its --param mapping to op.
func newParamsCmd(opts *globalOptions, use, short, op string) *cobra.Command {
	po := &paramOptions{}
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := po.params()
			if err != nil {
				return err
			}
			return runOperation(cmd, opts, func(ctx context.Context, client *skynet.Client) (*skynet.Response, error) {
				return client.Invoke(ctx, op, p)
			})
		},
	}
	po.register(cmd)
	return cmd
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return newParamsCmd(opts, "validate", "Validate a suburb and postal code pair (suburb, postal-code)", skynet.OpValidateSuburb)
}

func newQuoteCmd(opts *globalOptions) *cobra.Command {
	return newParamsCmd(opts, "quote", "Get a quote for a single parcel", skynet.OpQuote)
}

func newETACmd(opts *globalOptions) *cobra.Command {
	return newParamsCmd(opts, "eta", "Get the delivery ETA between two locations", skynet.OpDeliveryETA)
}

func newPostalCodesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "postal-codes <suburb>",
		Short: "List postal codes for a suburb",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, func(ctx context.Context, client *skynet.Client) (*skynet.Response, error) {
				return client.PostalCodesFromSuburb(ctx, args[0])
			})
		},
	}
}

func newWaybillCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waybill",
		Short: "Create waybills and fetch proof of delivery",
	}

	cmd.AddCommand(
		newParamsCmd(opts, "create", "Create a waybill for a single parcel", skynet.OpCreateWaybill),
		&cobra.Command{
			Use:   "pod <waybill-number>",
			Short: "Fetch the proof of delivery for a waybill",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOperation(cmd, opts, func(ctx context.Context, client *skynet.Client) (*skynet.Response, error) {
					return client.WaybillPOD(ctx, args[0])
				})
			},
		},
	)
	return cmd
}

func newTrackCmd(opts *globalOptions) *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "track <waybill-number>...",
		Short: "Track one or more waybills",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd, opts, args, concurrency)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "parallel tracking requests (default SKYNET_TRACK_CONCURRENCY)")
	return cmd
}

func runTrack(cmd *cobra.Command, opts *globalOptions, numbers []string, concurrency int) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.TrackConcurrency
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	results := newClient(cfg, logger).TrackWaybills(ctx, numbers, concurrency)
	if err := skynet.FirstError(results); err != nil {
		return err
	}

	var failed error
	for _, r := range results {
		if err := writeResponse(cmd.OutOrStdout(), r.Response); err != nil && failed == nil {
			failed = fmt.Errorf("waybill %s: %w", r.WaybillNumber, err)
		}
	}
	return failed
}
