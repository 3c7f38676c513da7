package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/shipmentmentor/internal/server"
	"github.com/tournevent/shipmentmentor/pkg/shipmentmentor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "shipmentmentor",
	Short:        "Shipment Mentor client - create shipments, post status updates and add trackings",
	Version:      shipmentmentor.Version,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP relay server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Create shipments from JSON payload files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCalls(cmd, func(ctx context.Context, c *shipmentmentor.Client, r io.Reader) (json.RawMessage, error) {
			s, err := shipmentmentor.DecodeShipment(r)
			if err != nil {
				return nil, err
			}
			return c.SendShipment(ctx, s)
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Post shipment status updates from JSON payload files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCalls(cmd, func(ctx context.Context, c *shipmentmentor.Client, r io.Reader) (json.RawMessage, error) {
			u, err := shipmentmentor.DecodeShipmentUpdate(r)
			if err != nil {
				return nil, err
			}
			return c.UpdateShipment(ctx, u)
		})
	},
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Add trackings from JSON payload files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCalls(cmd, func(ctx context.Context, c *shipmentmentor.Client, r io.Reader) (json.RawMessage, error) {
			t, err := shipmentmentor.DecodeTracking(r)
			if err != nil {
				return nil, err
			}
			return c.AddTracking(ctx, t)
		})
	},
}

var validateCmd = &cobra.Command{
	Use:       "validate {shipment|update|tracking}",
	Short:     "Validate a payload and print it with defaults applied",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"shipment", "update", "tracking"},
	RunE:      runValidate,
}

func init() {
	rootCmd.PersistentFlags().String("env", "", `Shipment Mentor environment ("sandbox" or "production"), overrides SHIPMENTMENTOR_ENV`)

	for _, cmd := range []*cobra.Command{sendCmd, updateCmd, trackCmd} {
		cmd.Flags().StringSliceP("file", "f", []string{"-"}, `payload file(s); "-" reads stdin`)
	}
	validateCmd.Flags().StringP("file", "f", "-", `payload file; "-" reads stdin`)

	rootCmd.AddCommand(serveCmd, sendCmd, updateCmd, trackCmd, validateCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setup(cmd, "stdout")
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	a.logger.Info("Starting Shipment Mentor relay",
		zap.Int("port", a.cfg.Port),
		zap.String("version", a.cfg.Version),
		zap.String("environment", string(a.client.Environment())),
	)

	srv := server.New(server.Config{Port: a.cfg.Port}, a.client, a.logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

type callFunc func(ctx context.Context, c *shipmentmentor.Client, r io.Reader) (json.RawMessage, error)

// runCalls performs one independent call per input file, at most
// cfg.Concurrency at a time, and prints each result on its own line in
// input order. Every file is attempted even if another one fails.
func runCalls(cmd *cobra.Command, call callFunc) error {
	ctx := cmd.Context()

	files, err := cmd.Flags().GetStringSlice("file")
	if err != nil {
		return err
	}

	a, err := setup(cmd, "stderr")
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	results := make([]json.RawMessage, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(a.cfg.Concurrency)
	for i, name := range files {
		g.Go(func() error {
			r, closeFn, err := openInput(name, cmd.InOrStdin())
			if err != nil {
				errs[i] = err
				return nil
			}
			defer closeFn()

			results[i], errs[i] = call(ctx, a.client, r)
			if errs[i] != nil {
				errs[i] = fmt.Errorf("%s: %w", name, errs[i])
			}
			return nil
		})
	}
	g.Wait()

	out := cmd.OutOrStdout()
	for i, res := range results {
		if errs[i] == nil {
			fmt.Fprintln(out, string(res))
		}
	}

	if err := errors.Join(errs...); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	name, err := cmd.Flags().GetString("file")
	if err != nil {
		return err
	}

	r, closeFn, err := openInput(name, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeFn()

	normalized, err := validatePayload(args[0], r)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(normalized)
}

func validatePayload(kind string, r io.Reader) (any, error) {
	switch kind {
	case "shipment":
		s, err := shipmentmentor.DecodeShipment(r)
		if err != nil {
			return nil, err
		}
		return shipmentmentor.ValidateShipment(s)
	case "update":
		u, err := shipmentmentor.DecodeShipmentUpdate(r)
		if err != nil {
			return nil, err
		}
		return shipmentmentor.ValidateShipmentUpdate(u)
	case "tracking":
		t, err := shipmentmentor.DecodeTracking(r)
		if err != nil {
			return nil, err
		}
		return shipmentmentor.ValidateTracking(t)
	default:
		return nil, fmt.Errorf("unknown payload kind %q", kind)
	}
}

func openInput(name string, stdin io.Reader) (io.Reader, func() error, error) {
	if name == "-" {
		return stdin, func() error { return nil }, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
