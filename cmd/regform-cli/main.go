package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	regform "github.com/goliatone/go-regform"
	"github.com/goliatone/go-regform/internal/config"
	"github.com/goliatone/go-regform/internal/logging"
	"github.com/goliatone/go-regform/internal/metrics"
	"github.com/goliatone/go-regform/pkg/form"
	"github.com/goliatone/go-regform/pkg/messages"
	"github.com/goliatone/go-regform/pkg/model"
	"github.com/goliatone/go-regform/pkg/renderers/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	case errors.Is(err, tui.ErrAborted), errors.Is(err, context.Canceled):
		os.Exit(130)
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger := logging.New(stderr, cfg.Env, cfg.LogLevel)
	for _, warning := range cfg.Warnings {
		logger.Warn().Msg(warning)
	}
	if cfg.EnvFile != "" {
		logger.Debug().Str("path", cfg.EnvFile).Msg("loaded .env")
	}

	catalog, err := messages.LoadFile(cfg.MessagesPath)
	if err != nil {
		return err
	}

	recorder := metrics.New()
	controller, err := regform.New(
		regform.WithCatalog(catalog),
		regform.WithLookupURL(cfg.LookupURL),
		regform.WithRegisterURL(cfg.RegisterURL),
		regform.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		regform.WithLogger(logger),
		regform.WithRecorder(recorder),
	)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	stopMetrics := func() {}
	if cfg.MetricsAddr != "" {
		srv, ln, err := listenMetrics(cfg.MetricsAddr, recorder)
		if err != nil {
			return err
		}
		logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics: %w", err)
			}
			return nil
		})
		stopMetrics = func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
	}

	g.Go(func() error {
		defer stopMetrics()
		if cfg.InputPath != "" {
			return runBatch(gctx, controller, cfg.InputPath, stdin, stdout, logger)
		}
		return runInteractive(gctx, controller, stdout, logger)
	})
	return g.Wait()
}

func runInteractive(ctx context.Context, controller *form.Controller, stdout io.Writer, logger zerolog.Logger) error {
	runner, err := tui.New(controller,
		tui.WithOutput(stdout),
		tui.WithLogger(logger),
		tui.WithTheme(tui.Theme{ErrorPrefix: "✗ ", InfoPrefix: "› "}),
	)
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}

func listenMetrics(addr string, m *metrics.Metrics) (*http.Server, net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: listen %s: %w", addr, err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}, ln, nil
}

// batchResult is printed to stdout after a non-interactive submission.
type batchResult struct {
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
	FormErrors []string          `json:"form_errors,omitempty"`
}

// runBatch fills the form from a JSON object (path "-" reads stdin), resolves
// the zipcode when address or city are missing, and submits once.
func runBatch(ctx context.Context, controller *form.Controller, path string, stdin io.Reader, stdout io.Writer, logger zerolog.Logger) error {
	raw, err := readRecord(path, stdin)
	if err != nil {
		return err
	}

	for field, value := range raw {
		if !model.IsField(field) {
			logger.Warn().Str("field", field).Msg("ignoring unknown field")
			continue
		}
		if err := controller.SetValue(field, value); err != nil {
			return err
		}
	}

	zipcode, _ := raw[model.FieldZipcode].(string)
	if zipcode != "" && (blank(raw[model.FieldAddress]) || blank(raw[model.FieldCity])) {
		if err := controller.ChangeZipcode(ctx, zipcode); err != nil {
			logger.Warn().Err(err).Msg("zipcode lookup failed")
		}
	}

	submitErr := controller.SubmitCurrent(ctx)

	result := batchResult{Status: "ok"}
	var validationErr *form.ValidationError
	switch {
	case submitErr == nil:
		note, _ := controller.LastNotification()
		result.Message = note.Text
	case errors.As(submitErr, &validationErr):
		result.Status = "invalid"
		result.Errors = validationErr.Errors
	default:
		note, _ := controller.LastNotification()
		result.Status = "rejected"
		result.Message = note.Text
		result.Errors = controller.Errors()
		result.FormErrors = note.FormErrors
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return err
	}
	return submitErr
}

func readRecord(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return raw, nil
}

func blank(v any) bool {
	s, ok := v.(string)
	return !ok || s == ""
}
