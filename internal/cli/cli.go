package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aaron/voicedoc-traffic/internal/chat"
	"github.com/aaron/voicedoc-traffic/internal/config"
	"github.com/aaron/voicedoc-traffic/internal/driver"
)

// App carries the process streams so commands can be exercised in tests.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Sleep  func(time.Duration)
}

// Run parses args and executes the selected command using the process streams.
func Run(args []string) error {
	app := &App{Stdout: os.Stdout, Stderr: os.Stderr, Sleep: time.Sleep}
	return app.Run(args)
}

// Run parses args and executes the selected command. With no command the
// full traffic sequence is sent. Only describe reports failure through its error.
func (a *App) Run(args []string) error {
	opts := &Options{}
	parser := flags.NewParser(opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.SubcommandsOptional = true
	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(a.Stdout, flagsErr.Message)
			return nil
		}
		return err
	}

	if opts.Version {
		fmt.Fprintln(a.Stdout, Version())
		return nil
	}

	logger := a.newLogger(opts.Verbose || config.Debug())
	defer func() { _ = logger.Sync() }()

	baseURL := strings.TrimRight(opts.URL, "/")
	if baseURL == "" {
		baseURL = config.BaseURL()
	}
	client := chat.NewClientWithURL(baseURL, chat.WithLogger(logger))

	command := ""
	if parser.Active != nil {
		command = parser.Active.Name
	}
	switch command {
	case "plan":
		return a.plan()
	case "describe":
		return a.describe(client)
	default:
		a.run(client, logger)
		return nil
	}
}

func (a *App) newLogger(verbose bool) *zap.SugaredLogger {
	if !verbose {
		return zap.NewNop().Sugar()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(a.Stderr),
		zap.DebugLevel,
	)
	return zap.New(core, zap.Development()).Sugar()
}

func (a *App) run(client *chat.Client, logger *zap.SugaredLogger) {
	logger = logger.With("run", uuid.NewString(), "target", client.BaseURL()+config.ChatPath)
	d := driver.New(client, a.Stdout, driver.WithLogger(logger), driver.WithSleep(a.Sleep))
	d.Run(context.Background(), driver.Script())
}

func (a *App) plan() error {
	data, err := driver.PlanYAML(driver.Script())
	if err != nil {
		return fmt.Errorf("render plan: %w", err)
	}
	_, err = a.Stdout.Write(data)
	return err
}

func (a *App) describe(client *chat.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), config.RequestTimeout)
	defer cancel()
	d, err := client.Describe(ctx)
	if err != nil {
		return fmt.Errorf("describe %s: %w", client.BaseURL()+config.ChatPath, err)
	}
	fmt.Fprintf(a.Stdout, "%s %s: %s\n", d.Method, d.Endpoint, d.Status)
	fmt.Fprintf(a.Stdout, "  required: %s\n", strings.Join(d.RequiredFields, ", "))
	if len(d.OptionalFields) > 0 {
		fmt.Fprintf(a.Stdout, "  optional: %s\n", strings.Join(d.OptionalFields, ", "))
	}
	return nil
}
