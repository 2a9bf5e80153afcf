package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"drivemover/internal/config"
	"drivemover/internal/logging"
	"drivemover/internal/remote"
	"drivemover/internal/remote/drive115"
	"drivemover/internal/retry"
	"drivemover/internal/session"
)

// newDriveClient builds the remote client; tests swap it for a fake.
var newDriveClient = func(cfg *config.Config, cookie string) remote.Client {
	return drive115.NewFromConfig(cfg, cookie)
}

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// cliLogger reports warnings and errors on stderr for the browsing commands.
func (c *commandContext) cliLogger(w io.Writer) *slog.Logger {
	format := "console"
	if c.config != nil && c.config.Logging.Format != "" {
		format = c.config.Logging.Format
	}
	logger, err := logging.New(logging.Options{Level: "warn", Format: format, Writer: w})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// driveSession wires a client and executor for one-shot commands.
type driveSession struct {
	client remote.Client
	exec   *retry.Executor
	logger *slog.Logger
}

func (c *commandContext) openDrive(cmd *cobra.Command) (*driveSession, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cred, err := session.ResolveCredential(cfg.Remote.Cookie, session.NewFileStore(cfg.CookieFile()))
	if err != nil {
		return nil, err
	}
	logger := c.cliLogger(cmd.ErrOrStderr())
	return &driveSession{
		client: newDriveClient(cfg, cred.Cookie),
		exec:   retry.New(retry.PolicyFromConfig(cfg), logger),
		logger: logger,
	}, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func pathArg(args []string) string {
	if len(args) == 0 {
		return "/"
	}
	return args[0]
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func describeRemote(err error) error {
	if remote.IsAuth(err) {
		return fmt.Errorf("%w\nhint: %s", err, session.RemediationHint)
	}
	return err
}
