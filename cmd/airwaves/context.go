package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"airwaves/internal/api"
	"airwaves/internal/config"
	"airwaves/internal/daemonrun"
	"airwaves/internal/logging"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
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

func (c *commandContext) apiAddress() string {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		return strings.TrimSpace(*c.apiFlag)
	}
	cfg, err := c.ensureConfig()
	if err != nil || cfg == nil {
		return ""
	}
	return cfg.Paths.APIBind
}

// withClient runs fn against the daemon API, translating connection failures
// into a hint to start the daemon.
func (c *commandContext) withClient(fn func(*api.Client) error) error {
	address := c.apiAddress()
	client, err := api.NewClient(address)
	if err != nil {
		return wrapDialError(err, address)
	}
	if err := fn(client); err != nil {
		return wrapDialError(err, address)
	}
	return nil
}

// withRuntime opens the database and services directly, for --local runs.
func (c *commandContext) withRuntime(fn func(*daemonrun.Runtime, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	rt, err := daemonrun.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt, logger)
}

func wrapDialError(err error, address string) error {
	if !api.IsAPIUnavailable(err) {
		return err
	}
	if strings.TrimSpace(address) == "" {
		return errors.New("connect to daemon: api_bind is not configured")
	}
	return fmt.Errorf("connect to daemon: nothing answered at %s; start it with `airwaves serve` or pass --local", address)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
