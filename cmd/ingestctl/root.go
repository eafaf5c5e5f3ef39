package main

import (
	"errors"
	"strings"
	"sync"

	"github.com/JonMunkholm/batchingest/internal/config"
	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type commandContext struct {
	envFile  string
	tenantID string
	schoolID string
	eventID  string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "ingestctl",
		Short:         "Upload participant media and import participant lists",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.envFile, "env-file", "", "Environment file to load before reading configuration")
	flags.StringVar(&ctx.tenantID, "tenant", "", "Tenant ID")
	flags.StringVar(&ctx.schoolID, "school", "", "School ID")
	flags.StringVar(&ctx.eventID, "event", "", "Event ID")

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newUploadCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newListCommand(ctx))
	rootCmd.AddCommand(newAssignCodeCommand(ctx))

	return rootCmd
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(c.envFile); path != "" {
			if err := godotenv.Load(path); err != nil {
				c.configErr = err
				return
			}
		} else {
			_ = godotenv.Load()
		}
		c.config, c.configErr = config.Load()
	})
	return c.config, c.configErr
}

// scope returns the import scope from the flags, failing when any part is
// missing.
func (c *commandContext) scope() (core.ImportScope, error) {
	scope := core.ImportScope{
		TenantID: strings.TrimSpace(c.tenantID),
		SchoolID: strings.TrimSpace(c.schoolID),
		EventID:  strings.TrimSpace(c.eventID),
	}
	if scope.TenantID == "" || scope.SchoolID == "" || scope.EventID == "" {
		return core.ImportScope{}, errors.New("--tenant, --school and --event are required")
	}
	return scope, nil
}

func (c *commandContext) filter() (core.EntityFilter, error) {
	scope, err := c.scope()
	if err != nil {
		return core.EntityFilter{}, err
	}
	return core.EntityFilter{TenantID: scope.TenantID, SchoolID: scope.SchoolID, EventID: scope.EventID}, nil
}
