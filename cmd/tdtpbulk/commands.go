package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ruslano69/tdtp-bulk/pkg/adapters"
	"github.com/ruslano69/tdtp-bulk/pkg/bulk"
)

func newMinRowVersionCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "minrowversion",
		Short: "Print the lowest active row version of the database",
		Long: `Rows with a version below the printed value are committed and will not change,
so it is a safe upper bound for incremental exports.
Supported by MS SQL Server (MIN_ACTIVE_ROWVERSION) and PostgreSQL (snapshot xmin).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			return runMinRowVersion(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func runMinRowVersion(ctx context.Context, cfg *Config, out io.Writer) error {
	db, err := openDB(ctx, cfg, bulk.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	defer db.Close(context.WithoutCancel(ctx))

	s, err := db.Session(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	v, err := bulk.MinActiveRowVersion(ctx, s)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\t%d\n", v, uint64(v))
	return nil
}

func newInitCmd() *cobra.Command {
	var (
		dbType string
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := CreateSampleConfig(dbType)
			if err != nil {
				return err
			}
			if err := SaveConfig(output, cfg, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config template for %s written to %s\n", cfg.Database.Type, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbType, "type", "sqlite", fmt.Sprintf("database type %v", adapters.GetRegisteredTypes()))
	cmd.Flags().StringVarP(&output, "output", "o", "tdtpbulk.yaml", "config file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}
