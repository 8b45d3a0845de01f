package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ruslano69/tdtp-bulk/pkg/bulk"
	"github.com/ruslano69/tdtp-bulk/pkg/source"
)

// tablePlaceholder in --then is replaced with the temp table name
const tablePlaceholder = "{{table}}"

// loadOptions - flags of the load command
type loadOptions struct {
	file      string
	sheet     string
	table     string
	unique    bool
	pk        []string
	then      []string
	batchSize int
}

func newLoadCmd(global *globalOptions) *cobra.Command {
	opts := &loadOptions{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a CSV/TSV/XLSX file into a temp table",
		Long: `Load reads the header row to build the table shape: "name (TYPE)" sets the
column type, a trailing " *" marks a key column, plain names are nullable TEXT.

Follow-up statements given with --then run on the same connection after the
load; {{table}} is replaced with the qualified temp table name.`,
		Example: `  tdtpbulk load --file prices.csv --pk sku \
    --then "UPDATE p SET price = t.price FROM products p JOIN {{table}} t ON t.sku = p.sku"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			return runLoad(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "input file (.csv, .tsv, .xlsx)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "XLSX sheet name (default: first sheet)")
	cmd.Flags().StringVarP(&opts.table, "table", "t", "", "temp table base name (default: file name)")
	cmd.Flags().BoolVar(&opts.unique, "unique", true, "append a unique token to the table name")
	cmd.Flags().StringSliceVar(&opts.pk, "pk", nil, "primary key columns in addition to header key markers")
	cmd.Flags().StringArrayVar(&opts.then, "then", nil, "SQL to run after the load, may be repeated")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", 0, "rows per bulk copy operation (overrides config)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// runLoad streams the file into a temp table and runs follow-up statements
func runLoad(ctx context.Context, cfg *Config, opts *loadOptions, out io.Writer) error {
	r, err := source.Open(opts.file, opts.sheet)
	if err != nil {
		return err
	}
	defer r.Close()

	table := opts.table
	if table == "" {
		table = strings.TrimSuffix(filepath.Base(opts.file), filepath.Ext(opts.file))
	}

	et, err := source.Entity(table, r.Header(), opts.pk...)
	if err != nil {
		return err
	}

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

	insertOpts := bulk.DefaultTempTableInsertOptions()
	insertOpts.TempTable.TableName = table
	insertOpts.TempTable.MakeTableNameUnique = opts.unique
	insertOpts.TempTable.TruncateTableIfExists = !opts.unique
	insertOpts.CopyOptions = cfg.Load.CopyOptions()
	if opts.batchSize > 0 {
		insertOpts.BatchSize = opts.batchSize
	}

	records := source.NewRecords(et, r)
	q, err := bulk.InsertIntoTempTableSource(ctx, s, et, records.All(), insertOpts)
	if err != nil {
		return err
	}
	defer q.Close(context.WithoutCancel(ctx))

	if err := records.Err(); err != nil {
		return fmt.Errorf("failed to read %s: %w", opts.file, err)
	}

	log.Info().
		Str("file", opts.file).
		Str("table", q.Name()).
		Int64("rows", q.RowsInserted()).
		Int("keys", len(et.Keys())).
		Msg("file loaded")
	fmt.Fprintf(out, "loaded %d rows into %s\n", q.RowsInserted(), q.Table().QualifiedName())

	for _, stmt := range opts.then {
		stmt = strings.ReplaceAll(stmt, tablePlaceholder, q.Table().QualifiedName())
		res, err := s.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("follow-up statement failed: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			affected = -1
		}
		fmt.Fprintf(out, "%d rows affected\n", affected)
	}
	return nil
}
