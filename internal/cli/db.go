package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/store"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Store maintenance commands",
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the products, batches and invoices tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(config.GetGlobalConfig(), logger)
			if err != nil {
				return err
			}
			defer func() { _ = st.Close() }()

			if migrateErr := st.Migrate(cmd.Context()); migrateErr != nil {
				return migrateErr
			}
			cmd.Println("Store migrated.")
			return nil
		},
	}

	seed := &cobra.Command{
		Use:   "seed <fixture.yaml>",
		Short: "Load products, batches and invoices from a YAML fixture",
		Long: `Migrates the store and inserts every product, batch and invoice declared
in the fixture in a single transaction. Missing IDs are generated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0])
		},
	}

	cmd.AddCommand(migrate, seed)
	return cmd
}

func runSeed(cmd *cobra.Command, path string) error {
	fixture, err := store.LoadFixture(path)
	if err != nil {
		return err
	}

	st, err := openStore(config.GetGlobalConfig(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	if migrateErr := st.Migrate(ctx); migrateErr != nil {
		return migrateErr
	}
	result, err := st.Seed(ctx, fixture)
	if err != nil {
		return fmt.Errorf("seeding %s: %w", path, err)
	}

	cmd.Printf("Seeded %d products, %d batches, %d invoices.\n", result.Products, result.Batches, result.Invoices)
	return nil
}
