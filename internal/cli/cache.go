package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/engine/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Aggregation cache commands",
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached aggregation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			if cfg.Cache.Backend == cache.BackendMemory {
				cmd.Println("Memory cache lives only inside a running process; nothing to clear.")
				return nil
			}

			ctx := cmd.Context()
			s, err := openCache(ctx, cfg)
			if err != nil {
				return err
			}
			if c, ok := s.(io.Closer); ok {
				defer func() { _ = c.Close() }()
			}

			if clearErr := s.Clear(ctx); clearErr != nil {
				return clearErr
			}
			cmd.Printf("Cleared %s cache.\n", cfg.Cache.Backend)
			return nil
		},
	}

	cmd.AddCommand(clearCmd)
	return cmd
}
