package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/auth"
	redisadapter "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/adapters/out/redis"
	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
	appcfg "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/config"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/platform/di"
)

const commandTimeout = 2 * time.Minute

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Maintenance commands for the IPTV storefront",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(
		newListCmd(),
		newSeedCmd(),
		newClearCatalogCmd(),
		newHashPasswordCmd(),
	)
	return root
}

// catalogEnv is the configured product collection plus the infra it needs.
type catalogEnv struct {
	infra *di.Infra
	repo  productdom.Repository
}

func openCatalog(ctx context.Context) (*catalogEnv, error) {
	cfg, err := appcfg.Load()
	if err != nil {
		return nil, err
	}
	inf, err := di.NewInfra(ctx, cfg)
	if err != nil {
		return nil, err
	}
	repo, err := di.ProductRepository(cfg, inf)
	if err != nil {
		_ = inf.Close()
		return nil, err
	}
	return &catalogEnv{infra: inf, repo: repo}, nil
}

func (e *catalogEnv) Close() { _ = e.infra.Close() }

// announce tells running servers to reload the catalog. Without Redis they
// pick the change up on their next refresh.
func (e *catalogEnv) announce(ctx context.Context) {
	if e.infra.Redis == nil {
		return
	}
	if err := redisadapter.NewCatalogRefreshBridge(e.infra.Redis).Publish(ctx); err != nil {
		logx.Warn().Err(err).Msg("[storefrontctl] refresh publish failed")
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every product in the configured catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			env, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			items, err := env.repo.List(ctx)
			if err != nil {
				return err
			}
			return printProducts(cmd.OutOrStdout(), items)
		},
	}
}

func printProducts(w io.Writer, items []productdom.Product) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tACTIVE")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", p.ID, p.Name, p.DisplayPrice(), p.IsActive)
	}
	return tw.Flush()
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the four default subscriptions (ids 1-4) into the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			env, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			seeder, ok := env.repo.(productdom.Seeder)
			if !ok {
				return fmt.Errorf("catalog backend %T cannot be seeded", env.repo)
			}
			n, err := seeder.Seed(ctx, productdom.Defaults(time.Now().UTC()))
			if err != nil {
				return err
			}
			env.announce(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
			return nil
		},
	}
}

func newClearCatalogCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear-catalog",
		Short: "Delete every product in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete the whole catalog without --yes")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			env, err := openCatalog(ctx)
			if err != nil {
				return err
			}
			defer env.Close()

			n, err := env.repo.DeleteAll(ctx)
			if n > 0 {
				env.announce(ctx)
			}
			if err != nil {
				return fmt.Errorf("deleted %d products before failing: %w", n, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d products\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash for ADMIN_PASSWORD_HASH (reads stdin when no argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				password = strings.TrimRight(line, "\r\n")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
