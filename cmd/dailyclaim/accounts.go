package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/flemzord/dailyclaim/internal/checkin"
	"github.com/flemzord/dailyclaim/pkg/app"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func accountsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage linked rewards-service accounts",
	}
	cmd.AddCommand(accountsAddCmd(g), accountsListCmd(g), accountsRemoveCmd(g))
	return cmd
}

// withStore bootstraps only the store module and hands its repository to fn.
func withStore(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, repo checkin.Repository) error) error {
	params := g.params()
	params.Namespaces = []string{"store"}

	ctx := cmd.Context()
	rt, err := app.Bootstrap(ctx, params)
	if err != nil {
		return err
	}
	defer rt.Close(context.WithoutCancel(ctx))

	if rt.Repository == nil {
		return errors.New("no store module configured")
	}
	return fn(ctx, rt.Repository)
}

func accountsAddCmd(g *globalFlags) *cobra.Command {
	var (
		owner       string
		token       string
		subProfiles []string
	)
	cmd := &cobra.Command{
		Use:   "add <account-id>",
		Short: "Link an account to an owner (the token is prompted for when not given)",
		Long: `Link an account to an owner, or refresh the token of an account already linked.

When --sub-profile is omitted, the sub-profiles already stored for the account
are kept. Pass --sub-profile="" to clear them.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				return errors.New("--owner is required")
			}
			if token == "" {
				var err error
				if token, err = readToken(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			acct := checkin.Account{
				OwnerID:     owner,
				AccountID:   args[0],
				Token:       strings.TrimSpace(token),
				SubProfiles: subProfiles,
			}
			keepProfiles := !cmd.Flags().Changed("sub-profile")
			return withStore(cmd, g, func(ctx context.Context, repo checkin.Repository) error {
				if keepProfiles {
					existing, err := repo.GetAccount(ctx, acct.AccountID)
					if err != nil {
						return err
					}
					if existing != nil {
						acct.SubProfiles = existing.SubProfiles
					}
				}
				if err := repo.UpsertAccount(ctx, acct); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account %s linked to owner %s (%d sub-profiles)\n",
					acct.AccountID, acct.OwnerID, len(acct.SubProfiles))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner ID (the Telegram user ID)")
	cmd.Flags().StringVar(&token, "token", "", "Session token (ltoken cookie value)")
	cmd.Flags().StringSliceVar(&subProfiles, "sub-profile", nil, "Sub-profile ID, repeatable; replaces the stored list")
	return cmd
}

// readToken prompts for the token on a terminal and reads one line otherwise.
func readToken(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		var token string
		err := huh.NewInput().
			Title("Session token").
			Description("Value of the ltoken cookie from the rewards site").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("token must not be empty")
				}
				return nil
			}).
			Value(&token).
			Run()
		return token, err
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading token: %w", err)
	}
	if strings.TrimSpace(line) == "" {
		return "", errors.New("no token given on stdin")
	}
	return line, nil
}

func accountsListCmd(g *globalFlags) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List linked accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, g, func(ctx context.Context, repo checkin.Repository) error {
				owners := []string{owner}
				if owner == "" {
					var err error
					if owners, err = repo.ListOwners(ctx); err != nil {
						return err
					}
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "OWNER\tACCOUNT\tREGISTERED\tSUB-PROFILES")
				for _, o := range owners {
					accounts, err := repo.ListAccounts(ctx, o)
					if err != nil {
						return err
					}
					for _, a := range accounts {
						fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", a.OwnerID, a.AccountID, a.Registered(), strings.Join(a.SubProfiles, ","))
					}
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Only list this owner's accounts")
	return cmd
}

func accountsRemoveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <account-id>",
		Short: "Unlink an account and forget its markers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, g, func(ctx context.Context, repo checkin.Repository) error {
				existing, err := repo.GetAccount(ctx, args[0])
				if err != nil {
					return err
				}
				if existing == nil {
					return fmt.Errorf("account %s not found", args[0])
				}
				if err := repo.DeleteAccount(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account %s removed\n", args[0])
				return nil
			})
		},
	}
}
