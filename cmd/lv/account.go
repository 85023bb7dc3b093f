package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/classlive/internal/config"
	"github.com/zulandar/classlive/internal/db"
	"github.com/zulandar/classlive/internal/models"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage stored accounts",
	}

	cmd.AddCommand(newAccountAddCmd())
	cmd.AddCommand(newAccountListCmd())
	cmd.AddCommand(newAccountRemoveCmd())
	return cmd
}

// openStore loads the config and opens the account store.
func openStore(configPath string) (*gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open account store: %w", err)
	}
	return gormDB, nil
}

func newAccountAddCmd() *cobra.Command {
	var (
		configPath string
		name       string
		cookie     string
	)

	cmd := &cobra.Command{
		Use:   "add <uid>",
		Short: "Store or update an account",
		Long: "Stores the Cookie header of a logged-in browser session under the account uid.\n" +
			"Without --cookie the value is read from stdin, hidden when stdin is a terminal.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountAdd(cmd, configPath, args[0], name, cookie)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&name, "name", "n", "", "display name")
	cmd.Flags().StringVar(&cookie, "cookie", "", "Cookie header value")
	return cmd
}

func runAccountAdd(cmd *cobra.Command, configPath, uid, name, cookie string) error {
	if cookie == "" {
		var err error
		cookie, err = readCookie(cmd)
		if err != nil {
			return err
		}
	}

	gormDB, err := openStore(configPath)
	if err != nil {
		return err
	}
	if err := db.AddAccount(gormDB, models.Account{UID: uid, Name: name, Cookie: cookie}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Stored account %s\n", strings.TrimSpace(uid))
	return nil
}

// readCookie reads the cookie from stdin, prompting without echo on a TTY.
func readCookie(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Cookie: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read cookie: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read cookie: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func newAccountListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAccountList(cmd, configPath)
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func runAccountList(cmd *cobra.Command, configPath string) error {
	gormDB, err := openStore(configPath)
	if err != nil {
		return err
	}
	accts, err := db.ListAccounts(gormDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(accts) == 0 {
		fmt.Fprintln(out, "No accounts stored. Add one with: lv account add <uid>")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tNAME\tUPDATED")
	for _, a := range accts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.UID, a.Name, a.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func newAccountRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <uid>",
		Short: "Remove a stored account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := openStore(configPath)
			if err != nil {
				return err
			}
			if err := db.RemoveAccount(gormDB, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed account %s\n", args[0])
			return nil
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
