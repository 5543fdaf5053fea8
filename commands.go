package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"studynotes/auth"
	"studynotes/cache"
	"studynotes/catalog"
	"studynotes/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, _, _, err := setup(); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the default subjects and homepage cards when missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, db, err := setup()
		if err != nil {
			return err
		}
		written, err := catalog.New(store.New(db)).Seed(cmd.Context())
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if len(written) == 0 {
			fmt.Println("Catalog already present, nothing written")
			return nil
		}
		// Cached pages were built from the catalog that was missing.
		if err := cache.New(cfg.CacheDir).ClearAll(); err != nil {
			return fmt.Errorf("clear page cache: %w", err)
		}
		fmt.Println("Seeded:", strings.Join(written, ", "))
		return nil
	},
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached page fragment",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, _, err := setup()
		if err != nil {
			return err
		}
		if err := cache.New(cfg.CacheDir).ClearAll(); err != nil {
			return fmt.Errorf("clear page cache: %w", err)
		}
		log.Info().Str("dir", cfg.CacheDir).Msg("page cache cleared")
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userPassword string

var userAddCmd = &cobra.Command{
	Use:   "add <email>",
	Short: "Create an account (prompts for the password unless --password is set)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, db, err := setup()
		if err != nil {
			return err
		}

		email := auth.NormalizeIdentifier(args[0])
		password := userPassword
		if password == "" {
			if password, err = promptPassword("Password: "); err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if confirm != password {
				return auth.ErrPasswordMismatch
			}
		}
		if password == "" {
			return errors.New("password cannot be empty")
		}

		provider := auth.NewProvider(cfg, store.New(db))
		if err := provider.SignUp(cmd.Context(), email, password); err != nil {
			return err
		}
		fmt.Printf("User %s added successfully!\n", email)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&userPassword, "password", "", "password for the new account")
	userCmd.AddCommand(userAddCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func promptPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal; pass --password")
	}
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pass)), nil
}
