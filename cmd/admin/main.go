// Package main provides admin management utilities for the forum.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"forum/internal/config"
	"forum/internal/database"
	"forum/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	db *gorm.DB

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:               "admin",
		Short:             "Manage forum administrators",
		SilenceUsage:      true,
		PersistentPreRunE: openDatabase,
		PersistentPostRun: func(*cobra.Command, []string) { _ = database.Close(db) },
	}

	promoteCmd = &cobra.Command{
		Use:   "promote [username]",
		Short: "Grant admin rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(cmd.OutOrStdout(), db, args[0], true)
		},
	}

	demoteCmd = &cobra.Command{
		Use:   "demote [username]",
		Short: "Remove admin rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setAdmin(cmd.OutOrStdout(), db, args[0], false)
		},
	}

	listCmd = &cobra.Command{
		Use:     "list-admins",
		Aliases: []string{"list"},
		Short:   "List all admins",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listAdmins(cmd.OutOrStdout(), db)
		},
	}
)

func init() {
	rootCmd.AddCommand(promoteCmd, demoteCmd, listCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDatabase connects using the regular forum configuration.
func openDatabase(*cobra.Command, []string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err = database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	return nil
}

func setAdmin(out io.Writer, db *gorm.DB, username string, admin bool) error {
	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user %q not found", username)
		}
		return fmt.Errorf("database error: %w", err)
	}

	if user.IsAdmin == admin {
		fmt.Fprintf(out, "User %s (ID: %d) already has admin=%v\n", user.Username, user.ID, admin)
		return nil
	}

	if err := db.Model(&user).Update("admin", admin).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	if admin {
		fmt.Fprintf(out, "Promoted %s (ID: %d) to admin\n", user.Username, user.ID)
	} else {
		fmt.Fprintf(out, "Demoted %s (ID: %d) from admin\n", user.Username, user.ID)
	}
	return nil
}

func listAdmins(out io.Writer, db *gorm.DB) error {
	var admins []models.User
	if err := db.Where("admin = ?", true).Order("id").Find(&admins).Error; err != nil {
		return fmt.Errorf("failed to fetch admins: %w", err)
	}

	if len(admins) == 0 {
		fmt.Fprintln(out, "No admins found")
		return nil
	}

	fmt.Fprintf(out, "Found %d admin(s):\n", len(admins))
	for _, admin := range admins {
		fmt.Fprintf(out, "  - %s (ID: %d, Email: %s)\n", admin.Username, admin.ID, admin.Email)
	}
	return nil
}
