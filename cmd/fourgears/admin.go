package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fourgears/internal/board"
	"fourgears/internal/models"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, logger, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()
		logger.Info("schema up to date")
		return nil
	},
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin profiles",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin profile and print its API token",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")

		_, _, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		profile, token, err := store.CreateProfile(cmd.Context(), email, name, models.RoleAdmin)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\ntoken: %s\n", profile.Email, profile.ID, token)
		return nil
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote <project-id>",
	Short: "Print the price breakdown for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, store, err := setup()
		if err != nil {
			return err
		}
		defer store.Close()

		svc := board.New(store, board.Options{Pricing: cfg.Pricing.Pricing(), Logger: logger})
		est, saved, err := svc.Estimate(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "tasks:        %d (%d urgent)\n", est.TaskCount, est.UrgentTaskCount)
		fmt.Fprintf(out, "hours:        %s\n", est.TotalHours.String())
		fmt.Fprintf(out, "market price: %s\n", est.MarketPrice.StringFixed(2))
		fmt.Fprintf(out, "calculated:   %s\n", est.CalculatedPrice.StringFixed(2))
		fmt.Fprintf(out, "actual price: %s\n", est.ActualPrice.StringFixed(2))
		fmt.Fprintf(out, "savings:      %s\n", est.Savings.StringFixed(2))
		if saved != nil {
			fmt.Fprintf(out, "saved quote:  %s (%s)\n", saved.ID, saved.Status)
		}
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().String("email", "", "Admin email address")
	adminCreateCmd.Flags().String("name", "", "Display name")
	_ = adminCreateCmd.MarkFlagRequired("email")
	adminCmd.AddCommand(adminCreateCmd)
}
