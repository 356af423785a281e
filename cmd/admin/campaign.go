package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	"github.com/MrJamesThe3rd/pawfund/internal/export"
	"github.com/MrJamesThe3rd/pawfund/internal/intake"
	"github.com/MrJamesThe3rd/pawfund/internal/money"
)

func campaignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaign",
		Short: "Manage fundraising campaigns",
	}

	cmd.AddCommand(campaignCreateCmd())
	cmd.AddCommand(campaignListCmd())
	cmd.AddCommand(campaignShowCmd())
	cmd.AddCommand(campaignExportCmd())
	cmd.AddCommand(campaignImportCmd())

	return cmd
}

func campaignCreateCmd() *cobra.Command {
	var title, goal, org, subject string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a campaign for a case",
		RunE: func(cmd *cobra.Command, _ []string) error {
			goalAmount, err := decimal.NewFromString(goal)
			if err != nil {
				return fmt.Errorf("invalid --goal %q: %w", goal, err)
			}

			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			c, err := env.campaigns.Create(cmd.Context(), campaign.CreateParams{
				Title:          title,
				OrganizationID: org,
				SubjectID:      subject,
				GoalAmount:     goalAmount,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created campaign %s\n", c.ID)

			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Campaign title")
	cmd.Flags().StringVar(&goal, "goal", "", "Goal amount in the campaign currency")
	cmd.Flags().StringVar(&org, "org", "", "Beneficiary organization id")
	cmd.Flags().StringVar(&subject, "subject", "", "Beneficiary subject (pet/case) id")

	for _, name := range []string{"title", "goal", "org", "subject"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func campaignListCmd() *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List campaigns, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			filter := campaign.ListFilter{}
			if state != "" {
				filter.State = new(campaign.State(state))
			}

			cs, err := env.campaigns.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tSTATE\tRAISED\tGOAL\tFUNDED")

			for _, c := range cs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d%%\n",
					c.ID, c.Title, c.State,
					money.Format(c.RaisedAmount, "", language.English),
					money.Format(c.GoalAmount, "", language.English),
					money.PercentFunded(c.RaisedAmount, c.GoalAmount))
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "Filter by state (active, completed)")

	return cmd
}

func campaignShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Print a campaign's progress and donations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid campaign id: %w", err)
			}

			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			summary, err := env.exporter.Summary(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), summary)

			return nil
		},
	}
}

func campaignExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write a campaign's donation ledger as XLSX",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid campaign id: %w", err)
			}

			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			if output == "" {
				c, err := env.campaigns.Get(cmd.Context(), id)
				if err != nil {
					return err
				}

				output = export.Filename(c, time.Now())
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating %s: %w", output, err)
			}
			defer f.Close()

			if err := env.exporter.Ledger(cmd.Context(), id, f); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to a dated name)")

	return cmd
}

func campaignImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Create campaigns from a shelter spreadsheet export",
		Long: `Create one campaign per row of a CSV export.

The header row needs title, goal, organization and subject columns (English
or Russian names). Semicolon or comma delimiters and legacy Cyrillic code
pages are detected automatically.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer f.Close()

			env, err := openEnv()
			if err != nil {
				return err
			}
			defer env.Close()

			report, err := intake.NewService(env.campaigns).Import(cmd.Context(), f, dryRun)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if dryRun {
				for _, row := range report.Parsed {
					fmt.Fprintf(out, "line %d: %s (%s)\n", row.Line, row.Params.Title, row.Params.GoalAmount)
				}
			}

			for _, c := range report.Created {
				fmt.Fprintf(out, "created %s %s\n", c.ID, c.Title)
			}

			for _, rowErr := range report.Failed {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %v\n", rowErr)
			}

			fmt.Fprintf(out, "%d parsed, %d created, %d failed\n", len(report.Parsed), len(report.Created), len(report.Failed))

			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate the file without creating campaigns")

	return cmd
}
