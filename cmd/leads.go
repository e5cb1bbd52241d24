package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"sjsage522/leadworker/internal/lead"
	"sjsage522/leadworker/services/worker"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newLeadsCommand() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "leads",
		Short: "List stored leads by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, ok := lead.ParseStatus(status)
			if !ok {
				return fmt.Errorf("unknown status %q: want %s or %s", status, lead.StatusDiscovered, lead.StatusProcessed)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			// Listing never publishes; only the store is needed.
			s, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.Close()

			leads, err := s.ListByStatus(cmd.Context(), st, limit)
			if err != nil {
				return fmt.Errorf("failed to list leads: %w", err)
			}
			if len(leads) == 0 {
				fmt.Fprintf(os.Stdout, "No %s leads found.\n", st)
				return nil
			}
			renderLeads(os.Stdout, leads)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", string(lead.StatusDiscovered), "lead status to list")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of leads to show, 0 for all")

	return cmd
}

// renderLeads prints leads as a table
func renderLeads(w io.Writer, leads []lead.Lead) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Company", "Website", "Niche", "Location", "Engine", "Created"})
	for _, l := range leads {
		created := ""
		if !l.CreatedAt.IsZero() {
			created = l.CreatedAt.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{l.CompanyName, l.WebsiteURL, l.Niche, l.Location, l.EngineUsed, created})
	}
	t.AppendFooter(table.Row{"Total", strconv.Itoa(len(leads))})

	t.Render()
}

// renderResults prints one row per crawl
func renderResults(w io.Writer, results []worker.JobResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Query", "Target", "Accepted", "Duplicates", "Outcome", "Scrolls", "Duration", "Error"})
	for _, r := range results {
		errText := ""
		if r.Result.Err != nil {
			errText = r.Result.Err.Error()
		}
		t.AppendRow(table.Row{
			r.Job.Query.SearchText(),
			r.Job.Query.Target,
			r.Result.Accepted,
			r.Result.Duplicates,
			string(r.Result.Outcome),
			r.Result.Scrolls,
			r.Result.Duration.Round(100 * time.Millisecond).String(),
			errText,
		})
	}

	t.Render()
}
