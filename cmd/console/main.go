// console is the reviewer command line for the admin API. It drives the same
// panel and lookup state the web console uses: list and filter pending
// tickets, review one, and browse the organization picker.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kidsact/admin-console/internal/config"
	"github.com/kidsact/admin-console/internal/console"
	"github.com/kidsact/admin-console/internal/domain"
	"github.com/kidsact/admin-console/internal/observability"
	"github.com/kidsact/admin-console/internal/review"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n  %v\n", console.ErrorMessage(err), err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		printUsage(out)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client := console.NewClient(cfg.Console)
	ctx := context.Background()

	switch args[0] {
	case "list":
		return runList(ctx, console.NewPanel(client, cfg.Console.PageSize), args[1:], out)
	case "review":
		return runReview(ctx, console.NewPanel(client, cfg.Console.PageSize), logger, args[1:], out)
	case "orgs":
		return runOrgs(ctx, console.NewLookups(client, client), out)
	case "help", "-h", "--help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "usage: console <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "commands:")
	fmt.Fprintln(out, "  list     list tickets (--status, --type, --search, --pages)")
	fmt.Fprintln(out, "  review   review one ticket (--id, --action, --notes, --org-mode, --org-id, --create-org)")
	fmt.Fprintln(out, "  orgs     list organizations with their manager")
}

func runList(ctx context.Context, panel *console.Panel, args []string, out io.Writer) error {
	var status, ticketType, search string
	var pages int

	flags := pflag.NewFlagSet("list", pflag.ContinueOnError)
	flags.StringVar(&status, "status", "", "pending, approved or rejected")
	flags.StringVar(&ticketType, "type", "", "access_request, organization_suggestion or organization_feedback")
	flags.StringVar(&search, "search", "", "filter loaded tickets by name, email or code")
	flags.IntVar(&pages, "pages", 1, "number of pages to load")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if status != "" {
		s := domain.TicketStatus(status)
		if err := panel.SetStatusFilter(ctx, &s); err != nil {
			return err
		}
	} else if err := panel.Reload(ctx); err != nil {
		return err
	}
	if ticketType != "" {
		t := domain.TicketType(ticketType)
		if err := panel.SetTypeFilter(ctx, &t); err != nil {
			return err
		}
	}
	for i := 1; i < pages && panel.HasMore(); i++ {
		if err := panel.LoadMore(ctx); err != nil {
			return err
		}
	}
	panel.SetSearch(search)

	printTickets(out, panel.Visible())
	fmt.Fprintf(out, "\npending: %d", panel.PendingCount())
	if panel.HasMore() {
		fmt.Fprint(out, "  (more available)")
	}
	fmt.Fprintln(out)
	return nil
}

func runReview(ctx context.Context, panel *console.Panel, logger *zap.Logger, args []string, out io.Writer) error {
	var (
		id, action, notes string
		orgMode, orgID    string
		createOrg         bool
	)

	flags := pflag.NewFlagSet("review", pflag.ContinueOnError)
	flags.StringVar(&id, "id", "", "ticket id")
	flags.StringVar(&action, "action", "", "approve or reject")
	flags.StringVar(&notes, "notes", "", "admin notes")
	flags.StringVar(&orgMode, "org-mode", "", "existing or new (access requests)")
	flags.StringVar(&orgID, "org-id", "", "organization to link when --org-mode=existing")
	flags.BoolVar(&createOrg, "create-org", false, "create the suggested organization on approval")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if id == "" {
		return errors.New("--id is required")
	}

	pending := domain.TicketStatusPending
	if err := panel.SetStatusFilter(ctx, &pending); err != nil {
		return err
	}
	for {
		err := panel.OpenReview(id)
		if err == nil {
			break
		}
		if !errors.Is(err, console.ErrTicketNotLoaded) || !panel.HasMore() {
			return err
		}
		if err := panel.LoadMore(ctx); err != nil {
			return err
		}
	}

	if err := panel.UpdateDraft(func(d *review.Decision) {
		d.Action = review.Action(action)
		d.AdminNotes = notes
		d.OrganizationMode = review.OrganizationMode(orgMode)
		d.OrganizationID = orgID
		d.CreateOrganization = createOrg
	}); err != nil {
		return err
	}

	ticket, err := panel.SubmitReview(ctx)
	if err != nil {
		return err
	}
	logger.Info("ticket reviewed",
		zap.String("ticket_id", ticket.ID),
		zap.String("status", string(ticket.Status)),
	)
	fmt.Fprintf(out, "%s %s\n", ticket.TicketID, ticket.Status)
	if ticket.OrganizationID != nil {
		fmt.Fprintf(out, "organization: %s\n", *ticket.OrganizationID)
	}
	if banner := panel.Banner(); banner != "" {
		fmt.Fprintf(out, "warning: %s\n", banner)
	}
	return nil
}

func runOrgs(ctx context.Context, lookups *console.Lookups, out io.Writer) error {
	options, err := lookups.OrganizationOptions(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMANAGER")
	for _, o := range options {
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.ID, o.Name, o.ManagerEmail)
	}
	return w.Flush()
}

func printTickets(out io.Writer, tickets []domain.Ticket) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tTYPE\tSTATUS\tORGANIZATION\tSUBMITTER\tCREATED")
	for _, t := range tickets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID,
			t.TicketID,
			t.Type(),
			t.Status,
			dash(t.OrganizationName),
			t.SubmitterEmail,
			t.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
