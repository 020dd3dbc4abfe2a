// ABOUTME: CRM CLI commands that feed the focus backlog
// ABOUTME: Add activities, deals, and contacts, log interactions, and list activities
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/focus/handlers"
)

// CRMCommand routes `pagen crm <subcommand>`.
func CRMCommand(ctx context.Context, app *App, args []string) error {
	if len(args) == 0 {
		return errors.New("crm requires a subcommand (add-activity, list-activities, add-deal, add-contact, log-interaction)")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "add-activity":
		return AddActivityCommand(ctx, app, rest)
	case "list-activities":
		return ListActivitiesCommand(ctx, app, rest)
	case "add-deal":
		return AddDealCommand(ctx, app, rest)
	case "add-contact":
		return AddContactCommand(ctx, app, rest)
	case "log-interaction":
		return LogInteractionCommand(ctx, app, rest)
	default:
		return fmt.Errorf("unknown crm command %q", sub)
	}
}

// AddActivityCommand adds a call, meeting, email, task, or note.
func AddActivityCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("add-activity", flag.ContinueOnError)
	typ := fs.String("type", "TASK", "CALL, MEETING, EMAIL, TASK, NOTE")
	title := fs.String("title", "", "Activity title (required)")
	description := fs.String("description", "", "Notes")
	due := fs.String("due", "", "Due time, RFC 3339 or YYYY-MM-DD (default: now)")
	deal := fs.String("deal", "", "Related deal ID")
	contact := fs.String("contact", "", "Related contact ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return errors.New("--title is required")
	}

	_, out, err := app.CRM().AddActivity(ctx, nil, handlers.AddActivityInput{
		Type:        *typ,
		Title:       *title,
		Description: *description,
		DueAt:       *due,
		DealID:      *deal,
		ContactID:   *contact,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "✓ Added %s: %s\n", out.Type, out.Title)
	fmt.Fprintf(app.Out, "  ID: %s\n", out.ID)
	fmt.Fprintf(app.Out, "  Due: %s\n", out.DueAt)
	return nil
}

// ListActivitiesCommand prints activities ordered by due time.
func ListActivitiesCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("list-activities", flag.ContinueOnError)
	all := fs.Bool("all", false, "Include completed activities")
	contact := fs.String("contact", "", "Filter by contact ID")
	deal := fs.String("deal", "", "Filter by deal ID")
	limit := fs.Int("limit", 50, "Max results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, out, err := app.CRM().ListActivities(ctx, nil, handlers.ListActivitiesInput{
		IncludeCompleted: *all,
		ContactID:        *contact,
		DealID:           *deal,
		Limit:            *limit,
	})
	if err != nil {
		return err
	}
	if len(out.Activities) == 0 {
		fmt.Fprintln(app.Out, "No activities found.")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DUE\tTYPE\tTITLE\tDONE\tID")
	fmt.Fprintln(w, "---\t----\t-----\t----\t--")
	for _, a := range out.Activities {
		due := a.DueAt
		if t, err := time.Parse(time.RFC3339, a.DueAt); err == nil {
			due = t.Local().Format("2006-01-02 15:04")
		}
		done := ""
		if a.Completed {
			done = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", due, a.Type, truncate(a.Title, 50), done, a.ID)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "\nTotal: %d activities\n", len(out.Activities))
	return nil
}

// AddDealCommand adds a deal to the pipeline.
func AddDealCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("add-deal", flag.ContinueOnError)
	title := fs.String("title", "", "Deal title (required)")
	value := fs.Float64("value", 0, "Deal value")
	currency := fs.String("currency", "USD", "Currency code")
	stage := fs.String("stage", "prospecting", "Stage")
	probability := fs.Int("probability", -1, "Win probability 0-100 (default: by stage)")
	company := fs.String("company", "", "Company name")
	contact := fs.String("contact", "", "Primary contact ID")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *title == "" {
		return errors.New("--title is required")
	}

	input := handlers.CreateDealInput{
		Title:       *title,
		Value:       *value,
		Currency:    *currency,
		Stage:       *stage,
		CompanyName: *company,
		ContactID:   *contact,
	}
	if *probability >= 0 {
		input.Probability = probability
	}

	_, out, err := app.CRM().CreateDeal(ctx, nil, input)
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "✓ Created deal: %s\n", out.Title)
	fmt.Fprintf(app.Out, "  ID: %s\n", out.ID)
	fmt.Fprintf(app.Out, "  Value: %.2f %s\n", out.Value, out.Currency)
	fmt.Fprintf(app.Out, "  Stage: %s (%d%%)\n", out.Stage, out.Probability)
	return nil
}

// AddContactCommand adds a contact.
func AddContactCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("add-contact", flag.ContinueOnError)
	name := fs.String("name", "", "Contact name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	status := fs.String("status", "", "ACTIVE, INACTIVE, or CHURNED (default ACTIVE)")
	company := fs.String("company", "", "Company name")
	notes := fs.String("notes", "", "Notes about the contact")
	purchase := fs.String("last-purchase", "", "Last purchase date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("--name is required")
	}

	_, out, err := app.CRM().AddContact(ctx, nil, handlers.AddContactInput{
		Name:             *name,
		Email:            *email,
		Phone:            *phone,
		Status:           *status,
		CompanyName:      *company,
		Notes:            *notes,
		LastPurchaseDate: *purchase,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "✓ Created contact: %s\n", out.Name)
	fmt.Fprintf(app.Out, "  ID: %s\n", out.ID)
	if out.Email != "" {
		fmt.Fprintf(app.Out, "  Email: %s\n", out.Email)
	}
	return nil
}

// LogInteractionCommand records that a contact was reached.
func LogInteractionCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("log-interaction", flag.ContinueOnError)
	contact := fs.String("contact", "", "Contact ID")
	email := fs.String("email", "", "Contact email")
	date := fs.String("date", "", "When, RFC 3339 or YYYY-MM-DD (default: now)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, out, err := app.CRM().LogContactInteraction(ctx, nil, handlers.LogInteractionInput{
		ContactID: *contact,
		Email:     *email,
		Date:      *date,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(app.Out, "✓ Logged interaction with %s\n", out.Name)
	return nil
}
