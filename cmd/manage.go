package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/spf13/cobra"

	"partyflow/internal/ledger"
	"partyflow/models"
)

// registerManageCommand adds the interactive catalogue CLI:
//
//	partyflow manage
func registerManageCommand(app *pocketbase.PocketBase, ledgerService *ledger.Service) {
	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "manage",
		Short: "Interactively manage the event catalogue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Bootstrap(); err != nil {
				return err
			}
			return runManage(cmd.Context(), ledgerService, os.Stdin, os.Stdout)
		},
	})
}

func runManage(ctx context.Context, svc *ledger.Service, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "PartyFlow event manager")
		fmt.Fprintln(out, "  1) list events")
		fmt.Fprintln(out, "  2) add event")
		fmt.Fprintln(out, "  q) quit")
		fmt.Fprint(out, "> ")

		choice, ok := readLine(scanner)
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			if err := listEvents(ctx, svc, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "2":
			if err := addEvent(ctx, svc, scanner, out); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintln(out, "unknown choice")
		}
	}
}

func listEvents(ctx context.Context, svc *ledger.Service, out io.Writer) error {
	events, err := svc.ActiveEvents(ctx)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "no active events")
		return nil
	}

	for _, event := range events {
		remaining, err := svc.Remaining(ctx, event.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s  %s  %s @ %s  %.2f  %d/%d left\n",
			event.ID, event.Name, event.Date, event.Location, event.Price, remaining, event.TotalTickets)
	}
	return nil
}

func addEvent(ctx context.Context, svc *ledger.Service, scanner *bufio.Scanner, out io.Writer) error {
	name, ok := prompt(scanner, out, "name: ")
	if !ok || name == "" {
		return fmt.Errorf("name is required")
	}

	date, ok := prompt(scanner, out, "date (YYYY-MM-DD): ")
	if !ok {
		return fmt.Errorf("aborted")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date %q", date)
	}

	location, ok := prompt(scanner, out, "location: ")
	if !ok || location == "" {
		return fmt.Errorf("location is required")
	}

	priceRaw, ok := prompt(scanner, out, "price: ")
	if !ok {
		return fmt.Errorf("aborted")
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil || price < 0 {
		return fmt.Errorf("invalid price %q", priceRaw)
	}

	totalRaw, ok := prompt(scanner, out, "total tickets: ")
	if !ok {
		return fmt.Errorf("aborted")
	}
	total, err := strconv.Atoi(totalRaw)
	if err != nil || total < 1 {
		return fmt.Errorf("invalid ticket count %q", totalRaw)
	}

	id, err := svc.AddEvent(ctx, models.Event{
		Name:         name,
		Date:         date,
		Location:     location,
		Price:        price,
		TotalTickets: total,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created event %s\n", id)
	return nil
}

func prompt(scanner *bufio.Scanner, out io.Writer, label string) (string, bool) {
	fmt.Fprint(out, label)
	return readLine(scanner)
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}
