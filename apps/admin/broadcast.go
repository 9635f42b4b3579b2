package main

import (
	"context"
	"fmt"

	"github.com/trezcool/placement/core/reminder"
)

// broadcast adds a reminder to the shared tier.
func (cli *commandLine) broadcast(ctx context.Context, title, deadline string) error {
	rem, err := cli.reminders.AddBroadcast(ctx, reminder.NewReminder{Title: title, Deadline: deadline})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "broadcast #%d %q due %s\n", rem.ID, rem.Title, rem.Deadline)
	return nil
}

func (cli *commandLine) seed(ctx context.Context) error {
	opps, err := cli.opportunities.Seed(ctx)
	if err != nil {
		return err
	}
	inbox, err := cli.chat.SeedInbox(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "opportunities seeded: %t\ninbox seeded: %t\n", opps, inbox)
	return nil
}

func (cli *commandLine) sendDigest(ctx context.Context) error {
	sent, err := cli.digest.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "digest sent to %d students\n", sent)
	return nil
}
