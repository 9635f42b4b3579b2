package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/chat"
	"github.com/trezcool/placement/core/opportunity"
	"github.com/trezcool/placement/core/reminder"
	"github.com/trezcool/placement/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	kv            core.KVStore
	users         user.Repository
	out           io.Writer
	reminders     *reminder.Service
	opportunities *opportunity.Service
	chat          *chat.Service
	digest        *reminder.Digest
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  broadcast -title TITLE [-deadline YYYY-MM-DD] - send a reminder to every student")
	fmt.Fprintln(cli.out, "  seed - install the demo opportunities and admin inbox when absent")
	fmt.Fprintln(cli.out, "  digest - e-mail students their reminders due soon")
	fmt.Fprintln(cli.out, "  hashpassword - hash a password for the demo accounts (prompted)")
	fmt.Fprintln(cli.out, "  get -key KEY - print the raw stored value")
	fmt.Fprintln(cli.out, "  del -key KEY - remove a stored value")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	broadcastCmd := flag.NewFlagSet("broadcast", flag.ContinueOnError)
	broadcastTitle := broadcastCmd.String("title", "", "The reminder title.")
	broadcastDeadline := broadcastCmd.String("deadline", "", "The deadline (YYYY-MM-DD). Defaults to today.")

	getCmd := flag.NewFlagSet("get", flag.ContinueOnError)
	getKey := getCmd.String("key", "", "The storage key, e.g. reminders:broadcast.")

	delCmd := flag.NewFlagSet("del", flag.ContinueOnError)
	delKey := delCmd.String("key", "", "The storage key to remove.")

	for _, fs := range []*flag.FlagSet{broadcastCmd, getCmd, delCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "broadcast":
		if err := broadcastCmd.Parse(args[2:]); err != nil {
			return err
		}
		if core.CleanString(*broadcastTitle) == "" {
			broadcastCmd.Usage()
			return errHelp
		}
		return cli.broadcast(ctx, *broadcastTitle, *broadcastDeadline)

	case "seed":
		return cli.seed(ctx)

	case "digest":
		return cli.sendDigest(ctx)

	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))

	case "get":
		if err := getCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *getKey == "" {
			getCmd.Usage()
			return errHelp
		}
		return cli.get(ctx, *getKey)

	case "del":
		if err := delCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *delKey == "" {
			delCmd.Usage()
			return errHelp
		}
		return cli.kv.Remove(ctx, *delKey)

	default:
		cli.printUsage()
		return errHelp
	}
}
