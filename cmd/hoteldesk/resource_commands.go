package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tyemirov/hoteldesk/internal/hotel"
)

var errMissingRecordData = errors.New("cli.missing_record_data: --data is required")

func newResourceCommands() []*cobra.Command {
	catalog := hotel.Catalog()
	commands := make([]*cobra.Command, 0, len(catalog))
	for _, entry := range catalog {
		commands = append(commands, newResourceCommand(entry))
	}
	return commands
}

func newResourceCommand(entry hotel.Entry) *cobra.Command {
	resourceCmd := &cobra.Command{
		Use:   entry.Command,
		Short: entry.Summary,
	}

	resourceCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every record",
		Args:  cobra.NoArgs,
		RunE: withBrowser(entry, func(runtime *consoleRuntime, command *cobra.Command, browser hotel.Browser, arguments []string) error {
			items, count, err := browser.ListRecords(command.Context())
			if err != nil {
				return err
			}
			return runtime.print(map[string]any{browser.ListKey(): items, "count": count})
		}),
	})

	resourceCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: withBrowser(entry, func(runtime *consoleRuntime, command *cobra.Command, browser hotel.Browser, arguments []string) error {
			record, err := browser.GetRecord(command.Context(), arguments[0])
			if err != nil {
				return err
			}
			return runtime.print(map[string]any{browser.ItemKey(): record})
		}),
	})

	resourceCmd.AddCommand(newRecordWriteCommand(entry, "create", "Create a record from a JSON body", hotel.Browser.CreateRecord))
	resourceCmd.AddCommand(newRecordWriteCommand(entry, "update", "Update a record from a JSON body carrying its id", hotel.Browser.UpdateRecord))

	resourceCmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(1),
		RunE: withBrowser(entry, func(runtime *consoleRuntime, command *cobra.Command, browser hotel.Browser, arguments []string) error {
			if err := browser.Delete(command.Context(), arguments[0]); err != nil {
				return err
			}
			return runtime.print(map[string]any{"deleted": arguments[0]})
		}),
	})

	return resourceCmd
}

type recordWrite func(browser hotel.Browser, ctx context.Context, body []byte) error

func newRecordWriteCommand(entry hotel.Entry, use string, short string, write recordWrite) *cobra.Command {
	var data string
	writeCmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withBrowser(entry, func(runtime *consoleRuntime, command *cobra.Command, browser hotel.Browser, arguments []string) error {
			if strings.TrimSpace(data) == "" {
				return errMissingRecordData
			}
			if err := write(browser, command.Context(), []byte(data)); err != nil {
				return err
			}
			return runtime.print(map[string]any{use + "d": browser.ItemKey()})
		}),
	}
	writeCmd.Flags().StringVar(&data, "data", "", "Record body as JSON")
	return writeCmd
}

type browserAction func(runtime *consoleRuntime, command *cobra.Command, browser hotel.Browser, arguments []string) error

func withBrowser(entry hotel.Entry, action browserAction) func(*cobra.Command, []string) error {
	return func(command *cobra.Command, arguments []string) error {
		runtime, openErr := openConsoleRuntime(command)
		if openErr != nil {
			return openErr
		}
		defer runtime.Close()
		if err := runtime.requireIdentity(); err != nil {
			return err
		}
		return action(runtime, command, entry.Browser(runtime.services), arguments)
	}
}
