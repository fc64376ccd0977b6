// Command inspect dumps the Badger store as a table, one row per key under a prefix.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "request:", "Prefix to scan (request:, conversation:, message:, user:, idx:)")
	colours := flag.Bool("colours", true, "Colorize statuses")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "ID", "Status", "Detail", "Time"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				r, err := describe(key, v)
				if err != nil {
					// Keep scanning, one bad value should not hide the rest
					fmt.Printf("Error decoding key %s: %v\n", key, err)
					return nil
				}
				if *colours {
					r.Status = paint(r.Status)
				}
				table.Append(r.cells())
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("%d keys under %q\n", rows, *prefix)
}

func paint(status string) string {
	switch status {
	case "pending":
		return color.New(color.FgYellow).Render(status)
	case "accepted", "read":
		return color.New(color.FgGreen).Render(status)
	case "declined":
		return color.New(color.FgRed).Render(status)
	}
	return status
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)

	db, err := badger.Open(opts)
	if err != nil && strings.Contains(err.Error(), "Log truncate required") {
		return nil, fmt.Errorf("%w: stop the server first, it owns the value log", err)
	}
	return db, err
}
