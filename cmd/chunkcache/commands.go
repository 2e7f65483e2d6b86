package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/chunkcache"
)

// errMiss makes get exit non-zero without printing anything extra.
var errMiss = errors.New("cache miss")

func newPutCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "put <hash> [file]",
		Short: "Write a JSON array of records under hash (reads stdin without file)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 2 {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			records, err := readRecords(in)
			if err != nil {
				return err
			}

			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			return runPut(cmd, a, args[0], records)
		},
	}
}

func runPut(cmd *cobra.Command, a *app, hash string, records []json.RawMessage) error {
	ctx := a.ctx(cmd.Context())
	a.cache.Write(ctx, hash, records)
	// Write never fails; confirm the entry actually landed.
	if _, ok := a.cache.Lookup(ctx, hash); !ok && len(records) > 0 {
		return fmt.Errorf("write of %q did not produce an entry", hash)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cached %d records under %s\n", len(records), hash)
	return nil
}

func newGetCmd(opts *globalOpts) *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "get <hash>",
		Short: "Print cached records as a JSON array; exits 1 on miss",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			return runGet(cmd, a, args[0], pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent output")
	return cmd
}

func runGet(cmd *cobra.Command, a *app, hash string, pretty bool) error {
	records, ok := a.cache.Lookup(a.ctx(cmd.Context()), hash)
	if !ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "no cached content for %s\n", hash)
		return errMiss
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(records)
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys <hash>",
		Short: "Print the entry and lock keys derived from hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "entry %s\n", chunkcache.EntryKey(args[0]))
			fmt.Fprintf(out, "lock  %s\n", chunkcache.LockKey(args[0]))
			return nil
		},
	}
}

func newInspectCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <hash>",
		Short: "Show chunk count, field names and TTL of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close(cmd.Context())
			return runInspect(cmd, a, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, a *app, hash string) error {
	ctx := cmd.Context()
	key := chunkcache.EntryKey(hash)
	fields, err := a.backend.GetAllHashFields(ctx, key)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "key     %s\n", key)
	if len(fields) == 0 {
		fmt.Fprintln(out, "absent")
		return nil
	}
	ttl, err := a.backend.TTL(ctx, key)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(fields))
	size := 0
	for name, v := range fields {
		names = append(names, name)
		size += len(v)
	}
	sort.Slice(names, func(i, j int) bool {
		x, xerr := strconv.Atoi(names[i])
		y, yerr := strconv.Atoi(names[j])
		if xerr != nil || yerr != nil {
			return names[i] < names[j]
		}
		return x < y
	})

	fmt.Fprintf(out, "chunks  %d\n", len(names))
	fmt.Fprintf(out, "bytes   %d\n", size)
	fmt.Fprintf(out, "fields  %v\n", names)
	if ttl < 0 {
		fmt.Fprintln(out, "ttl     none")
	} else {
		fmt.Fprintf(out, "ttl     %s\n", ttl)
	}
	return nil
}

func readRecords(r io.Reader) ([]json.RawMessage, error) {
	var records []json.RawMessage
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("records must be a JSON array: %w", err)
	}
	return records, nil
}
