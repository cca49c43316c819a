/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/storagekit/errors"
	"github.com/suparena/storagekit/storagemodels"
	"github.com/suparena/storagekit/tables"
)

// document is a schemaless entity read from or written to the command line
type document map[string]any

// Keys implements storagemodels.Entity
func (d document) Keys() (string, string) {
	pk, _ := d["PartitionKey"].(string)
	rk, _ := d["RowKey"].(string)
	return pk, rk
}

func parseDocument(s string) (document, error) {
	var doc document
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, errors.NewInvalidFormatError("entity", "the entity must be a JSON object", err)
	}
	if pk, rk := doc.Keys(); pk == "" || rk == "" {
		return nil, errors.NewInvalidArgumentError("entity", "PartitionKey and RowKey are required strings")
	}
	return doc, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func tableCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Read and write table entities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <table> <partition-key> <row-key>",
		Short: "Print one entity as JSON",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			doc, err := tables.RetrieveEntity[document](ctx, client.Tables, args[0], args[1], args[2])
			if err != nil {
				return err
			}
			if doc == nil {
				return errors.NewResourceNotFoundError(errors.KindEntity, args[0]+"/"+args[1]+"/"+args[2])
			}
			return printJSON(cmd, doc)
		},
	})

	var mode string
	insert := &cobra.Command{
		Use:   "insert <table> <json>",
		Short: "Write one entity given as a JSON object with PartitionKey and RowKey",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := parseDocument(args[1])
			if err != nil {
				return err
			}
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			var status int
			switch mode {
			case "insert":
				status, err = client.Tables.Insert(ctx, args[0], doc)
			case "merge":
				status, err = client.Tables.InsertOrMerge(ctx, args[0], doc)
			case "replace":
				status, err = client.Tables.InsertOrReplace(ctx, args[0], doc)
			default:
				return errors.NewInvalidArgumentError("mode", fmt.Sprintf("unknown write mode %q", mode))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status %d\n", status)
			return nil
		},
	}
	insert.Flags().StringVar(&mode, "mode", "insert", "write mode: insert, merge (insert or merge) or replace (insert or replace)")
	cmd.AddCommand(insert)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <table> <partition-key> <row-key>",
		Short: "Delete one entity",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			status, err := client.Tables.Delete(ctx, args[0], storagemodels.NewTableEntity(args[1], args[2]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status %d\n", status)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "exists <table>",
		Short: "Report whether a table exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			ok, err := client.Tables.TableExists(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	})

	return cmd
}
