/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/storagekit/queues"
)

// textMessage is the payload storagectl exchanges on queues and topics
type textMessage struct {
	Body string `msgpack:"body" json:"body"`
}

func queueCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Send and receive queue messages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "send <queue> <text>",
		Short: "Enqueue a text message, creating the queue if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			return queues.Enqueue(ctx, client.Queues, args[0], &textMessage{Body: args[1]})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "receive <queue>",
		Short: "Print the next visible message; it stays in the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			msg, err := queues.Dequeue[textMessage](ctx, client.Queues, args[0])
			if err != nil {
				return err
			}
			if msg == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "queue is empty")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Body)
			return nil
		},
	})

	return cmd
}
