/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/suparena/storagekit/topics"
)

func topicCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Publish to topics and manage subscriptions",
	}

	var (
		attributes map[string]string
		create     bool
	)
	publish := &cobra.Command{
		Use:   "publish <topic> <text>",
		Short: "Publish a text message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			if create {
				if _, err := client.Topics.CreateTopic(ctx, args[0]); err != nil {
					return err
				}
			}
			id, err := topics.Publish(ctx, client.Topics, args[0], &textMessage{Body: args[1]}, attributes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	publish.Flags().StringToStringVar(&attributes, "attr", nil, "message attributes as key=value pairs")
	publish.Flags().BoolVar(&create, "create", false, "create the topic if it does not exist")
	cmd.AddCommand(publish)

	var filter string
	subscribe := &cobra.Command{
		Use:   "subscribe <topic> <subscription>",
		Short: "Create a subscription on an existing topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			_, err = client.Topics.Subscribe(ctx, args[0], args[1], filter)
			return err
		},
	}
	subscribe.Flags().StringVar(&filter, "filter", "", `attribute filter, for example attributes.priority = "high"`)
	cmd.AddCommand(subscribe)

	cmd.AddCommand(&cobra.Command{
		Use:   "receive <topic> <subscription>",
		Short: "Receive and acknowledge one message",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel, client, err := opts.connect(cmd)
			if err != nil {
				return err
			}
			defer cancel()

			msg, err := topics.ReceiveAs[textMessage](ctx, client.Topics, args[0], args[1])
			if err != nil {
				return err
			}
			if msg == nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "no message received")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg.Body)
			return nil
		},
	})

	return cmd
}
