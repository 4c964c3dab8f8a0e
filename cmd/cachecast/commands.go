package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/cachecast"
)

var errNotFound = errors.New("key not found")

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, ok, err := a.client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%s: %w", args[0], errNotFound)
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newSetCmd(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store value under key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Set(cmd.Context(), args[0], args[1], ttl)
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "expiry; 0 keeps the key")
	return cmd
}

func newDelCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "del <key>",
		Short: "Delete key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.Delete(cmd.Context(), args[0])
		},
	}
}

func newPublishCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <channel> <message>",
		Short: "Publish message and print the number of receivers",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.client.Publish(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
}

func newSubscribeCmd(a *app) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "subscribe <channel>",
		Short: "Print messages from channel until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			msgs := make(chan cachecast.Message, 16)
			sub, err := a.client.Subscribe(ctx, args[0], func(hctx context.Context, m cachecast.Message) {
				select {
				case msgs <- m:
				case <-hctx.Done():
				}
			})
			if err != nil {
				return err
			}
			defer sub.Unsubscribe()

			for seen := 0; count <= 0 || seen < count; seen++ {
				select {
				case m := <-msgs:
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", m.Channel, m.Payload)
				case <-sub.Done():
					return fmt.Errorf("subscription to %q lost", args[0])
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "c", 0, "exit after this many messages; 0 runs until interrupted")
	return cmd
}

func newBroadcastCmd(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "broadcast <channel> <key> <value>",
		Short: "Store value under key and publish it on channel",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.client.SetAndPublish(cmd.Context(), args[0], args[1], args[2], ttl)
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "expiry; 0 keeps the key")
	return cmd
}
