package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/ottobar/internal/config"
	"github.com/hammamikhairi/ottobar/internal/gateway"
)

// peerOptions are the flags of commands that talk to a running appliance.
type peerOptions struct {
	*rootOptions
	broker  string
	prefix  string
	timeout time.Duration
}

func (o *peerOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.broker, "broker", "", "MQTT broker host:port (default from config)")
	cmd.Flags().StringVar(&o.prefix, "prefix", "", "topic prefix of the appliance (default from config)")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 5*time.Second, "how long to wait for the appliance")
}

// dial connects to the broker named by the flags or the config.
func (o *peerOptions) dial(cmd *cobra.Command) (*gateway.Client, context.Context, context.CancelFunc, error) {
	cfg, err := loadConfig(cmd, o.rootOptions)
	if err != nil {
		return nil, nil, nil, err
	}
	broker, prefix := o.broker, o.prefix
	if broker == "" {
		broker = cfg.MQTT.Broker
	}
	if prefix == "" {
		prefix = cfg.MQTT.TopicPrefix
	}
	if broker == "" {
		return nil, nil, nil, fmt.Errorf("no broker configured: pass --broker or set %s", config.EnvMQTTBroker)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	client, err := gateway.Dial(ctx, broker, prefix)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return client, ctx, cancel, nil
}

func newRequestCommand(root *rootOptions) *cobra.Command {
	opts := &peerOptions{rootOptions: root}
	var raw bool

	cmd := &cobra.Command{
		Use:   "request <resource>",
		Short: "Fetch Menu, Stats or Stock from a running appliance",
		Example: `  ottobar request Menu
  ottobar request Stock --broker bar.local:1883`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, ctx, cancel, err := opts.dial(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Close()

			payload, err := client.Request(ctx, args[0])
			if err != nil {
				return err
			}
			return writePayload(cmd.OutOrStdout(), payload, raw)
		},
	}
	opts.bind(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "print the payload as received")
	return cmd
}

func newPostCommand(root *rootOptions) *cobra.Command {
	opts := &peerOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "post <Menu|Stock> <file|->",
		Short: "Replace the menu or the stock of a running appliance",
		Long: `Replace the menu or the stock of a running appliance.

The payload is a JSON array. The appliance applies it once no order is in
progress and does not answer.`,
		Example: `  ottobar post Menu menu.json
  echo '[{"name":"Gin","amount":700}]' | ottobar post Stock -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readPayload(cmd.InOrStdin(), args[1])
			if err != nil {
				return err
			}
			if err := checkPayload(args[0], payload); err != nil {
				return err
			}

			client, ctx, cancel, err := opts.dial(cmd)
			if err != nil {
				return err
			}
			defer cancel()
			defer client.Close()

			if err := client.Post(ctx, args[0], payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "posted %s (%d bytes)\n", args[0], len(payload))
			return nil
		},
	}
	opts.bind(cmd)
	return cmd
}

func readPayload(stdin io.Reader, name string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if name == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	return bytes.TrimSpace(data), nil
}

// checkPayload rejects payloads the appliance would drop, so the
// operator hears about it.
func checkPayload(resource string, payload []byte) error {
	switch resource {
	case gateway.ResourceMenu:
		_, _, err := gateway.DecodeMenu(payload)
		return err
	case gateway.ResourceStock:
		var entries []json.RawMessage
		if err := json.Unmarshal(payload, &entries); err != nil {
			return fmt.Errorf("stock payload must be a JSON array: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("cannot post %q: only %s and %s are writable", resource, gateway.ResourceMenu, gateway.ResourceStock)
	}
}

// writePayload prints JSON indented unless raw is set. Payloads that are
// not JSON, such as the filler, print as received.
func writePayload(w io.Writer, payload []byte, raw bool) error {
	if !raw {
		var buf bytes.Buffer
		if err := json.Indent(&buf, payload, "", "  "); err == nil {
			payload = buf.Bytes()
		} else if !errors.As(err, new(*json.SyntaxError)) {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s\n", payload)
	return err
}
