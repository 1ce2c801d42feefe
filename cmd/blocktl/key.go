package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ZaguanLabs/blocktl/credential"
	"github.com/ZaguanLabs/blocktl/provider"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

var keyProviders = []string{provider.OpenAI, provider.Claude, provider.Gemini}

func checkKeyProvider(id string) (string, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range keyProviders {
		if p == id {
			return id, nil
		}
	}
	return "", fmt.Errorf("invalid provider %q. Must be one of %s", id, strings.Join(keyProviders, ", "))
}

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage provider API keys in the OS keychain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyShow(cmd)
		},
	}
	cmd.AddCommand(newKeySetCmd(), newKeyDeleteCmd(), newKeyShowCmd())
	return cmd
}

func newKeySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Save a provider key (prompted, or read from stdin, when omitted)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := checkKeyProvider(args[0])
			if err != nil {
				return err
			}
			key := ""
			if len(args) == 2 {
				key = args[1]
			} else if key, err = promptKey(cmd, id); err != nil {
				return fmt.Errorf("error reading key: %w", err)
			}
			key = strings.TrimSpace(key)
			if err := credential.ValidateFormat(id, key); err != nil {
				return fmt.Errorf("%s key rejected: %w", id, err)
			}
			if err := openCredentials().Set(id, key); err != nil {
				return fmt.Errorf("error saving key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s API key to keychain (%s).\n", id, credential.Mask(key))
			return nil
		},
	}
}

// promptKey reads a key without echo on a terminal, or the first line of
// stdin otherwise.
func promptKey(cmd *cobra.Command, id string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s API Key: ", id)
		b, err := readPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(b), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}

func newKeyDeleteCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "delete [provider]",
		Short: "Delete a provider key from the keychain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := openCredentials()
			if all {
				if err := credential.DeleteAll(creds, keyProviders...); err != nil {
					return fmt.Errorf("error deleting keys: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Deleted all API keys from keychain.")
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("provider is required (or use --all)")
			}
			id, err := checkKeyProvider(args[0])
			if err != nil {
				return err
			}
			if err := creds.Delete(id); err != nil {
				return fmt.Errorf("error deleting key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s API key from keychain.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete the keys of every provider")
	return cmd
}

func newKeyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show which provider keys are set (default if no action given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyShow(cmd)
		},
	}
}

func runKeyShow(cmd *cobra.Command) error {
	creds := openCredentials()
	out := cmd.OutOrStdout()
	for _, id := range keyProviders {
		if key, ok := creds.Store.Key(id); ok {
			fmt.Fprintf(out, "%-8s %s (source=Keychain)\n", id, credential.Mask(key))
			continue
		}
		if key, ok := creds.Read.Key(id); ok {
			fmt.Fprintf(out, "%-8s %s (source=%s)\n", id, credential.Mask(key), credential.EnvVars[id])
			continue
		}
		fmt.Fprintf(out, "%-8s not set\n", id)
	}
	return nil
}
