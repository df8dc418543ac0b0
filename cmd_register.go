package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexandro/secretscan-mcp/register"
)

func newRegisterCommand() *cobra.Command {
	var name string
	var remove bool

	cmd := &cobra.Command{
		Use:   "register project|user [directory] [-- server-args...]",
		Short: "Add this server to an MCP client config",
		Long: `Register writes this binary as an MCP server entry.

  register project [directory]   -> <directory>/.mcp.json (default: .)
  register user                  -> ~/.claude.json
  register project . -- --flag   forward args to the server

Other entries in the file are left untouched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positional, serverArgs := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				positional, serverArgs = args[:dash], args[dash:]
			}
			if len(positional) == 0 || len(positional) > 2 {
				return fmt.Errorf("expected a scope (project or user) and an optional directory, got %d arguments", len(positional))
			}

			scope, err := register.ParseScope(positional[0])
			if err != nil {
				return err
			}
			opts := register.Options{Scope: scope, ServerName: name, ServerArgs: serverArgs}
			if len(positional) > 1 {
				if scope == register.ScopeUser {
					return fmt.Errorf("user scope takes no directory")
				}
				opts.Directory = positional[1]
			}

			out := cmd.OutOrStdout()
			if remove {
				configPath, removed, err := register.Unregister(opts)
				if err != nil {
					return err
				}
				if removed {
					fmt.Fprintf(out, "Removed server from %s\n", configPath)
				} else {
					fmt.Fprintf(out, "Nothing to remove in %s\n", configPath)
				}
				return nil
			}

			configPath, err := register.Register(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Registered in %s\n", configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Server name in the config (default: binary name without -mcp)")
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the entry instead of adding it")

	return cmd
}
