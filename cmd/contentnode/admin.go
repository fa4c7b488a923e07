package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"contentnode/internal/devtools"
	"contentnode/internal/domain"
	"contentnode/internal/service"
)

// withApp loads the config and runs fn with a wired app
func withApp(cmd *cobra.Command, opts *globalOptions, fn func(a *app) error) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, logger, false)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func migrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				fmt.Fprintf(cmd.OutOrStdout(), "Database schema is up to date (%s)\n", a.store.Dialect())
				return nil
			})
		},
	}
}

func devtoolsCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devtools",
		Short: "Manage devtools packages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				dt, err := a.requireDevtools()
				if err != nil {
					return err
				}
				names, err := dt.Packages().List()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	})

	var sel service.Selection
	export := &cobra.Command{
		Use:   "export <package>",
		Short: "Write implementation objects into a package",
		Long: `Export writes constructs, datasources, templates and object property
definitions into the package directory. Without selection flags every
object is exported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				dt, err := a.requireDevtools()
				if err != nil {
					return err
				}
				c, err := dt.Export(cmd.Context(), args[0], sel)
				if err != nil {
					return err
				}
				printContents(cmd.OutOrStdout(), "Exported", args[0], c)
				return nil
			})
		},
	}
	export.Flags().StringSliceVar(&sel.Constructs, "construct", nil, "Construct keywords to export")
	export.Flags().StringSliceVar(&sel.Datasources, "datasource", nil, "Datasource names to export")
	export.Flags().StringSliceVar(&sel.Templates, "template", nil, "Template names to export")
	export.Flags().StringSliceVar(&sel.ObjectProperties, "objectproperty", nil, "Object property keywords to export")
	cmd.AddCommand(export)

	cmd.AddCommand(&cobra.Command{
		Use:   "import <package>",
		Short: "Import a package into the content repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(a *app) error {
				dt, err := a.requireDevtools()
				if err != nil {
					return err
				}
				c, err := dt.ImportPackage(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printContents(cmd.OutOrStdout(), "Imported", args[0], c)
				return nil
			})
		},
	})

	return cmd
}

func printContents(w io.Writer, verb, name string, c *devtools.Contents) {
	fmt.Fprintf(w, "%s package %s: %d constructs, %d datasources, %d templates, %d object properties\n",
		verb, name, len(c.Constructs), len(c.Datasources), len(c.Templates), len(c.ObjectProperties))
}

func userCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage backend users",
	}

	var (
		firstName, lastName, email, password string
		groups                               []int
	)
	create := &cobra.Command{
		Use:   "create <login>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(string(data), "\r\n")
			}
			return withApp(cmd, opts, func(a *app) error {
				users := a.services.Users
				user := domain.NewSystemUser(args[0], firstName, lastName)
				if email != "" {
					if err := user.SetEmail(email); err != nil {
						return err
					}
				}
				if err := users.Create(cmd.Context(), user, password); err != nil {
					return err
				}
				for _, g := range groups {
					if err := users.AddToGroup(cmd.Context(), user.ID, g); err != nil {
						return err
					}
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"id":     user.ID,
					"login":  user.Login,
					"groups": groups,
				})
			})
		},
	}
	create.Flags().StringVar(&firstName, "first-name", "", "First name")
	create.Flags().StringVar(&lastName, "last-name", "", "Last name")
	create.Flags().StringVar(&email, "email", "", "E-mail address")
	create.Flags().StringVar(&password, "password", "", "Password (read from stdin if empty)")
	create.Flags().IntSliceVar(&groups, "group", nil, "IDs of groups to join")
	cmd.AddCommand(create)

	return cmd
}
