package commands

import (
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/entitycache/model"
)

func newDefinitionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "definitions",
		Aliases: []string{"defs"},
		Short:   "Manage entity definitions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(a, a.rt.session.Definitions.List(cmd.Context(), a.refresh))
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return printJSON(a, a.rt.session.Definitions.Get(cmd.Context(), id, a.refresh))
		},
	}

	var (
		name   string
		fields []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a definition",
		Example: `  entityctl definitions create --name Book \
    --field Title:text:required --field Tags:text:list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			nd := model.NewDefinition{Name: name, Fields: make([]model.NewField, 0, len(fields))}
			for _, s := range fields {
				f, err := parseField(s)
				if err != nil {
					return err
				}
				nd.Fields = append(nd.Fields, f)
			}
			return printJSON(a, a.rt.session.Definitions.Create(cmd.Context(), nd))
		},
	}
	create.Flags().StringVar(&name, "name", "", "Definition name")
	create.Flags().StringArrayVar(&fields, "field", nil, "Field as Name:type[:required][:list][:ref=<id>] (repeatable)")
	_ = create.MarkFlagRequired("name")

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			o := a.rt.session.Definitions.Update(cmd.Context(), id, model.DefinitionPatch{Name: args[1]})
			return done(a, o, "renamed")
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a definition and forget its cached instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return done(a, a.rt.session.Definitions.Delete(cmd.Context(), id), "deleted")
		},
	}

	cmd.AddCommand(list, get, create, rename, del)
	return cmd
}
