package commands

import (
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/entitycache/model"
)

func newInstancesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"inst"},
		Short:   "Manage instances of a definition",
	}

	list := &cobra.Command{
		Use:   "list <definition-id>",
		Short: "List the instances of a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return printJSON(a, a.rt.session.Instances.ListByDefinition(cmd.Context(), defID, a.refresh))
		},
	}

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return printJSON(a, a.rt.session.Instances.Get(cmd.Context(), id, a.refresh))
		},
	}

	var createData string
	create := &cobra.Command{
		Use:     "create <definition-id>",
		Short:   "Create an instance",
		Example: `  entityctl instances create 7d1c... --data '{"Title":"Dune"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defID, err := parseID(args[0])
			if err != nil {
				return err
			}
			data, err := parseData(createData)
			if err != nil {
				return err
			}
			return printJSON(a, a.rt.session.Instances.Create(cmd.Context(), defID, data))
		},
	}
	create.Flags().StringVar(&createData, "data", "{}", "Field values as a JSON object")

	var updateData string
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace an instance's data; null clears a field",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			data, err := parseData(updateData)
			if err != nil {
				return err
			}
			o := a.rt.session.Instances.Update(cmd.Context(), id, model.InstancePatch{Data: data})
			return done(a, o, "updated")
		},
	}
	update.Flags().StringVar(&updateData, "data", "", "Field values as a JSON object")
	_ = update.MarkFlagRequired("data")

	var force bool
	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an instance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return done(a, a.rt.session.Instances.Delete(cmd.Context(), id, force), "deleted")
		},
	}
	del.Flags().BoolVar(&force, "force", false, "Delete even when other instances reference it")

	cmd.AddCommand(list, get, create, update, del)
	return cmd
}
