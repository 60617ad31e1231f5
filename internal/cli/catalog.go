package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newItemCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage lunch items",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add an orderable lunch item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			item, err := store.CreateItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added item %q (id %d)\n", item.Name, item.ID)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List lunch items in report order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			items, err := store.ListItems(cmd.Context())
			if err != nil {
				return err
			}
			for _, item := range items {
				fmt.Fprintln(cmd.OutOrStdout(), item.Name)
			}
			return nil
		},
	})
	return cmd
}

func newTeacherCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teacher",
		Short: "Manage teachers",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a teacher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := store.CreateTeacher(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added teacher %q (id %d)\n", t.Name, t.ID)
			return nil
		},
	})
	return cmd
}

func newStudentCmd(opts *rootOptions) *cobra.Command {
	var teacher string

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a student, optionally assigned to a teacher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var teacherID *int64
			if name := strings.TrimSpace(teacher); name != "" {
				t, err := store.FindTeacherByName(cmd.Context(), name)
				if err != nil {
					return err
				}
				teacherID = &t.ID
			}

			st, err := store.CreateStudent(cmd.Context(), args[0], teacherID)
			if err != nil {
				return err
			}
			if teacherID == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Added student %q (id %d) without a teacher\n", st.Name, st.ID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added student %q (id %d) to %s\n", st.Name, st.ID, strings.TrimSpace(teacher))
			return nil
		},
	}
	add.Flags().StringVar(&teacher, "teacher", "", "teacher the student belongs to")

	cmd := &cobra.Command{
		Use:   "student",
		Short: "Manage students",
	}
	cmd.AddCommand(add)
	return cmd
}
