package main

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/readinglists"
	"github.com/jrsteele09/readify/server"
	"github.com/spf13/cobra"
)

func newListsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Manage your reading lists",
	}
	cmd.AddCommand(newListsShowCmd(a))
	cmd.AddCommand(newListsCreateCmd(a))
	cmd.AddCommand(newListsDeleteCmd(a))
	cmd.AddCommand(newListsAddCmd(a))
	cmd.AddCommand(newListsRemoveCmd(a))
	cmd.AddCommand(newListsReorderCmd(a))
	return cmd
}

func newListsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Show your reading lists in order",
		Annotations: route(server.RouteReadingLists),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			board := readinglists.NewBoard(a.client())
			if err := board.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load reading lists: %w", err)
			}
			lists := board.Lists()
			if len(lists) == 0 {
				a.printf("You have no reading lists yet.\n")
			}
			for _, list := range lists {
				writeList(a, list)
			}
			return nil
		},
	}
}

func newListsCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "create NAME",
		Short:       "Create a reading list",
		Annotations: route(server.RouteReadingLists),
		Args:        cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(strings.Join(args, " "))
			if name == "" {
				return fmt.Errorf("a reading list needs a name")
			}
			list, err := a.client().CreateReadingList(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("create list: %w", err)
			}
			a.printf("Reading List Created: %d %s\n", list.ID, list.Name)
			return nil
		},
	}
}

func newListsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete LIST_ID",
		Short:       "Delete a reading list and its items",
		Annotations: route(server.RouteReadingListDelete),
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg("list id", args[0])
			if err != nil {
				return err
			}
			if err := a.client().DeleteReadingList(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete list %d: %w", id, err)
			}
			a.printf("Reading List Deleted\n")
			return nil
		},
	}
}

func newListsAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "add LIST_ID BOOK_ID",
		Short:       "Add a book to a reading list",
		Annotations: route(server.RouteBookAddToList),
		Args:        cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := intArg("list id", args[0])
			if err != nil {
				return err
			}
			bookID, err := intArg("book id", args[1])
			if err != nil {
				return err
			}
			if _, err := a.client().AddReadingListItem(cmd.Context(), listID, bookID); err != nil {
				msg := api.ErrorMessage(err, "Failed to add book to list")
				if msg == api.AlreadyInReadingList {
					a.printf("Book is already in this reading list\n")
					return nil
				}
				return fmt.Errorf("add to list: %s", msg)
			}
			a.printf("Book added to reading list\n")
			return nil
		},
	}
}

func newListsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "remove LIST_ID ITEM_ID",
		Short:       "Remove an item from a reading list",
		Annotations: route(server.RouteReadingListItem),
		Args:        cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := intArg("list id", args[0])
			if err != nil {
				return err
			}
			itemID, err := intArg("item id", args[1])
			if err != nil {
				return err
			}
			if err := a.client().RemoveReadingListItem(cmd.Context(), listID, itemID); err != nil {
				return fmt.Errorf("remove item %d: %w", itemID, err)
			}
			a.printf("Book Removed\n")
			return nil
		},
	}
}

func newListsReorderCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "reorder LIST_ID FROM TO",
		Short:       "Move the item at position FROM to position TO (0-based)",
		Annotations: route(server.RouteReadingListOrder),
		Args:        cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			positions := make([]int, len(args))
			for i, name := range []string{"list id", "from", "to"} {
				n, err := intArg(name, args[i])
				if err != nil {
					return err
				}
				positions[i] = n
			}
			listID, from, to := positions[0], positions[1], positions[2]

			board := readinglists.NewBoard(a.client())
			if err := board.Load(cmd.Context()); err != nil {
				return fmt.Errorf("load reading lists: %w", err)
			}
			if err := board.Reorder(cmd.Context(), listID, from, to); err != nil {
				return fmt.Errorf("update order: %w", err)
			}
			if from != to {
				a.printf("Order Updated\n")
			}
			if list, ok := board.List(listID); ok {
				writeList(a, list)
			}
			return nil
		},
	}
}

func writeList(a *app, list api.ReadingList) {
	a.printf("%d %s\n", list.ID, list.Name)
	if len(list.Items) == 0 {
		a.printf("  No books in this list yet.\n")
	}
	for pos, item := range list.Items {
		a.printf("  %d. [item %d] %s (book %d)\n", pos, item.ID, item.BookDetails.Title, item.Book)
	}
}
