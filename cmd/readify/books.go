package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/server"
	"github.com/spf13/cobra"
)

func newBooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse, upload and delete books",
	}
	cmd.AddCommand(newBooksCatalogCmd(a))
	cmd.AddCommand(newBooksMineCmd(a))
	cmd.AddCommand(newBooksShowCmd(a))
	cmd.AddCommand(newBooksUploadCmd(a))
	cmd.AddCommand(newBooksDeleteCmd(a))
	return cmd
}

func newBooksCatalogCmd(a *app) *cobra.Command {
	var genre string
	cmd := &cobra.Command{
		Use:         "catalog",
		Short:       "List every book on the platform",
		Annotations: route(server.RouteCatalog),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.client().Books(cmd.Context())
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			if genre != "" {
				kept := books[:0]
				for _, b := range books {
					if strings.EqualFold(b.Genre, genre) {
						kept = append(kept, b)
					}
				}
				books = kept
			}
			return writeBooks(a.out, books)
		},
	}
	cmd.Flags().StringVar(&genre, "genre", "", "only show this genre")
	return cmd
}

func newBooksMineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "mine",
		Short:       "List the books you uploaded",
		Annotations: route(server.RouteBooks),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.client().MyBooks(cmd.Context())
			if err != nil {
				return fmt.Errorf("load your books: %w", err)
			}
			return writeBooks(a.out, books)
		},
	}
}

func newBooksShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "show BOOK_ID",
		Short:       "Show one book",
		Annotations: route(server.RouteBook),
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg("book id", args[0])
			if err != nil {
				return err
			}
			book, err := a.client().Book(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("load book %d: %w", id, err)
			}
			a.printf("%s\nby %s\n", book.Title, book.Authors)
			if book.Genre != "" {
				a.printf("Genre: %s\n", book.Genre)
			}
			if book.PublicationDate != "" {
				a.printf("Published: %s\n", book.PublicationDate)
			}
			if book.Description != "" {
				a.printf("\n%s\n", book.Description)
			}
			if pdf := api.MediaURL(a.mediaBase, book.BookFile); pdf != "" {
				a.printf("\nPDF: %s\n", pdf)
			}
			return nil
		},
	}
}

func newBooksUploadCmd(a *app) *cobra.Command {
	var (
		nb        api.NewBook
		bookPath  string
		coverPath string
	)
	cmd := &cobra.Command{
		Use:         "upload",
		Short:       "Upload a book",
		Annotations: route(server.RouteBooks),
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, f := range []struct {
				path   string
				target **api.Upload
			}{{bookPath, &nb.BookFile}, {coverPath, &nb.CoverImage}} {
				if f.path == "" {
					continue
				}
				file, err := os.Open(f.path)
				if err != nil {
					return err
				}
				defer file.Close()
				*f.target = &api.Upload{Filename: filepath.Base(f.path), Content: file}
			}

			book, err := a.client().CreateBook(cmd.Context(), nb)
			if err != nil {
				return fmt.Errorf("add book: %s", api.Detail(err, "Failed to add book"))
			}
			a.printf("Book Added: %d %s\n", book.ID, book.Title)
			return nil
		},
	}
	cmd.Flags().StringVar(&nb.Title, "title", "", "title")
	cmd.Flags().StringVar(&nb.Authors, "authors", "", "authors")
	cmd.Flags().StringVar(&nb.Genre, "genre", "", "genre")
	cmd.Flags().StringVar(&nb.PublicationDate, "published", "", "publication date, YYYY-MM-DD")
	cmd.Flags().StringVar(&nb.Description, "description", "", "description")
	cmd.Flags().StringVar(&bookPath, "file", "", "PDF to upload")
	cmd.Flags().StringVar(&coverPath, "cover", "", "cover image to upload")
	return cmd
}

func newBooksDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "delete BOOK_ID",
		Short:       "Delete one of your books",
		Annotations: route(server.RouteBookDelete),
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := intArg("book id", args[0])
			if err != nil {
				return err
			}
			if err := a.client().DeleteBook(cmd.Context(), id); err != nil {
				return fmt.Errorf("delete failed: %s", api.ErrorMessage(err, "Server error"))
			}
			a.printf("Deleted! Book has been removed.\n")
			return nil
		},
	}
}

func writeBooks(w io.Writer, books []api.Book) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS\tGENRE")
	for _, b := range books {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.ID, b.Title, b.Authors, b.Genre)
	}
	return tw.Flush()
}

func intArg(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, value)
	}
	return n, nil
}
