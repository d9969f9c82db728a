package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"adminpanel/internal/client"
	"adminpanel/internal/ui"
)

const usage = `usage: adminctl [-addr URL] [-token JWT] <users|posts> <list|create|update|delete> [flags]

  users list   [-page N]
  users create -name NAME -email EMAIL -password PASSWORD
  users update -id ID [-name NAME] [-email EMAIL] [-password PASSWORD]
  users delete -id ID
  posts list   [-page N]
  posts create -title TITLE -content CONTENT [-picture FILE]
  posts update -id ID [-title TITLE] [-content CONTENT] [-picture FILE]
  posts delete -id ID
`

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("adminctl", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	addr := global.String("addr", envOr("ADMINCTL_ADDR", "http://127.0.0.1:8080"), "admin base URL")
	token := global.String("token", os.Getenv("ADMINCTL_TOKEN"), "bearer token")
	if err := global.Parse(args); err != nil {
		return 2
	}
	rest := global.Args()
	if len(rest) < 2 {
		global.Usage()
		return 2
	}

	var opts []client.Option
	if *token != "" {
		opts = append(opts, client.WithToken(*token))
	}
	api := client.New(*addr, opts...)
	notifier := ui.NewNotifier(time.Minute, 16)

	var err error
	switch rest[0] {
	case "users":
		err = runUsers(ctx, ui.NewUsersView(api, notifier), rest[1], rest[2:], stdout, stderr)
	case "posts":
		err = runPosts(ctx, ui.NewPostsView(api, notifier), rest[1], rest[2:], stdout, stderr)
	default:
		err = fmt.Errorf("unknown resource %q", rest[0])
	}

	for _, n := range notifier.Active() {
		fmt.Fprintf(stderr, "[%s] %s\n", n.Kind, n.Message)
	}
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
			for field, message := range apiErr.Fields {
				fmt.Fprintf(stderr, "  %s: %s\n", field, message)
			}
		} else {
			fmt.Fprintln(stderr, "error:", err)
		}
		return 1
	}
	return 0
}

func runUsers(ctx context.Context, view *ui.UsersView, action string, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("users "+action, flag.ContinueOnError)
	fs.SetOutput(stderr)
	page := fs.Int("page", 1, "page number")
	id := fs.Uint("id", 0, "user id")
	name := fs.String("name", "", "name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := setFlags(fs)

	switch action {
	case "list":
		return list(ctx, view, *page, stdout)
	case "create":
		view.New()
		view.Modal().Edit(func(f *ui.UserFields) {
			f.Name, f.Email, f.Password = *name, *email, *password
		})
		return view.Modal().Submit(ctx)
	case "update":
		if err := locate(ctx, view, uint(*id)); err != nil {
			return err
		}
		view.Modal().Edit(func(f *ui.UserFields) {
			if set["name"] {
				f.Name = *name
			}
			if set["email"] {
				f.Email = *email
			}
			if set["password"] {
				f.Password = *password
			}
		})
		return view.Modal().Submit(ctx)
	case "delete":
		return view.Delete(ctx, uint(*id))
	}
	return fmt.Errorf("unknown action %q", action)
}

func runPosts(ctx context.Context, view *ui.PostsView, action string, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("posts "+action, flag.ContinueOnError)
	fs.SetOutput(stderr)
	page := fs.Int("page", 1, "page number")
	id := fs.Uint("id", 0, "post id")
	title := fs.String("title", "", "title")
	content := fs.String("content", "", "content")
	picture := fs.String("picture", "", "path to an image file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	set := setFlags(fs)

	var staged *client.Attachment
	if *picture != "" {
		file, err := readAttachment(*picture)
		if err != nil {
			return err
		}
		staged = file
	}

	apply := func(f *ui.PostFields) {
		if set["title"] {
			f.Title = *title
		}
		if set["content"] {
			f.Content = *content
		}
		if staged != nil {
			f.StagePicture(*staged)
		}
	}

	switch action {
	case "list":
		return list(ctx, view, *page, stdout)
	case "create":
		view.New()
		view.Modal().Edit(apply)
		return view.Modal().Submit(ctx)
	case "update":
		if err := locate(ctx, view, uint(*id)); err != nil {
			return err
		}
		view.Modal().Edit(apply)
		return view.Modal().Submit(ctx)
	case "delete":
		return view.Delete(ctx, uint(*id))
	}
	return fmt.Errorf("unknown action %q", action)
}

func list[R, F any](ctx context.Context, view *ui.ListView[R, F], page int, stdout io.Writer) error {
	if err := view.Load(ctx, page); err != nil {
		return err
	}
	w := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(view.Headers(), "\t"))
	for _, row := range view.Rows() {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	current, last := view.Page()
	fmt.Fprintf(w, "\npage %d of %d\n", current, last)
	return w.Flush()
}

// locate walks the pages until the record is found and opens it for editing.
func locate[R, F any](ctx context.Context, view *ui.ListView[R, F], id uint) error {
	if id == 0 {
		return errors.New("-id is required")
	}
	for page := 1; ; page++ {
		if err := view.Load(ctx, page); err != nil {
			return err
		}
		err := view.Edit(id)
		if !errors.Is(err, ui.ErrRowNotFound) {
			return err
		}
		if _, last := view.Page(); page >= last {
			return fmt.Errorf("record %d not found", id)
		}
	}
}

func readAttachment(path string) (*client.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read picture failed: %w", err)
	}
	return &client.Attachment{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:        data,
	}, nil
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
