package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/debemdeboas/quill/internal/asset"
	"github.com/debemdeboas/quill/internal/codec"
	"github.com/debemdeboas/quill/internal/config"
	"github.com/debemdeboas/quill/internal/errs"
	"github.com/debemdeboas/quill/internal/gateway"
	"github.com/debemdeboas/quill/internal/model"
	"github.com/debemdeboas/quill/internal/publish"
	"github.com/debemdeboas/quill/internal/render"
	"github.com/debemdeboas/quill/internal/util"
)

// client returns an API client carrying the saved session, if any.
func client() (*gateway.Client, error) {
	cfg := config.AppConfig
	token, err := loadToken(tokenPath(cfg.Gateway.TokenFile))
	if err != nil {
		return nil, err
	}
	return gateway.NewClient(cfg.Gateway, token), nil
}

func runLogin(cctx *cli.Context) error {
	cfg := config.AppConfig

	username := cctx.String("username")
	if username == "" {
		username = cfg.Auth.AdminUsername
	}
	password := cctx.String("password")
	if password == "" {
		var err error
		if password, err = prompt(cctx.App.Reader, cctx.App.Writer, "Password for "+username+": "); err != nil {
			return err
		}
	}

	gw := gateway.NewHTTPGateway(gateway.NewClient(cfg.Gateway, ""))
	token, err := gw.Login(cctx.Context, username, password)
	if errors.Is(err, errs.ErrUnauthorized) {
		return errors.New(config.ErrInvalidCredentials)
	}
	if err != nil {
		return err
	}

	path := tokenPath(cfg.Gateway.TokenFile)
	if err := saveToken(path, token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Fprintln(cctx.App.Writer, okStyle.Render("Logged in")+dimStyle.Render(" (session saved to "+path+")"))
	return nil
}

func prompt(r io.Reader, w io.Writer, label string) (string, error) {
	if r == nil {
		r = os.Stdin
	}
	fmt.Fprint(w, promptStyle.Render(label))

	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", errors.New("no input")
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// readAsset loads an image file. The MIME type comes from the extension,
// falling back to content sniffing.
func readAsset(path string) (model.LocalAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.LocalAsset{}, err
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}

	return model.LocalAsset{
		Filename: filepath.Base(path),
		Data:     data,
		MimeType: mimeType,
	}, nil
}

// readDraft loads the body file and attached images named by the flags.
func readDraft(cctx *cli.Context) (*model.Draft, error) {
	body, err := os.ReadFile(cctx.String("body"))
	if err != nil {
		return nil, err
	}

	draft := &model.Draft{
		Title: cctx.String("title"),
		Body:  string(body),
	}
	for _, path := range cctx.StringSlice("asset") {
		a, err := readAsset(path)
		if err != nil {
			return nil, err
		}
		draft.Assets = append(draft.Assets, a)
	}
	return draft, nil
}

func newPublisher(cctx *cli.Context, c *gateway.Client) *publish.Publisher {
	cfg := config.AppConfig
	p := publish.New(cfg.Content,
		asset.NewResolver(asset.NewHTTPStore(c), cfg.Assets),
		gateway.NewHTTPGateway(c),
		func() bool { return sessionValid(c.Token, time.Now()) },
	)
	if cctx.Bool("compress") {
		threshold := cfg.Content.CompressThreshold
		if threshold <= 0 {
			threshold = 1
		}
		p.Codec = codec.New(threshold)
	}
	return p
}

func postURL(id model.PostID) string {
	return strings.TrimRight(config.AppConfig.Gateway.BaseURL, "/") + config.PostsUrlPath + string(id)
}

func runPublish(cctx *cli.Context) error {
	draft, err := readDraft(cctx)
	if err != nil {
		return err
	}

	c, err := client()
	if err != nil {
		return err
	}

	id, err := newPublisher(cctx, c).Submit(cctx.Context, draft)
	if err != nil {
		return describe(err)
	}

	fmt.Fprintln(cctx.App.Writer, okStyle.Render("Published ")+titleStyle.Render(string(id)))
	fmt.Fprintln(cctx.App.Writer, dimStyle.Render(postURL(id)))
	return nil
}

func runEdit(cctx *cli.Context) error {
	id := model.PostID(cctx.Args().First())
	if id == "" {
		return errors.New("need a post id")
	}

	draft, err := readDraft(cctx)
	if err != nil {
		return err
	}

	c, err := client()
	if err != nil {
		return err
	}
	if !sessionValid(c.Token, time.Now()) {
		return describe(errs.ErrUnauthorized)
	}

	current, err := gateway.NewHTTPGateway(c).Get(cctx.Context, id)
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("post %s not found", id)
	}
	if err != nil {
		return describe(err)
	}
	if strings.TrimSpace(draft.Title) == "" && util.FrontMatterTitle(draft.Body) == "" {
		draft.Title = current.Title
	}

	if err := newPublisher(cctx, c).SubmitEdit(cctx.Context, id, draft); err != nil {
		return describe(err)
	}

	fmt.Fprintln(cctx.App.Writer, okStyle.Render("Updated ")+titleStyle.Render(string(id)))
	fmt.Fprintln(cctx.App.Writer, dimStyle.Render(postURL(id)))
	return nil
}

// describe turns pipeline errors into messages for the author.
func describe(err error) error {
	var (
		agg  *errs.AggregateUploadError
		verr *errs.ValidationError
	)
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		return errors.New("no valid session, run `quill login` first")
	case errors.As(err, &agg):
		lines := make([]string, 0, len(agg.Failed))
		for _, name := range agg.Failed {
			lines = append(lines, fmt.Sprintf("  %s: %v", name, agg.Causes[name]))
		}
		return fmt.Errorf("nothing was published, these uploads failed:\n%s", strings.Join(lines, "\n"))
	case errors.As(err, &verr):
		return fmt.Errorf("nothing was sent: %s", verr.Error())
	}
	return err
}

func runList(cctx *cli.Context) error {
	c, err := client()
	if err != nil {
		return err
	}
	gw := gateway.NewHTTPGateway(c)

	var posts []model.Post
	if cctx.Bool("deleted") {
		posts, err = gw.ListDeleted(cctx.Context)
	} else {
		posts, err = gw.List(cctx.Context)
	}
	if err != nil {
		return describe(err)
	}

	if len(posts) == 0 {
		fmt.Fprintln(cctx.App.Writer, dimStyle.Render("No posts."))
		return nil
	}

	idStyle := lipgloss.NewStyle().Width(38)
	for _, p := range posts {
		title := titleStyle.Render(p.Title)
		if p.IsDeleted {
			title = deletedStyle.Render(p.Title)
		}
		fmt.Fprintln(cctx.App.Writer, lipgloss.JoinHorizontal(lipgloss.Top,
			idStyle.Render(string(p.ID)),
			dimStyle.Render(p.CreatedDate.Local().Format("2006-01-02 15:04")+"  "),
			title,
		))
	}
	return nil
}

func runShow(cctx *cli.Context) error {
	id := model.PostID(cctx.Args().First())
	if id == "" {
		return errors.New("need a post id")
	}

	c, err := client()
	if err != nil {
		return err
	}

	post, err := gateway.NewHTTPGateway(c).Get(cctx.Context, id)
	if errors.Is(err, errs.ErrNotFound) {
		return fmt.Errorf("post %s not found", id)
	}
	if err != nil {
		return describe(err)
	}

	header := titleStyle.Render(post.GetTitle())
	if post.IsDeleted {
		header += errorStyle.Render(" (deleted)")
	}
	fmt.Fprintln(cctx.App.Writer, header)
	fmt.Fprintln(cctx.App.Writer, dimStyle.Render(post.CreatedDate.Local().Format(time.RFC1123)))
	fmt.Fprintln(cctx.App.Writer)

	if cctx.Bool("source") {
		fmt.Fprintln(cctx.App.Writer, string(post.Body))
		return nil
	}

	rendered, err := render.New(config.AppConfig).Render(post)
	if err != nil {
		return err
	}
	fmt.Fprintln(cctx.App.Writer, string(rendered.HTML))
	return nil
}

func setDeleted(ctx context.Context, id model.PostID, deleted bool) error {
	c, err := client()
	if err != nil {
		return err
	}
	gw := gateway.NewHTTPGateway(c)
	if deleted {
		return gw.Delete(ctx, id)
	}
	return gw.Restore(ctx, id)
}

func runDelete(cctx *cli.Context) error {
	id := model.PostID(cctx.Args().First())
	if id == "" {
		return errors.New("need a post id")
	}
	if err := setDeleted(cctx.Context, id, true); err != nil {
		return describe(err)
	}
	fmt.Fprintln(cctx.App.Writer, okStyle.Render("Deleted ")+string(id))
	return nil
}

func runRestore(cctx *cli.Context) error {
	id := model.PostID(cctx.Args().First())
	if id == "" {
		return errors.New("need a post id")
	}
	if err := setDeleted(cctx.Context, id, false); err != nil {
		return describe(err)
	}
	fmt.Fprintln(cctx.App.Writer, okStyle.Render("Restored ")+string(id))
	return nil
}
