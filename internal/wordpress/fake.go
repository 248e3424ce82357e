package wordpress

import (
	"context"
	"fmt"
	"sync"

	"github.com/fyrsmithlabs/sitegen/internal/deploy"
	"github.com/fyrsmithlabs/sitegen/internal/stage"
)

// Fake is an in-memory ContentSystem. Failures can be injected per
// operation and target, e.g. Fail("install_plugin", "wordfence").
type Fake struct {
	mu      sync.Mutex
	nextID  int
	fail    map[string]error
	calls   []string
	Offline bool
	Theme   string
	Plugins []string
	Pages   []stage.Page
	Posts   []stage.Post
	Menus   []stage.Menu
	Options map[string]string
}

// NewFake returns an empty, reachable fake site.
func NewFake() *Fake {
	return &Fake{fail: map[string]error{}, Options: map[string]string{}}
}

// Fail makes op on target return an error. An empty target matches any.
func (f *Fake) Fail(op, target string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op+":"+target] = fmt.Errorf("fake: %s %s failed", op, target)
}

// Calls returns the operations performed so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) record(op, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op+":"+target)
	if err, ok := f.fail[op+":"+target]; ok {
		return err
	}
	if err, ok := f.fail[op+":"]; ok {
		return err
	}
	return nil
}

func (f *Fake) id() int {
	f.nextID++
	return f.nextID
}

func (f *Fake) TestConnection(ctx context.Context) bool {
	_ = f.record("test_connection", "")
	return !f.Offline
}

func (f *Fake) InstallTheme(ctx context.Context, slug string) error {
	return f.record("install_theme", slug)
}

func (f *Fake) ActivateTheme(ctx context.Context, slug string) error {
	if err := f.record("activate_theme", slug); err != nil {
		return err
	}
	f.mu.Lock()
	f.Theme = slug
	f.mu.Unlock()
	return nil
}

func (f *Fake) InstallPlugin(ctx context.Context, slug string) error {
	return f.record("install_plugin", slug)
}

func (f *Fake) ActivatePlugin(ctx context.Context, slug string) error {
	if err := f.record("activate_plugin", slug); err != nil {
		return err
	}
	f.mu.Lock()
	f.Plugins = append(f.Plugins, slug)
	f.mu.Unlock()
	return nil
}

func (f *Fake) CreatePage(ctx context.Context, page stage.Page) (*deploy.Record, error) {
	if err := f.record("create_page", page.Title); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pages = append(f.Pages, page)
	return &deploy.Record{ID: f.id()}, nil
}

func (f *Fake) CreatePost(ctx context.Context, post stage.Post) (*deploy.Record, error) {
	if err := f.record("create_post", post.Title); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Posts = append(f.Posts, post)
	return &deploy.Record{ID: f.id()}, nil
}

func (f *Fake) CreateMenu(ctx context.Context, menu stage.Menu) (*deploy.Record, error) {
	if err := f.record("create_menu", menu.Location); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Menus = append(f.Menus, menu)
	return &deploy.Record{ID: f.id()}, nil
}

func (f *Fake) SetOption(ctx context.Context, name, value string) error {
	if err := f.record("set_option", name); err != nil {
		return err
	}
	f.mu.Lock()
	f.Options[name] = value
	f.mu.Unlock()
	return nil
}

// Connector returns a deploy.Connector that always hands out f.
func (f *Fake) Connector() deploy.Connector {
	return deploy.ConnectorFunc(func(context.Context, *stage.Credentials) (deploy.ContentSystem, func() error, error) {
		return f, func() error { return nil }, nil
	})
}

var _ deploy.ContentSystem = (*Fake)(nil)
