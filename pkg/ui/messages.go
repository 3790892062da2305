package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/config"
	"github.com/rentscan/tagview/pkg/tree"
	"github.com/rentscan/tagview/pkg/watcher"
)

// Fetch completions route back to the update loop as messages. Every
// completion carries the tab index it belongs to and the generation its
// fetch was started with; the registry drops anything stale.

// categoriesMsg is the completion of a category (root listing) fetch.
type categoriesMsg struct {
	tab  int
	gen  int
	cats []api.Category
	err  error
}

// listingMsg is the completion of a child-page fetch for one node. The
// children are delivered as a constructor so node instances are only built
// inside the update loop, against the parent that is current then.
type listingMsg struct {
	tab    int
	nodeID string
	gen    int
	build  func(parent *tree.Node) []*tree.Node
	info   api.PageInfo
	err    error
}

// fieldSavedMsg is the completion of an inline-edit POST.
type fieldSavedMsg struct {
	tab      int
	parentID string
	field    api.Field
	tagID    string
	value    string
	err      error
}

// refreshResult is one re-fetched listing inside a refresh-all pass,
// in the same parents-first order the expansion records were snapshotted.
type refreshResult struct {
	rec   tree.Record
	build func(parent *tree.Node) []*tree.Node
	info  api.PageInfo
	err   error
}

// refreshDoneMsg is the completion of a refresh-all pass: the root listing
// plus every expanded listing, fetched concurrently.
type refreshDoneMsg struct {
	tab     int
	gen     int
	cats    []api.Category
	catsErr error
	results []refreshResult
}

// filterRetryMsg re-applies a filter that arrived before the first
// category page landed.
type filterRetryMsg struct {
	tab     int
	attempt int
}

// configChangedMsg is sent when the config file changes on disk.
type configChangedMsg struct{}

// configReloadedMsg carries the re-read config after a change event.
type configReloadedMsg struct {
	cfg config.Config
	err error
}

const (
	filterRetryDelay = 200 * time.Millisecond
	filterRetryMax   = 10

	// refreshConcurrency bounds the parallel fetches of a refresh-all pass.
	refreshConcurrency = 4
)

// filterRetryCmd schedules the next filter re-application attempt.
func filterRetryCmd(tab, attempt int) tea.Cmd {
	return tea.Tick(filterRetryDelay, func(time.Time) tea.Msg {
		return filterRetryMsg{tab: tab, attempt: attempt}
	})
}

// watchConfigCmd waits for the next config file change. Re-issued after
// every configChangedMsg so the subscription stays alive.
func watchConfigCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return configChangedMsg{}
	}
}

// reloadConfigCmd re-reads the config file off the update loop.
func reloadConfigCmd(path string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.LoadFrom(path)
		return configReloadedMsg{cfg: cfg, err: err}
	}
}

// categoriesQuery assembles the server-side filter params for a category
// fetch from the tab's current filter state.
func categoriesQuery(cfg config.Config, f tree.FilterState) api.CategoriesQuery {
	return api.CategoriesQuery{
		Store:        cfg.Store,
		Type:         cfg.Type,
		StatusFilter: f.Status,
		BinFilter:    f.Bin,
		Filter:       f.CommonName,
	}
}

// fetchCategoriesCmd fetches the root listing for one tab.
func fetchCategoriesCmd(client *api.Client, tab, gen int, q api.CategoriesQuery) tea.Cmd {
	return func() tea.Msg {
		cats, err := client.Categories(context.Background(), q)
		return categoriesMsg{tab: tab, gen: gen, cats: cats, err: err}
	}
}

// listingSpec carries everything a child-page fetch needs, captured from
// the live tree before the command goroutine starts.
type listingSpec struct {
	nodeID      string
	childLevel  tree.Level
	page        int
	category    string
	subcategory string
	commonName  string
	contract    string
}

// specFor builds the fetch spec for n's children at the given page,
// walking the parent chain for the path names.
func specFor(reg *tree.Registry, n *tree.Node, page int, contract string) (listingSpec, bool) {
	childLevel, ok := reg.NextLevel(n.Level)
	if !ok {
		return listingSpec{}, false
	}
	spec := listingSpec{nodeID: n.ID, childLevel: childLevel, page: page, contract: contract}
	for cur := n; cur != nil; cur = cur.Parent {
		switch cur.Level {
		case tree.LevelCategory:
			spec.category = cur.Name
		case tree.LevelSubcategory:
			spec.subcategory = cur.Name
		case tree.LevelCommonName:
			spec.commonName = cur.Name
		}
	}
	return spec, true
}

// fetchListing runs one child-page fetch and packages the result. Shared
// by the single-listing command and the refresh-all pass.
func fetchListing(ctx context.Context, client *api.Client, spec listingSpec) (func(parent *tree.Node) []*tree.Node, api.PageInfo, error) {
	switch spec.childLevel {
	case tree.LevelSubcategory:
		subs, info, err := client.Subcategories(ctx, spec.category, spec.page)
		if err != nil {
			return nil, api.PageInfo{}, err
		}
		return func(parent *tree.Node) []*tree.Node {
			return tree.SubcategoryNodes(parent, subs)
		}, info, nil
	case tree.LevelCommonName:
		names, info, err := client.CommonNames(ctx, spec.category, spec.subcategory, spec.page, spec.contract)
		if err != nil {
			return nil, api.PageInfo{}, err
		}
		return func(parent *tree.Node) []*tree.Node {
			return tree.CommonNameNodes(parent, names)
		}, info, nil
	default:
		items, info, err := client.Items(ctx, spec.category, spec.subcategory, spec.commonName, spec.page)
		if err != nil {
			return nil, api.PageInfo{}, err
		}
		return func(parent *tree.Node) []*tree.Node {
			return tree.ItemNodes(parent, items)
		}, info, nil
	}
}

// fetchListingCmd fetches one child page for one node.
func fetchListingCmd(client *api.Client, tab, gen int, spec listingSpec) tea.Cmd {
	return func() tea.Msg {
		build, info, err := fetchListing(context.Background(), client, spec)
		return listingMsg{tab: tab, nodeID: spec.nodeID, gen: gen, build: build, info: info, err: err}
	}
}

// saveFieldCmd posts one edited field value.
func saveFieldCmd(client *api.Client, tab int, parentID string, field api.Field, tagID, value string) tea.Cmd {
	return func() tea.Msg {
		err := client.UpdateField(context.Background(), field, tagID, value)
		return fieldSavedMsg{tab: tab, parentID: parentID, field: field, tagID: tagID, value: value, err: err}
	}
}

// refreshAllCmd re-fetches the root listing and every expanded listing
// concurrently with a bounded group. Specs are captured from the live tree
// before the goroutines start; results come back in record order and are
// applied parents-first.
func refreshAllCmd(client *api.Client, tab, gen int, q api.CategoriesQuery, recs []tree.Record, specs []listingSpec) tea.Cmd {
	return func() tea.Msg {
		msg := refreshDoneMsg{
			tab:     tab,
			gen:     gen,
			results: make([]refreshResult, len(specs)),
		}

		g, ctx := errgroup.WithContext(context.Background())
		g.SetLimit(refreshConcurrency)

		g.Go(func() error {
			msg.cats, msg.catsErr = client.Categories(ctx, q)
			return nil
		})
		for i := range specs {
			g.Go(func() error {
				res := refreshResult{rec: recs[i]}
				res.build, res.info, res.err = fetchListing(ctx, client, specs[i])
				msg.results[i] = res
				return nil
			})
		}
		_ = g.Wait()
		return msg
	}
}
