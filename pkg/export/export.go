// Package export assembles offline snapshots of the rental inventory.
//
// A snapshot is one tab's subtree fetched to full depth: every category,
// every page of every listing under it, down to the tagged items. The walk
// is breadth-first so each level completes before the next starts, with
// sibling listings fetched concurrently through a bounded errgroup. The
// result writes as an indented JSON tree or as flat CSV item rows.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/config"
	"github.com/rentscan/tagview/pkg/metrics"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Formats lists the supported output formats.
var Formats = []string{FormatJSON, FormatCSV}

// fetchConcurrency bounds the sibling listing fetches per level.
const fetchConcurrency = 8

// Options selects what to export and how to write it.
type Options struct {
	Tab      config.Tab
	Category string // empty exports every category
	Format   string // json or csv
	Out      string // output path; empty derives one
}

// Validate rejects options naming an unknown format or a malformed tab.
func (o Options) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Tab),
		validation.Field(&o.Format, validation.Required, validation.In(FormatJSON, FormatCSV)),
	)
}

// Snapshot is one exported tab subtree.
type Snapshot struct {
	Tab         string         `json:"tab"`
	Store       string         `json:"store,omitempty"`
	Type        string         `json:"type,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Categories  []CategoryNode `json:"categories"`
}

// CategoryNode is a category with its resolved children. Tabs that skip
// the subcategory level attach common names directly.
type CategoryNode struct {
	api.Category
	Subcategories []SubcategoryNode `json:"subcategories,omitempty"`
	CommonNames   []CommonNameNode  `json:"common_names,omitempty"`
}

// SubcategoryNode is a subcategory with its common names.
type SubcategoryNode struct {
	api.Subcategory
	CommonNames []CommonNameNode `json:"common_names,omitempty"`
}

// CommonNameNode is a common name with its tagged items.
type CommonNameNode struct {
	api.CommonName
	Items []api.Item `json:"items,omitempty"`
}

// EachItem visits every item with its position in the tree, in snapshot
// order. Subcategory is empty on tabs that skip that level.
func (s *Snapshot) EachItem(fn func(category, subcategory, commonName string, it api.Item)) {
	visit := func(category, subcategory string, names []CommonNameNode) {
		for _, cn := range names {
			for _, it := range cn.Items {
				fn(category, subcategory, cn.Name, it)
			}
		}
	}
	for _, cat := range s.Categories {
		visit(cat.Category.Category, "", cat.CommonNames)
		for _, sub := range cat.Subcategories {
			visit(cat.Category.Category, sub.Subcategory.Subcategory, sub.CommonNames)
		}
	}
}

// ItemCount returns the number of items across the snapshot.
func (s *Snapshot) ItemCount() int {
	n := 0
	s.EachItem(func(string, string, string, api.Item) { n++ })
	return n
}

// Exporter walks the listing endpoints and assembles snapshots.
type Exporter struct {
	client *api.Client
	cfg    config.Config
	log    *zap.Logger
	limit  int
}

// NewExporter returns an exporter bound to the client's base URL and the
// config's store/type context.
func NewExporter(client *api.Client, cfg config.Config, log *zap.Logger) *Exporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{client: client, cfg: cfg, log: log, limit: fetchConcurrency}
}

// Snapshot fetches the subtree selected by opts. Any listing failure
// aborts the whole export; a partial snapshot would be worse than none.
func (e *Exporter) Snapshot(ctx context.Context, opts Options) (*Snapshot, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	defer metrics.Timer(metrics.SnapshotExport)()
	client := e.client.ForTab(opts.Tab.Path)

	cats, err := client.Categories(ctx, api.CategoriesQuery{Store: e.cfg.Store, Type: e.cfg.Type})
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	if opts.Category != "" {
		var kept []api.Category
		for _, c := range cats {
			if strings.EqualFold(c.Category, opts.Category) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			return nil, fmt.Errorf("category %q not found in tab %s", opts.Category, opts.Tab.Path)
		}
		cats = kept
	}

	snap := &Snapshot{
		Tab:         opts.Tab.Path,
		Store:       e.cfg.Store,
		Type:        e.cfg.Type,
		GeneratedAt: time.Now().UTC(),
		Categories:  make([]CategoryNode, len(cats)),
	}
	for i, cat := range cats {
		snap.Categories[i] = CategoryNode{Category: cat}
	}

	if !opts.Tab.SkipSubcategory {
		if err := e.fillSubcategories(ctx, client, snap); err != nil {
			return nil, err
		}
	}
	if err := e.fillCommonNames(ctx, client, snap, opts.Tab.SkipSubcategory); err != nil {
		return nil, err
	}
	if err := e.fillItems(ctx, client, snap); err != nil {
		return nil, err
	}

	e.log.Info("snapshot assembled",
		zap.String("tab", opts.Tab.Path),
		zap.Int("categories", len(snap.Categories)),
		zap.Int("items", snap.ItemCount()))
	return snap, nil
}

func (e *Exporter) fillSubcategories(ctx context.Context, client *api.Client, snap *Snapshot) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := range snap.Categories {
		cat := &snap.Categories[i]
		g.Go(func() error {
			subs, err := e.allSubcategories(ctx, client, cat.Category.Category)
			if err != nil {
				return fmt.Errorf("%s: %w", cat.Category.Category, err)
			}
			cat.Subcategories = make([]SubcategoryNode, len(subs))
			for j, s := range subs {
				cat.Subcategories[j] = SubcategoryNode{Subcategory: s}
			}
			return nil
		})
	}
	return g.Wait()
}

func (e *Exporter) fillCommonNames(ctx context.Context, client *api.Client, snap *Snapshot, skipSubcategory bool) error {
	type slot struct {
		category, subcategory string
		dst                   *[]CommonNameNode
	}
	var slots []slot
	for i := range snap.Categories {
		cat := &snap.Categories[i]
		if skipSubcategory {
			slots = append(slots, slot{cat.Category.Category, "", &cat.CommonNames})
			continue
		}
		for j := range cat.Subcategories {
			sub := &cat.Subcategories[j]
			slots = append(slots, slot{cat.Category.Category, sub.Subcategory.Subcategory, &sub.CommonNames})
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for _, sl := range slots {
		g.Go(func() error {
			names, err := e.allCommonNames(ctx, client, sl.category, sl.subcategory)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", sl.category, sl.subcategory, err)
			}
			nodes := make([]CommonNameNode, len(names))
			for j, n := range names {
				nodes[j] = CommonNameNode{CommonName: n}
			}
			*sl.dst = nodes
			return nil
		})
	}
	return g.Wait()
}

func (e *Exporter) fillItems(ctx context.Context, client *api.Client, snap *Snapshot) error {
	type slot struct {
		category, subcategory string
		cn                    *CommonNameNode
	}
	var slots []slot
	for i := range snap.Categories {
		cat := &snap.Categories[i]
		for j := range cat.CommonNames {
			slots = append(slots, slot{cat.Category.Category, "", &cat.CommonNames[j]})
		}
		for j := range cat.Subcategories {
			sub := &cat.Subcategories[j]
			for k := range sub.CommonNames {
				slots = append(slots, slot{cat.Category.Category, sub.Subcategory.Subcategory, &sub.CommonNames[k]})
			}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for _, sl := range slots {
		g.Go(func() error {
			items, err := e.allItems(ctx, client, sl.category, sl.subcategory, sl.cn.Name)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", sl.category, sl.cn.Name, err)
			}
			sl.cn.Items = items
			return nil
		})
	}
	return g.Wait()
}

func (e *Exporter) allSubcategories(ctx context.Context, client *api.Client, category string) ([]api.Subcategory, error) {
	var out []api.Subcategory
	for page := 1; ; page++ {
		recs, info, err := client.Subcategories(ctx, category, page)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
		if len(recs) == 0 || !morePages(info, len(out)) {
			break
		}
	}
	return out, nil
}

func (e *Exporter) allCommonNames(ctx context.Context, client *api.Client, category, subcategory string) ([]api.CommonName, error) {
	var out []api.CommonName
	for page := 1; ; page++ {
		recs, info, err := client.CommonNames(ctx, category, subcategory, page, "")
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
		if len(recs) == 0 || !morePages(info, len(out)) {
			break
		}
	}
	return out, nil
}

func (e *Exporter) allItems(ctx context.Context, client *api.Client, category, subcategory, commonName string) ([]api.Item, error) {
	var out []api.Item
	for page := 1; ; page++ {
		recs, info, err := client.Items(ctx, category, subcategory, commonName, page)
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
		if len(recs) == 0 || !morePages(info, len(out)) {
			break
		}
	}
	return out, nil
}

// morePages reports whether the envelope promises records beyond the n
// already collected. A server that omits the pagination fields sends
// everything in one response.
func morePages(info api.PageInfo, n int) bool {
	if info.PerPage <= 0 || info.Total <= 0 {
		return false
	}
	return n < info.Total
}

// WriteJSON renders the snapshot as an indented JSON tree.
func (s *Snapshot) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

var csvHeader = []string{
	"tab", "category", "subcategory", "common_name", "tag_id",
	"bin_location", "status", "quality", "last_contract_num",
	"last_scanned_date", "notes",
}

// WriteCSV renders the snapshot as flat item rows, one line per tag.
func (s *Snapshot) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	var werr error
	s.EachItem(func(category, subcategory, name string, it api.Item) {
		if werr != nil {
			return
		}
		werr = cw.Write([]string{
			s.Tab, category, subcategory, name, it.TagID,
			it.BinLocation, it.Status, it.Quality, it.LastContractNum,
			it.LastScannedDate, it.Notes,
		})
	})
	if werr != nil {
		return werr
	}
	cw.Flush()
	return cw.Error()
}

// Write renders the snapshot to a file and returns the path written. An
// empty path derives one from the tab and timestamp.
func (s *Snapshot) Write(format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("tagview-%s-%s.%s", s.Tab, s.GeneratedAt.Format("20060102-150405"), format)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	switch format {
	case FormatCSV:
		err = s.WriteCSV(f)
	default:
		err = s.WriteJSON(f)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
