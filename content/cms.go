package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Content types of the blog repository.
const (
	TypeHomePage = "OCEGettingStartedHomePage"
	TypeTopic    = "OCEGettingStartedTopic"
	TypeArticle  = "OCEGettingStartedArticle"
	TypeAuthor   = "OCEGettingStartedAuthor"
)

const (
	homePageName    = "HomePage"
	defaultPageSize = 100
	// renditionFetches bounds concurrent asset lookups per list call.
	renditionFetches = 8
)

// CMSConfig configures a CMS client.
type CMSConfig struct {
	ServerURL    string
	APIVersion   string
	ChannelToken string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// CMS reads published content from the backend's REST delivery API.
type CMS struct {
	base     *url.URL
	version  string
	token    string
	client   *http.Client
	log      *slog.Logger
	pageSize int
}

// NewCMS validates cfg and returns a ready client.
func NewCMS(cfg CMSConfig) (*CMS, error) {
	if strings.TrimSpace(cfg.ServerURL) == "" {
		return nil, errors.New("content: server URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.ServerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("content: server URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("content: server URL %q must be http or https", cfg.ServerURL)
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v1.1"
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &CMS{
		base:     base,
		version:  cfg.APIVersion,
		token:    cfg.ChannelToken,
		client:   client,
		log:      log,
		pageSize: defaultPageSize,
	}, nil
}

type reference struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Fields json.RawMessage `json:"fields"`
}

type item struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Fields      json.RawMessage `json:"fields"`
}

type itemList struct {
	Items   []item `json:"items"`
	HasMore bool   `json:"hasMore"`
	Offset  int    `json:"offset"`
	Count   int    `json:"count"`
}

type homeFields struct {
	CompanyName      string      `json:"company_name"`
	CompanyThumbnail *reference  `json:"company_thumbnail"`
	Topics           []reference `json:"topics"`
	AboutURL         string      `json:"about_url"`
	ContactURL       string      `json:"contact_url"`
}

type topicFields struct {
	Thumbnail *reference `json:"thumbnail"`
}

type dateValue struct {
	Value string `json:"value"`
}

type articleFields struct {
	Topic          *reference `json:"topic"`
	Author         *reference `json:"author"`
	Image          *reference `json:"image"`
	ImageCaption   string     `json:"image_caption"`
	ArticleContent string     `json:"article_content"`
	PublishedDate  dateValue  `json:"published_date"`
}

type authorFields struct {
	Avatar *reference `json:"avatar"`
}

func decodeFields(it item, v any) error {
	if len(it.Fields) == 0 {
		return nil
	}
	if err := json.Unmarshal(it.Fields, v); err != nil {
		return fmt.Errorf("decode %s fields of %s: %w", it.Type, it.ID, err)
	}
	return nil
}

// TopicIDs lists the topics referenced by the home page, in page order.
func (c *CMS) TopicIDs(ctx context.Context) ([]string, error) {
	home, err := c.homeItem(ctx)
	if err != nil {
		return nil, err
	}
	var f homeFields
	if err := decodeFields(home, &f); err != nil {
		return nil, &FetchError{Op: "topic ids", Err: err}
	}
	ids := make([]string, 0, len(f.Topics))
	for _, t := range f.Topics {
		if t.ID != "" {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

// TopicName returns the display name of a topic.
func (c *CMS) TopicName(ctx context.Context, topicID string) (string, error) {
	it, err := c.item(ctx, "topic name", topicID, nil)
	if err != nil {
		return "", err
	}
	return it.Name, nil
}

// TopicArticles lists the articles of a topic, newest first. Image
// renditions are resolved concurrently; any failed lookup fails the call.
func (c *CMS) TopicArticles(ctx context.Context, topicID string) (TopicArticles, error) {
	q := fmt.Sprintf(`(type eq "%s" AND fields.topic eq "%s")`, TypeArticle, quote(topicID))
	items, err := c.query(ctx, "topic articles", q, "fields.published_date:desc", true)
	if err != nil {
		return TopicArticles{}, err
	}

	articles := make([]Article, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renditionFetches)
	for i, it := range items {
		var f articleFields
		if err := decodeFields(it, &f); err != nil {
			return TopicArticles{}, &FetchError{Op: "topic articles", Err: err}
		}
		articles[i] = Article{
			ID:            it.ID,
			Name:          it.Name,
			Description:   it.Description,
			PublishedDate: parseDate(f.PublishedDate.Value),
		}
		if f.Image == nil || f.Image.ID == "" {
			continue
		}
		g.Go(func() error {
			r, err := c.renditions(gctx, f.Image.ID)
			if err != nil {
				return err
			}
			articles[i].Renditions = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return TopicArticles{}, err
	}
	return TopicArticles{Articles: articles}, nil
}

// AllArticles pages through every published article.
func (c *CMS) AllArticles(ctx context.Context) ([]ArticleRef, error) {
	q := fmt.Sprintf(`(type eq "%s")`, TypeArticle)
	items, err := c.query(ctx, "all articles", q, "", false)
	if err != nil {
		return nil, err
	}
	refs := make([]ArticleRef, 0, len(items))
	for _, it := range items {
		refs = append(refs, ArticleRef{ID: it.ID})
	}
	return refs, nil
}

// ArticleDetails fetches an article with its author and topic expanded,
// then the article image and author avatar renditions in parallel.
func (c *CMS) ArticleDetails(ctx context.Context, articleID string) (ArticleDetail, error) {
	extra := url.Values{"expand": {"fields.author,fields.topic"}}
	it, err := c.item(ctx, "article details", articleID, extra)
	if err != nil {
		return ArticleDetail{}, err
	}
	var f articleFields
	if err := decodeFields(it, &f); err != nil {
		return ArticleDetail{}, &FetchError{Op: "article details", Err: err}
	}

	d := ArticleDetail{
		ID:           it.ID,
		Name:         it.Name,
		Date:         parseDate(f.PublishedDate.Value),
		Content:      f.ArticleContent,
		ImageCaption: f.ImageCaption,
	}
	if f.Topic != nil {
		d.TopicID = f.Topic.ID
		d.TopicName = f.Topic.Name
	}

	var avatar *reference
	if f.Author != nil {
		d.Title = f.Author.Name
		var af authorFields
		if len(f.Author.Fields) > 0 {
			if err := json.Unmarshal(f.Author.Fields, &af); err != nil {
				return ArticleDetail{}, &FetchError{Op: "article details", Err: err}
			}
		}
		avatar = af.Avatar
	}

	g, gctx := errgroup.WithContext(ctx)
	if f.Image != nil && f.Image.ID != "" {
		g.Go(func() error {
			r, err := c.renditions(gctx, f.Image.ID)
			d.Renditions = r
			return err
		})
	}
	if avatar != nil && avatar.ID != "" {
		g.Go(func() error {
			r, err := c.renditions(gctx, avatar.ID)
			d.AuthorRenditions = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return ArticleDetail{}, err
	}
	return d, nil
}

// HomePage returns the company header and the topic cards.
func (c *CMS) HomePage(ctx context.Context) (HomePage, error) {
	home, err := c.homeItem(ctx)
	if err != nil {
		return HomePage{}, err
	}
	var f homeFields
	if err := decodeFields(home, &f); err != nil {
		return HomePage{}, &FetchError{Op: "home page", Err: err}
	}

	page := HomePage{
		CompanyTitle: f.CompanyName,
		AboutURL:     f.AboutURL,
		ContactURL:   f.ContactURL,
		Topics:       make([]Topic, len(f.Topics)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renditionFetches)
	if f.CompanyThumbnail != nil && f.CompanyThumbnail.ID != "" {
		g.Go(func() error {
			r, err := c.renditions(gctx, f.CompanyThumbnail.ID)
			page.CompanyThumbnail = r
			return err
		})
	}
	for i, ref := range f.Topics {
		g.Go(func() error {
			t, err := c.topic(gctx, ref.ID)
			page.Topics[i] = t
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return HomePage{}, err
	}
	return page, nil
}

func (c *CMS) topic(ctx context.Context, id string) (Topic, error) {
	it, err := c.item(ctx, "topic", id, nil)
	if err != nil {
		return Topic{}, err
	}
	t := Topic{ID: it.ID, Name: it.Name, Description: it.Description}
	var f topicFields
	if err := decodeFields(it, &f); err != nil {
		return Topic{}, &FetchError{Op: "topic", Err: err}
	}
	if f.Thumbnail != nil && f.Thumbnail.ID != "" {
		if t.Renditions, err = c.renditions(ctx, f.Thumbnail.ID); err != nil {
			return Topic{}, err
		}
	}
	return t, nil
}

func (c *CMS) homeItem(ctx context.Context) (item, error) {
	q := fmt.Sprintf(`(type eq "%s" AND name eq "%s")`, TypeHomePage, homePageName)
	items, err := c.queryPage(ctx, "home page", q, "", true, 0, 1)
	if err != nil {
		return item{}, err
	}
	if len(items.Items) == 0 {
		return item{}, fmt.Errorf("home page: %w", ErrNotFound)
	}
	return items.Items[0], nil
}

// renditions resolves an asset into a rendition set. Incomplete sets are
// dropped so views only ever see a full set or nothing.
func (c *CMS) renditions(ctx context.Context, assetID string) (*Renditions, error) {
	it, err := c.item(ctx, "renditions", assetID, nil)
	if errors.Is(err, ErrNotFound) {
		c.log.Warn("rendition asset missing", slog.String("asset", assetID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r, err := decodeRenditions(it.Fields)
	if err != nil {
		return nil, &FetchError{Op: "renditions", Err: err}
	}
	if r != nil && !r.Complete() {
		c.log.Warn("dropping incomplete rendition set",
			slog.String("asset", assetID),
			slog.Bool("srcset", r.Srcset != ""),
			slog.Bool("jpg_srcset", r.JPGSrcset != ""))
		return nil, nil
	}
	return r, nil
}

func (c *CMS) item(ctx context.Context, op, id string, extra url.Values) (item, error) {
	if id == "" {
		return item{}, fmt.Errorf("%s: empty id: %w", op, ErrNotFound)
	}
	var it item
	if err := c.get(ctx, op, "items/"+id, extra, &it); err != nil {
		return item{}, err
	}
	return it, nil
}

// query collects every page of a search.
func (c *CMS) query(ctx context.Context, op, q, orderBy string, allFields bool) ([]item, error) {
	var all []item
	offset := 0
	for {
		page, err := c.queryPage(ctx, op, q, orderBy, allFields, offset, c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore || len(page.Items) == 0 {
			return all, nil
		}
		offset += len(page.Items)
	}
}

func (c *CMS) queryPage(ctx context.Context, op, q, orderBy string, allFields bool, offset, limit int) (itemList, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	params.Set("totalResults", "false")
	if orderBy != "" {
		params.Set("orderBy", orderBy)
	}
	if allFields {
		params.Set("fields", "ALL")
	}
	var list itemList
	if err := c.get(ctx, op, "items", params, &list); err != nil {
		return itemList{}, err
	}
	return list, nil
}

func (c *CMS) get(ctx context.Context, op, endpoint string, params url.Values, v any) error {
	u := *c.base
	u.Path = path.Join(u.Path, "content/published/api", c.version, endpoint)
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	if c.token != "" {
		q.Set("channelToken", c.token)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return &FetchError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.log.Debug("cms request",
		slog.String("op", op),
		slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("took", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &FetchError{Op: op, Status: resp.StatusCode, Err: errors.New(strings.TrimSpace(string(body)))}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &FetchError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

// quote escapes a value embedded in a q expression.
func quote(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// parseDate accepts the delivery API's timestamp forms. Unparseable values
// yield the zero time.
func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000-0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
